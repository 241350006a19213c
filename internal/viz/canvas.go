package viz

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
//
// starting at U+2800.
const brailleBlank = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells with (Width*2) x (Height*4) dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set turns on the dot at (x, y). Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line with Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}

// Viewport maps a world rectangle onto the full canvas, y up.
type Viewport struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Centered returns a square viewport of half-width span around (cx, cy),
// stretched horizontally to the aspect of c.
func Centered(c *Canvas, cx, cy, span float64) Viewport {
	aspect := float64(c.Width*2) / float64(c.Height*4)
	return Viewport{
		MinX: cx - span*aspect, MaxX: cx + span*aspect,
		MinY: cy - span, MaxY: cy + span,
	}
}

// Dot converts world coordinates to dot coordinates.
func (v Viewport) Dot(c *Canvas, x, y float64) (int, int) {
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	px := (x - v.MinX) / (v.MaxX - v.MinX) * w
	py := (v.MaxY - y) / (v.MaxY - v.MinY) * h
	return int(math.Round(clampDot(px))), int(math.Round(clampDot(py)))
}

func (c *Canvas) Plot(v Viewport, x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return
	}
	c.Set(v.Dot(c, x, y))
}

func (c *Canvas) Line(v Viewport, x0, y0, x1, y1 float64) {
	if math.IsNaN(x0+y0+x1+y1) || math.IsInf(x0+y0+x1+y1, 0) {
		return
	}
	ax, ay := v.Dot(c, x0, y0)
	bx, by := v.Dot(c, x1, y1)
	// Skip lines far off screen instead of walking every dot.
	limit := 4 * (c.Width*2 + c.Height*4)
	if absInt(ax) > limit || absInt(ay) > limit || absInt(bx) > limit || absInt(by) > limit {
		return
	}
	c.DrawLine(ax, ay, bx, by)
}

func clampDot(v float64) float64 {
	return math.Max(-1e6, math.Min(1e6, v))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
