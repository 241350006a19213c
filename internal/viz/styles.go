package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Canvas  lipgloss.Style
	Panel   lipgloss.Style
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Active  lipgloss.Style
	Help    lipgloss.Style
	Running lipgloss.Style
	Paused  lipgloss.Style
	Alert   lipgloss.Style
	BarHigh lipgloss.Style
	BarMid  lipgloss.Style
	BarLow  lipgloss.Style
}

func (t Theme) Styles() Styles {
	return Styles{
		Canvas: lipgloss.NewStyle().Foreground(t.Primary).Padding(0, 1),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(0, 2).
			Width(44),
		Header:  lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		Label:   lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		Value:   lipgloss.NewStyle().Foreground(t.Text),
		Active:  lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Help:    lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		Running: lipgloss.NewStyle().Foreground(t.Good).Bold(true),
		Paused:  lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		Alert:   lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		BarHigh: lipgloss.NewStyle().Foreground(t.Error),
		BarMid:  lipgloss.NewStyle().Foreground(t.Good),
		BarLow:  lipgloss.NewStyle().Foreground(t.Warning),
	}
}

// Bar renders frac in [0, 1] as a width-wide bar, coloured by how far it is
// from the middle of the range.
func (s Styles) Bar(frac float64, width int) string {
	if math.IsNaN(frac) {
		frac = 0
	}
	frac = math.Max(0, math.Min(1, frac))
	filled := int(math.Round(frac * float64(width)))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case frac > 0.85:
		return s.BarHigh.Render(bar)
	case frac < 0.35:
		return s.BarLow.Render(bar)
	}
	return s.BarMid.Render(bar)
}

// Chart plots series as an ASCII line chart. Series shorter than two points
// render as an empty string.
func Chart(series []float64, caption string, width, height int) string {
	if len(series) < 2 {
		return ""
	}
	return asciigraph.Plot(series,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
	)
}

// MultiChart plots several series on shared axes, labelled by legends.
// Series shorter than two points are left out.
func MultiChart(series [][]float64, legends []string, caption string, width, height int) string {
	data := make([][]float64, 0, len(series))
	names := make([]string, 0, len(series))
	for i, s := range series {
		if len(s) >= 2 {
			data = append(data, s)
			if i < len(legends) {
				names = append(names, legends[i])
			}
		}
	}
	if len(data) == 0 {
		return ""
	}
	colors := []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Magenta, asciigraph.Yellow, asciigraph.Green}
	colors = colors[:min(len(data), len(colors))]
	// Every legend needs a colour.
	names = names[:min(len(names), len(colors))]
	return asciigraph.PlotMany(data,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(names...),
	)
}
