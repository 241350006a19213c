package viz

import (
	"errors"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/florianHoidn/rl-drone-env/internal/control"
	"github.com/florianHoidn/rl-drone-env/internal/env"
	"github.com/florianHoidn/rl-drone-env/internal/linalg"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

func TestCanvasSetAndLine(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(0, 0)
	c.Set(-1, 3)
	c.Set(100, 0)
	if !c.IsSet(0, 0) || c.IsSet(1, 0) {
		t.Error("Set touched the wrong dot")
	}

	c.Clear()
	c.DrawLine(0, 0, 7, 7)
	for i := 0; i < 8; i++ {
		if !c.IsSet(i, i) {
			t.Errorf("diagonal dot (%d,%d) missing", i, i)
		}
	}
	if lines := strings.Split(c.String(), "\n"); len(lines) != 2 {
		t.Errorf("expected 2 rows, got %d", len(lines))
	}
}

func TestViewportCorners(t *testing.T) {
	c := NewCanvas(10, 5)
	vp := Viewport{MinX: -1, MaxX: 1, MinY: 0, MaxY: 2}

	tests := []struct {
		x, y   float64
		dx, dy int
	}{
		{-1, 2, 0, 0},
		{1, 0, 19, 19},
		{-1, 0, 0, 19},
	}
	for _, tt := range tests {
		dx, dy := vp.Dot(c, tt.x, tt.y)
		if dx != tt.dx || dy != tt.dy {
			t.Errorf("Dot(%v,%v) = (%d,%d), want (%d,%d)", tt.x, tt.y, dx, dy, tt.dx, tt.dy)
		}
	}

	// Far-away and non-finite lines are skipped without walking dots.
	c.Line(vp, 0, 0, 1e300, 1e300)
	c.Line(vp, 0, 0, math.NaN(), 1)
}

func TestOutlineIdentity(t *testing.T) {
	spec := vehicle.Crazyflie()
	s := physics.DefaultState()
	s.Position = linalg.Vec3{X: 1, Y: 2, Z: 3}

	sil := Outline(s, spec, 2)
	for i, r := range sil.Rotors {
		want := spec.RotorPositions[i]
		if math.Abs(r[0]-(1+2*want.X)) > 1e-12 || math.Abs(r[1]-(2+2*want.Y)) > 1e-12 || math.Abs(r[2]-3) > 1e-12 {
			t.Errorf("rotor %d at %v", i, r)
		}
	}
	if sil.Nose[0] <= 1 || math.Abs(sil.Nose[1]-2) > 1e-12 {
		t.Errorf("nose should point along +x, got %v", sil.Nose)
	}
}

func TestOutlineYaw(t *testing.T) {
	s := physics.DefaultState()
	s.Orientation = linalg.QuatFromAxisAngle(linalg.Vec3{Z: 1}, math.Pi/2)

	sil := Outline(s, vehicle.Crazyflie(), 1)
	if math.Abs(sil.Nose[0]) > 1e-12 || sil.Nose[1] <= 0 {
		t.Errorf("90° yaw should point the nose along +y, got %v", sil.Nose)
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("unknown theme should fall back to the first")
	}
	th := Themes[0]
	for range Themes {
		th = th.Next()
	}
	if th.Name != Themes[0].Name {
		t.Error("Next should cycle through every theme")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("ThemeNames length mismatch")
	}
}

func TestCharts(t *testing.T) {
	if Chart([]float64{1}, "x", 10, 3) != "" {
		t.Error("single point should not chart")
	}
	if out := Chart([]float64{0, 1, 0.5}, "alt", 10, 3); !strings.Contains(out, "alt") {
		t.Errorf("caption missing: %q", out)
	}
	out := MultiChart([][]float64{{0, 1}, {1, 0}, {2, 3}, {3, 4}, {5, 6}, {7, 8}}, []string{"a", "b", "c", "d", "e", "f"}, "many", 10, 3)
	if out == "" {
		t.Error("expected chart")
	}
}

func newHoverModel(t *testing.T, x0 physics.DroneState, bounds env.Bounds) Model {
	t.Helper()
	spec := vehicle.Crazyflie()
	ctrl, err := control.NewAltitudeHold(spec, x0.Position.Z)
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(physics.NewEngine(spec), ctrl, x0, Options{Name: "test", Dt: 0.01, Bounds: bounds})
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModelSteps(t *testing.T) {
	x0 := physics.DefaultState()
	x0.Position.Z = 1
	m := newHoverModel(t, x0, env.DefaultBounds())

	for i := 0; i < 10; i++ {
		m = update(m, TickMsg{})
	}
	if math.Abs(m.Time()-0.1) > 1e-9 {
		t.Errorf("time = %v after 10 ticks", m.Time())
	}

	m = update(m, key(" "))
	m = update(m, TickMsg{})
	if math.Abs(m.Time()-0.1) > 1e-9 {
		t.Error("paused model should not step")
	}

	view := m.View()
	for _, want := range []string{"TEST", "PAUSED", "rotor 3", "kp"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = update(m, key("r"))
	if m.Time() != 0 {
		t.Error("reset should rewind time")
	}
}

func TestModelHaltsOutOfBounds(t *testing.T) {
	x0 := physics.DefaultState()
	m := newHoverModel(t, x0, env.Bounds{Floor: -1, Radius: 5})
	m.controller = control.NewNone()

	for i := 0; i < 200 && m.Halted() == ""; i++ {
		m = update(m, TickMsg{})
	}
	if m.Halted() != "out of bounds" {
		t.Fatalf("expected halt, got %q", m.Halted())
	}
	before := m.Time()
	m = update(m, TickMsg{})
	if m.Time() != before {
		t.Error("halted model should not step")
	}
	if !strings.Contains(m.View(), "HALTED") {
		t.Error("view should show the halt")
	}
}

func TestModelReplayAndTuning(t *testing.T) {
	x0 := physics.DefaultState()
	x0.Position.Z = 1
	m := newHoverModel(t, x0, env.DefaultBounds())
	for i := 0; i < 5; i++ {
		m = update(m, TickMsg{})
	}

	m = update(m, key("["))
	if !strings.Contains(m.View(), "REPLAY") {
		t.Error("expected replay status")
	}
	m = update(m, key("]"))
	m = update(m, key("]"))

	kp := m.params.GetParams()[m.paramKeys[m.selected]]
	m = update(m, key("k"))
	if got := m.params.GetParams()[m.paramKeys[m.selected]]; math.Abs(got-kp*1.05) > 1e-12 {
		t.Errorf("param = %v, want %v", got, kp*1.05)
	}
	m = update(m, key("r"))
	if got := m.params.GetParams()[m.paramKeys[m.selected]]; got != kp {
		t.Errorf("reset should restore %v, got %v", kp, got)
	}

	name := m.theme.Name
	m = update(m, key("t"))
	if m.theme.Name == name {
		t.Error("t should change the theme")
	}
}

func TestMenu(t *testing.T) {
	items := []MenuItem{{"hover", "hold altitude"}, {"broken", "fails"}}
	menu := NewMenu(items, func(name string) (Model, error) {
		if name == "broken" {
			return Model{}, errors.New("cannot fly")
		}
		x0 := physics.DefaultState()
		x0.Position.Z = 1
		return newHoverModel(t, x0, env.DefaultBounds()), nil
	})

	step := func(msg tea.Msg) {
		next, _ := menu.Update(msg)
		menu = next.(Menu)
	}

	step(tea.KeyMsg{Type: tea.KeyDown})
	step(tea.KeyMsg{Type: tea.KeyEnter})
	if menu.Flying() || !strings.Contains(menu.View(), "cannot fly") {
		t.Error("launch error should be shown in the menu")
	}

	step(tea.KeyMsg{Type: tea.KeyUp})
	step(tea.KeyMsg{Type: tea.KeyEnter})
	if !menu.Flying() {
		t.Fatal("expected live view")
	}
	step(TickMsg{})
	if menu.live.Time() == 0 {
		t.Error("ticks should reach the live model")
	}
	step(tea.KeyMsg{Type: tea.KeyEsc})
	if menu.Flying() {
		t.Error("esc should return to the menu")
	}
}
