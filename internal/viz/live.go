package viz

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/florianHoidn/rl-drone-env/internal/control"
	"github.com/florianHoidn/rl-drone-env/internal/env"
	"github.com/florianHoidn/rl-drone-env/internal/linalg"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

const (
	viewWidth       = 40
	viewHeight      = 10
	historyCapacity = 600
	trailLength     = 120
	chartPoints     = 120

	// viewSpan is half the visible height of each view in metres.
	viewSpan = 1.5
	armScale = 5.0
)

type TickMsg time.Time

type snapshot struct {
	state  physics.DroneState
	action physics.ControlAction
	t      float64
}

type Options struct {
	Name   string
	Dt     float64
	Bounds env.Bounds
	Theme  string
}

// Model flies one engine under a controller in real time and draws it.
type Model struct {
	engine     *physics.Engine
	controller control.Controller
	spec       vehicle.Spec
	opts       Options
	x0         physics.DroneState

	t       float64
	running bool
	halted  string

	side, top *Canvas
	trail     []linalg.Vec3
	history   []snapshot
	playHead  int

	params        control.Configurable
	paramKeys     []string
	initialParams map[string]float64
	selected      int

	theme    Theme
	styles   Styles
	showHelp bool
}

func NewModel(engine *physics.Engine, ctrl control.Controller, x0 physics.DroneState, opts Options) Model {
	if !(opts.Dt > 0) {
		opts.Dt = 1.0 / 60
	}
	theme := GetTheme(opts.Theme)
	m := Model{
		engine:     engine,
		controller: ctrl,
		spec:       engine.Spec(),
		opts:       opts,
		x0:         x0,
		running:    true,
		side:       NewCanvas(viewWidth, viewHeight),
		top:        NewCanvas(viewWidth, viewHeight),
		trail:      make([]linalg.Vec3, 0, trailLength),
		history:    make([]snapshot, 0, historyCapacity),
		playHead:   -1,
		theme:      theme,
		styles:     theme.Styles(),
	}
	if c, ok := ctrl.(control.Configurable); ok {
		m.params = c
		m.paramKeys = control.ParamNames(c)
		m.initialParams = c.GetParams()
	}
	m.reset()
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Duration(m.opts.Dt*float64(time.Second)), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.halted == "" || m.playHead != -1 {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "t":
			m.theme = m.theme.Next()
			m.styles = m.theme.Styles()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
					m.running = m.halted == ""
				}
			}
		}
		return m, m.tick()
	}
	return m, nil
}

// step advances the engine by one tick. Engine errors other than a
// degenerate orientation and leaving the bounds halt the flight until reset.
func (m *Model) step() {
	if m.halted != "" {
		return
	}
	s := m.engine.State()
	u := m.controller.Compute(s, m.t)
	if err := m.engine.ApplyControl(u, m.opts.Dt); err != nil && !errors.Is(err, physics.ErrDegenerateOrientation) {
		m.halt(err.Error())
		return
	}
	m.t += m.opts.Dt
	m.record(snapshot{state: m.engine.State(), action: m.engine.PrevAction(), t: m.t})

	if m.opts.Bounds.Exceeded(m.x0.Position, m.engine.State()) {
		m.halt("out of bounds")
	}
}

func (m *Model) halt(reason string) {
	m.halted = reason
	m.running = false
}

func (m *Model) record(snap snapshot) {
	m.history = append(m.history, snap)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
	m.trail = append(m.trail, snap.state.Position)
	if len(m.trail) > trailLength {
		m.trail = m.trail[1:]
	}
}

func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset restores the initial state and controller parameters.
func (m *Model) reset() {
	m.engine.Reset(m.x0)
	if r, ok := m.controller.(control.Resetter); ok {
		r.Reset()
	}
	var err error
	for k, v := range m.initialParams {
		if e := m.params.SetParam(k, v); e != nil {
			err = e
		}
	}
	m.t = 0
	m.halted = ""
	m.running = true
	m.playHead = -1
	m.trail = m.trail[:0]
	m.history = m.history[:0]
	m.record(snapshot{state: m.x0, t: 0})
	if err != nil {
		m.halt(err.Error())
	}
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	val := m.params.GetParams()[key]
	if val == 0 {
		val = 1e-3
	}
	if err := m.params.SetParam(key, val*factor); err != nil {
		m.halt(err.Error())
	}
}

// current is the snapshot on screen: the play head while replaying, the
// latest step otherwise.
func (m Model) current() snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	return m.history[len(m.history)-1]
}

func (m Model) draw(snap snapshot) {
	for _, view := range []struct {
		c *Canvas
		a Axis
	}{{m.side, SideView}, {m.top, TopView}} {
		view.c.Clear()
		center := snap.state.Position
		cx, cy := view.a.Project(vec(center))
		vp := Centered(view.c, cx, cy, viewSpan)

		if view.a == SideView {
			view.c.Line(vp, vp.MinX, m.opts.Bounds.Floor, vp.MaxX, m.opts.Bounds.Floor)
		}
		for _, p := range m.trail {
			x, y := view.a.Project(vec(p))
			view.c.Plot(vp, x, y)
		}
		Outline(snap.state, &m.spec, armScale).Draw(view.c, vp, view.a)
	}
}

func (m Model) View() string {
	snap := m.current()
	m.draw(snap)
	st := m.styles

	left := lipgloss.JoinVertical(lipgloss.Left,
		st.Header.Render("side (x-z)"),
		st.Canvas.Render(m.side.String()),
		st.Header.Render("top (x-y)"),
		st.Canvas.Render(m.top.String()),
	)

	var s strings.Builder
	s.WriteString(st.Header.Render(strings.ToUpper(m.opts.Name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	roll, pitch, yaw := snap.state.Orientation.Euler()
	p, v := snap.state.Position, snap.state.LinearVelocity
	rows := [][2]string{
		{"time", fmt.Sprintf("%.2f s", snap.t)},
		{"position", fmt.Sprintf("%+.2f %+.2f %+.2f", p.X, p.Y, p.Z)},
		{"velocity", fmt.Sprintf("%+.2f %+.2f %+.2f", v.X, v.Y, v.Z)},
		{"attitude", fmt.Sprintf("%+.1f° %+.1f° %+.1f°", deg(roll), deg(pitch), deg(yaw))},
		{"tilt", fmt.Sprintf("%.1f°", deg(snap.state.Orientation.Tilt()))},
	}
	for _, r := range rows {
		s.WriteString(st.Label.Render(r[0]) + st.Value.Render(r[1]) + "\n")
	}

	s.WriteString("\n")
	for i, rpm := range snap.action.RPM {
		label := fmt.Sprintf("rotor %d", i)
		s.WriteString(st.Label.Render(label) + st.Bar(rpm/physics.MaxRPM, 16) + st.Value.Render(fmt.Sprintf(" %5.0f", rpm)) + "\n")
	}

	if chart := Chart(m.altitudes(), "altitude (m)", 30, 4); chart != "" {
		s.WriteString("\n" + chart + "\n")
	}

	if len(m.paramKeys) > 0 {
		s.WriteString("\n" + st.Header.Render("parameters") + "\n")
		params := m.params.GetParams()
		for i, k := range m.paramKeys {
			line := fmt.Sprintf("%-9s %8.3f", k, params[k])
			if i == m.selected {
				s.WriteString(st.Active.Render("> "+line) + "\n")
			} else {
				s.WriteString("  " + st.Value.Render(line) + "\n")
			}
		}
	}

	s.WriteString(st.Help.Render("space pause  r reset  q quit  ? help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, left, st.Panel.Render(s.String()))
	if m.showHelp {
		return st.Panel.Render(helpText) + "\n" + main
	}
	return main
}

const helpText = `space   pause / resume
r       reset to the initial state
tab     select parameter
↑ / k   increase parameter 5%
↓ / j   decrease parameter 5%
[ / ]   step back / forward through history
t       next colour theme
?       toggle this help
q       quit`

func (m Model) status() string {
	st := m.styles
	switch {
	case m.playHead != -1:
		back := m.history[len(m.history)-1].t - m.history[m.playHead].t
		return st.Paused.Render(fmt.Sprintf("REPLAY -%.2fs", back))
	case m.halted != "":
		return st.Alert.Render("HALTED: " + m.halted)
	case !m.running:
		return st.Paused.Render("PAUSED")
	}
	return st.Running.Render("FLYING")
}

func (m Model) altitudes() []float64 {
	end := len(m.history)
	if m.playHead != -1 {
		end = m.playHead + 1
	}
	start := max(0, end-chartPoints)
	out := make([]float64, 0, end-start)
	for _, snap := range m.history[start:end] {
		out = append(out, snap.state.Position.Z)
	}
	return out
}

// Time is the simulated time of the latest step.
func (m Model) Time() float64 { return m.t }

// Halted returns why the flight stopped, or "".
func (m Model) Halted() string { return m.halted }

// Run starts a Model or Menu on the terminal and blocks until it quits.
func Run(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func vec(v linalg.Vec3) mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

func deg(rad float64) float64 { return rad * 180 / math.Pi }
