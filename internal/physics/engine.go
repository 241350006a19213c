package physics

import (
	"math"

	"github.com/florianHoidn/rl-drone-env/internal/linalg"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

// Quaternions with a norm below this are treated as degenerate.
const orientationEpsilon = 1e-12

// unitTolerance is how far from 1 the norm of an unchanged orientation may be
// before it is renormalized anyway.
const unitTolerance = 1e-12

// Engine advances one vehicle with a fixed-action RK4 step per call.
//
// An Engine is not safe for concurrent use. ApplyControl and the accessors
// must be called from the same goroutine.
type Engine struct {
	model Model
	clamp bool

	current     DroneState
	prev        DroneState
	prevAction  ControlAction
	prevDt      float64
	initialized bool
	steps       int
}

type Option func(*Engine)

// WithActionClamping selects how finite out-of-range rotor commands are
// handled: clamped to [MinRPM, MaxRPM] (the default) or rejected with
// ErrInvalidAction.
func WithActionClamping(on bool) Option {
	return func(e *Engine) { e.clamp = on }
}

func WithGravity(g linalg.Vec3) Option {
	return func(e *Engine) { e.model.gravity = g }
}

func NewEngine(spec *vehicle.Spec, opts ...Option) *Engine {
	e := &Engine{
		model:   NewModel(spec),
		clamp:   true,
		current: DefaultState(),
		prev:    DefaultState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init overwrites the current state. Previous state, action and dt keep
// whatever they held before; use Reset to clear them as well.
func (e *Engine) Init(state DroneState) {
	e.current = state
	e.initialized = true
}

// Reset is Init followed by setting the previous state to state, the
// previous action to all-zero and the previous dt to 0.
func (e *Engine) Reset(state DroneState) {
	e.Init(state)
	e.prev = state
	e.prevAction = ControlAction{}
	e.prevDt = 0
	e.steps = 0
}

// ApplyControl integrates the dynamics over dt with the action held fixed.
//
// Validation failures and non-finite results leave the engine untouched. A
// result is non-finite when it holds NaN or Inf or when the squared magnitude
// of a position or velocity overflows. An orientation the step left bitwise
// unchanged is not renormalized. A degenerate orientation is replaced by the
// identity and the step is kept; ErrDegenerateOrientation is still returned.
func (e *Engine) ApplyControl(action ControlAction, dt float64) error {
	if !e.initialized {
		return e.fail(dt, ErrNotInitialized)
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return e.fail(dt, ErrInvalidTimestep)
	}
	if !action.IsFinite() {
		return e.fail(dt, ErrInvalidAction)
	}
	if !action.InRange() {
		if !e.clamp {
			return e.fail(dt, ErrInvalidAction)
		}
		action = action.Clamp()
	}

	next := e.rk4(e.current, action, dt)
	if !next.IsFinite() || !next.bounded() {
		return e.fail(dt, ErrNonFiniteState)
	}

	var err error
	if next.Orientation != e.current.Orientation || math.Abs(next.Orientation.Norm()-1) > unitTolerance {
		if !normalize(&next.Orientation) {
			next.Orientation = linalg.QuatIdentity()
			err = e.fail(dt, ErrDegenerateOrientation)
		}
	}

	e.prev = e.current
	e.prevAction = action
	e.prevDt = dt
	e.current = next
	e.steps++

	return err
}

func (e *Engine) rk4(s DroneState, a ControlAction, dt float64) DroneState {
	thrust, torque := e.model.spec.Wrench(a.RPM)

	k1 := e.model.derive(s, thrust, torque)

	stage := s
	stage.AddScaled(k1, dt*0.5)
	k2 := e.model.derive(stage, thrust, torque)

	stage = s
	stage.AddScaled(k2, dt*0.5)
	k3 := e.model.derive(stage, thrust, torque)

	stage = s
	stage.AddScaled(k3, dt)
	k4 := e.model.derive(stage, thrust, torque)

	sum := k1
	sum.AddScaled(k2, 2)
	sum.AddScaled(k3, 2)
	sum.AddScaled(k4, 1)

	out := s
	out.AddScaled(sum, dt/6.0)
	return out
}

// normalize scales q to unit length, dividing by the largest component
// first so huge finite quaternions do not overflow. It returns false when the
// norm is below orientationEpsilon.
func normalize(q *linalg.Quat) bool {
	m := max(math.Abs(q.X), math.Abs(q.Y), math.Abs(q.Z), math.Abs(q.W))
	if m == 0 {
		return false
	}
	u := linalg.Quat{X: q.X / m, Y: q.Y / m, Z: q.Z / m, W: q.W / m}
	n := math.Sqrt(u.X*u.X + u.Y*u.Y + u.Z*u.Z + u.W*u.W)
	if m*n < orientationEpsilon {
		return false
	}
	*q = linalg.Quat{X: u.X / n, Y: u.Y / n, Z: u.Z / n, W: u.W / n}
	return true
}

func (e *Engine) fail(dt float64, err error) error {
	return &StepError{Step: e.steps, Dt: dt, Wrapped: err}
}

func (e *Engine) State() DroneState         { return e.current }
func (e *Engine) PrevState() DroneState     { return e.prev }
func (e *Engine) PrevDt() float64           { return e.prevDt }
func (e *Engine) PrevAction() ControlAction { return e.prevAction }
func (e *Engine) Position() linalg.Vec3     { return e.current.Position }
func (e *Engine) Orientation() linalg.Quat  { return e.current.Orientation }
func (e *Engine) Initialized() bool         { return e.initialized }
func (e *Engine) Steps() int                { return e.steps }
func (e *Engine) Spec() vehicle.Spec        { return e.model.spec }
func (e *Engine) Model() *Model             { return &e.model }
func (e *Engine) Energy() float64           { return e.model.Energy(e.current) }
