package env

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

// Transition is the outcome of one Step.
type Transition struct {
	State  physics.DroneState
	Reward float64
	Done   bool
	Step   int
}

// Environment is one reinforcement-learning episode loop around an Engine.
// Step and Reset must be called from a single goroutine; only the
// ActionBuffer may be shared with the agent.
type Environment struct {
	engine  *physics.Engine
	spawn   physics.DroneState
	actions *ActionBuffer
	reward  Reward
	bounds  Bounds
	logger  *log.Logger

	done     bool
	episode  int
	steps    int
	episodeR float64
}

type Option func(*Environment)

func WithBounds(b Bounds) Option {
	return func(e *Environment) { e.bounds = b }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Environment) { e.logger = l }
}

// WithReward replaces the default reward anchored at the spawn position.
func WithReward(r Reward) Option {
	return func(e *Environment) { e.reward = r }
}

func WithEngineOptions(opts ...physics.Option) Option {
	return func(e *Environment) { e.engine = physics.NewEngine(ptr(e.engine.Spec()), opts...) }
}

func ptr[T any](v T) *T { return &v }

func New(spec *vehicle.Spec, spawn physics.DroneState, opts ...Option) *Environment {
	e := &Environment{
		engine:  physics.NewEngine(spec),
		spawn:   spawn,
		actions: NewActionBuffer(),
		reward:  NewReward(spawn.Position),
		bounds:  DefaultBounds(),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e
}

// Reset returns the vehicle to its spawn state and starts a new episode.
func (e *Environment) Reset() physics.DroneState {
	e.engine.Reset(e.spawn)
	e.actions.Reset()
	e.done = false
	e.steps = 0
	e.episodeR = 0
	return e.spawn
}

// Step applies the latest buffered action for dt seconds.
//
// Rejected inputs leave the episode untouched and return the engine error.
// A non-finite result or a degenerate orientation ends the episode; the
// returned Transition is marked done and the error is returned alongside it.
func (e *Environment) Step(dt float64) (Transition, error) {
	if e.done {
		return Transition{State: e.engine.State(), Done: true, Step: e.steps}, ErrEpisodeDone
	}

	err := e.engine.ApplyControl(e.actions.Latest().RPM(), dt)
	switch {
	case err == nil:
	case errors.Is(err, physics.ErrNonFiniteState), errors.Is(err, physics.ErrDegenerateOrientation):
		e.done = true
	default:
		return Transition{}, err
	}

	s := e.engine.State()
	e.steps++
	if e.bounds.Exceeded(e.spawn.Position, s) {
		e.done = true
	}

	tr := Transition{
		State:  s,
		Reward: e.reward.Compute(s, e.engine.PrevAction()),
		Done:   e.done,
		Step:   e.steps,
	}
	e.episodeR += tr.Reward

	if e.done {
		e.episode++
		e.logger.Debug("episode finished", "episode", e.episode, "steps", e.steps, "return", e.episodeR)
	}
	return tr, err
}

func (e *Environment) Observe() physics.DroneState { return e.engine.State() }
func (e *Environment) Done() bool                  { return e.done }
func (e *Environment) Actions() *ActionBuffer      { return e.actions }
func (e *Environment) Engine() *physics.Engine     { return e.engine }
func (e *Environment) Spawn() physics.DroneState   { return e.spawn }
func (e *Environment) Episodes() int               { return e.episode }
func (e *Environment) Return() float64             { return e.episodeR }

func (e *Environment) Spaces() (observation, action Space) {
	return ObservationSpace(), ActionSpace()
}
