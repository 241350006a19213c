package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/florianHoidn/rl-drone-env/internal/control"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
)

// Simulator drives one Engine with a Controller at a fixed tick.
type Simulator struct {
	engine     *physics.Engine
	controller control.Controller
	metrics    []Metric
	observers  []Observer
	logger     *log.Logger
}

func New(engine *physics.Engine, controller control.Controller) *Simulator {
	return &Simulator{
		engine:     engine,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		logger:     log.Default(),
	}
}

func (s *Simulator) AddMetric(m Metric)             { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)         { s.observers = append(s.observers, o) }
func (s *Simulator) SetLogger(l *log.Logger)        { s.logger = l }
func (s *Simulator) Engine() *physics.Engine        { return s.engine }
func (s *Simulator) Controller() control.Controller { return s.controller }

// Run resets the engine to x0 and steps it for cfg.Duration.
//
// A cancelled context returns the partial result together with ctx.Err().
// Engine errors are collected in Result.Errors as SimError; a degenerate
// orientation is recorded and the run continues, any other engine error ends
// the run.
func (s *Simulator) Run(ctx context.Context, x0 physics.DroneState, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration/cfg.Dt + 1e-9)
	result := &Result{
		States:  make([]physics.DroneState, 0, steps+1),
		Actions: make([]physics.ControlAction, 0, steps),
		Times:   make([]float64, 0, steps+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	if r, ok := s.controller.(control.Resetter); ok {
		r.Reset()
	}
	s.engine.Reset(x0)

	x := x0
	t := 0.0
	result.States = append(result.States, x)
	result.Times = append(result.Times, t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		u := s.controller.Compute(x, t)

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		if err := s.engine.ApplyControl(u, cfg.Dt); err != nil {
			result.Errors = append(result.Errors, SimError{Time: t, Step: i, Err: err})
			if !errors.Is(err, physics.ErrDegenerateOrientation) {
				s.logger.Warn("simulation stopped", "step", i, "t", t, "err", err)
				break
			}
			s.logger.Debug("orientation reset to identity", "step", i, "t", t)
		}

		x = s.engine.State()
		t += cfg.Dt
		result.StepsTaken++

		result.States = append(result.States, x)
		result.Actions = append(result.Actions, s.engine.PrevAction())
		result.Times = append(result.Times, t)

		if cfg.Terminate != nil && cfg.Terminate(x) {
			result.Terminated = true
			s.logger.Debug("terminated", "step", i, "t", t)
			break
		}
	}

	s.collect(result)
	return result, nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Dt > cfg.Duration {
		return fmt.Errorf("%w: dt %f exceeds duration %f", ErrInvalidConfig, cfg.Dt, cfg.Duration)
	}
	return nil
}

var ErrInvalidConfig = errors.New("sim: invalid configuration")
