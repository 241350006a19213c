package experiment

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/florianHoidn/rl-drone-env/internal/config"
	"github.com/florianHoidn/rl-drone-env/internal/control"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/sim"
	"github.com/florianHoidn/rl-drone-env/internal/storage"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

// Experiment is one configured flight: vehicle, controller, metrics and the
// simulator that ties them together.
type Experiment struct {
	cfg       *config.Config
	reg       *Registry
	spec      *vehicle.Spec
	simulator *sim.Simulator
}

// New validates cfg and assembles the simulator. cfg is copied.
func New(cfg *config.Config, reg *Registry) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	spec, err := cfg.LoadVehicle()
	if err != nil {
		return nil, fmt.Errorf("load vehicle: %w", err)
	}
	ctrl, err := reg.GetController(cfg.Controller, spec, cfg)
	if err != nil {
		return nil, err
	}

	engine := physics.NewEngine(spec, physics.WithActionClamping(cfg.ClampActions))
	s := sim.New(engine, ctrl)
	for _, m := range reg.DefaultMetrics(spec, cfg) {
		s.AddMetric(m)
	}

	return &Experiment{
		cfg:       cfg,
		reg:       reg,
		spec:      spec,
		simulator: s,
	}, nil
}

func (e *Experiment) SetLogger(l *log.Logger) { e.simulator.SetLogger(l) }

func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }
func (e *Experiment) Config() *config.Config    { return e.cfg }
func (e *Experiment) Spec() *vehicle.Spec       { return e.spec }

// SimConfig returns the run parameters of the experiment. The run ends early
// when the vehicle leaves the configured bounds.
func (e *Experiment) SimConfig() sim.Config {
	spawn := e.cfg.InitialState().Position
	bounds := e.cfg.Bounds
	return sim.Config{
		Dt:       e.cfg.Dt,
		Duration: e.cfg.Duration,
		Seed:     e.cfg.Seed,
		Terminate: func(s physics.DroneState) bool {
			return bounds.Exceeded(spawn, s)
		},
	}
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	return e.simulator.Run(ctx, e.cfg.InitialState(), e.SimConfig())
}

// Ensemble returns n perturbed copies of the experiment, seeded from the
// configured seed.
func (e *Experiment) Ensemble(n int, positionNoise, rateNoise float64) *sim.Ensemble {
	ens := sim.NewEnsemble(e.spec, func() (control.Controller, error) {
		return e.reg.GetController(e.cfg.Controller, e.spec, e.cfg)
	}, n, e.cfg.Seed)
	ens.NewMetrics = func() []sim.Metric {
		return e.reg.DefaultMetrics(e.spec, e.cfg)
	}
	ens.PositionNoise = positionNoise
	ens.RateNoise = rateNoise
	return ens
}

// Metadata describes the experiment for storage.Save.
func (e *Experiment) Metadata() storage.RunMetadata {
	name := e.cfg.Name
	if name == "" {
		name = e.cfg.Controller
	}
	return storage.RunMetadata{
		Name:       name,
		Vehicle:    e.cfg.Vehicle,
		Controller: e.cfg.Controller,
		Dt:         e.cfg.Dt,
		Duration:   e.cfg.Duration,
		Seed:       e.cfg.Seed,
	}
}
