package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/florianHoidn/rl-drone-env/internal/config"
	"github.com/florianHoidn/rl-drone-env/internal/control"
	"github.com/florianHoidn/rl-drone-env/internal/dynamo"
	"github.com/florianHoidn/rl-drone-env/internal/env"
	"github.com/florianHoidn/rl-drone-env/internal/integrators"
	"github.com/florianHoidn/rl-drone-env/internal/metrics"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/sim"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

// StabilityThreshold is the tilt in radians above which a step counts as
// unstable.
const StabilityThreshold = math.Pi / 6

type ControllerFactory func(spec *vehicle.Spec, cfg *config.Config) (control.Controller, error)

type Registry struct {
	integrators map[string]func() dynamo.Integrator
	controllers map[string]ControllerFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		controllers: make(map[string]ControllerFactory),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	r.controllers["none"] = func(*vehicle.Spec, *config.Config) (control.Controller, error) {
		return control.NewNone(), nil
	}
	r.controllers["hover"] = func(spec *vehicle.Spec, _ *config.Config) (control.Controller, error) {
		return control.NewHover(spec), nil
	}
	r.controllers["constant"] = func(_ *vehicle.Spec, cfg *config.Config) (control.Controller, error) {
		return control.NewConstant(physics.Uniform(cfg.ControllerParams.RPM)), nil
	}
	r.controllers["altitude_hold"] = func(spec *vehicle.Spec, cfg *config.Config) (control.Controller, error) {
		h, err := control.NewAltitudeHold(spec, cfg.ControllerParams.TargetZ)
		if err != nil {
			return nil, err
		}
		for name, v := range cfg.Params() {
			if err := h.SetParam(name, v); err != nil {
				return nil, err
			}
		}
		return h, nil
	}
	r.controllers["linear_hover"] = func(spec *vehicle.Spec, cfg *config.Config) (control.Controller, error) {
		f, err := control.NewLinearHover(spec, cfg.ControllerParams.TargetZ)
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	return r
}

// RegisterController adds or replaces a controller factory.
func (r *Registry) RegisterController(name string, fn ControllerFactory) {
	r.controllers[name] = fn
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, spec *vehicle.Spec, cfg *config.Config) (control.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(spec, cfg)
}

func (r *Registry) ListControllers() []string { return sortedKeys(r.controllers) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }

// DefaultMetrics returns a fresh metric set for one run of cfg.
func (r *Registry) DefaultMetrics(spec *vehicle.Spec, cfg *config.Config) []sim.Metric {
	model := physics.NewModel(spec)
	return []sim.Metric{
		metrics.NewEnergy(&model),
		metrics.NewEnergyDrift(&model),
		metrics.NewStability(StabilityThreshold),
		metrics.NewControlEffort(spec.HoverRPM()),
		metrics.NewAltitudeError(cfg.ControllerParams.TargetZ),
		metrics.NewReturn(env.NewReward(cfg.InitialState().Position)),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
