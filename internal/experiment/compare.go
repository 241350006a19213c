package experiment

import (
	"fmt"
	"time"

	"github.com/florianHoidn/rl-drone-env/internal/dynamo"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

// referenceRefinement is how many engine substeps make up one reference step.
const referenceRefinement = 32

type IntegratorReport struct {
	Name     string
	Steps    int
	MaxError float64
	Elapsed  time.Duration
}

// CompareIntegrators advances x0 under the fixed action u with each named
// integrator and reports the largest component error of the final state
// against the engine run at a step referenceRefinement times smaller.
func (r *Registry) CompareIntegrators(spec *vehicle.Spec, x0 physics.DroneState, u physics.ControlAction, duration, dt float64, names []string) ([]IntegratorReport, error) {
	if !(dt > 0) || !(duration >= dt) {
		return nil, fmt.Errorf("invalid step %g for duration %g", dt, duration)
	}
	steps := int(duration/dt + 1e-9)

	ref := physics.NewEngine(spec, physics.WithActionClamping(false))
	ref.Reset(x0)
	fine := dt / referenceRefinement
	for i := 0; i < steps*referenceRefinement; i++ {
		if err := ref.ApplyControl(u, fine); err != nil {
			return nil, fmt.Errorf("reference: %w", err)
		}
	}
	want := dynamo.State(ref.State().Flatten())

	dyn := physics.NewDynamics(spec)
	ctrl := dynamo.Control(u.Slice())

	reports := make([]IntegratorReport, 0, len(names))
	for _, name := range names {
		integ, err := r.GetIntegrator(name)
		if err != nil {
			return nil, err
		}

		x := dynamo.State(x0.Flatten())
		start := time.Now()
		t := 0.0
		for i := 0; i < steps; i++ {
			x = integ.Step(dyn, x, ctrl, t, dt)
			t += dt
		}
		elapsed := time.Since(start)

		reports = append(reports, IntegratorReport{
			Name:     name,
			Steps:    steps,
			MaxError: x.MaxAbsDiff(want),
			Elapsed:  elapsed,
		})
	}
	return reports, nil
}
