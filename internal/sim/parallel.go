package sim

import (
	"context"
	"math/rand"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/florianHoidn/rl-drone-env/internal/control"
	"github.com/florianHoidn/rl-drone-env/internal/linalg"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

// Ensemble runs independent copies of one scenario concurrently. Every run
// gets its own Engine, controller and metrics, and an initial state
// perturbed with Gaussian noise seeded by SeedStart + run index.
type Ensemble struct {
	Spec          *vehicle.Spec
	NewController func() (control.Controller, error)
	NewMetrics    func() []Metric

	NumRuns   int
	SeedStart int64

	// Standard deviations of the initial perturbation.
	PositionNoise float64
	RateNoise     float64

	Logger *log.Logger
}

func NewEnsemble(spec *vehicle.Spec, newController func() (control.Controller, error), numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		Spec:          spec,
		NewController: newController,
		NumRuns:       numRuns,
		SeedStart:     seedStart,
		Logger:        log.Default(),
	}
}

// Perturb returns x0 with noise drawn from rng added to position and
// angular velocity.
func (e *Ensemble) Perturb(x0 physics.DroneState, rng *rand.Rand) physics.DroneState {
	x := x0
	x.Position.AddInPlace(linalg.Vec3{
		X: rng.NormFloat64() * e.PositionNoise,
		Y: rng.NormFloat64() * e.PositionNoise,
		Z: rng.NormFloat64() * e.PositionNoise,
	})
	x.AngularVelocity.AddInPlace(linalg.Vec3{
		X: rng.NormFloat64() * e.RateNoise,
		Y: rng.NormFloat64() * e.RateNoise,
		Z: rng.NormFloat64() * e.RateNoise,
	})
	return x
}

func (e *Ensemble) Run(ctx context.Context, x0 physics.DroneState, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.NumRuns)
	errs := make([]error, e.NumRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.NumRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.Seed = e.SeedStart + int64(idx)

			ctrl, err := e.NewController()
			if err != nil {
				errs[idx] = err
				return
			}

			sim := New(physics.NewEngine(e.Spec), ctrl)
			if e.Logger != nil {
				sim.SetLogger(e.Logger.With("run", idx))
			}
			if e.NewMetrics != nil {
				for _, m := range e.NewMetrics() {
					sim.AddMetric(m)
				}
			}

			rng := rand.New(rand.NewSource(cfgCopy.Seed))
			results[idx], errs[idx] = sim.Run(ctx, e.Perturb(x0, rng), cfgCopy)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
