package sim

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/florianHoidn/rl-drone-env/internal/control"
	"github.com/florianHoidn/rl-drone-env/internal/linalg"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

func quiet(s *Simulator) *Simulator {
	s.SetLogger(log.New(io.Discard))
	return s
}

func TestSimulatorRun(t *testing.T) {
	sim := quiet(New(physics.NewEngine(vehicle.Crazyflie()), control.NewNone()))

	result, err := sim.Run(context.Background(), physics.DefaultState(), Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if len(result.Times) != 11 || len(result.Actions) != 10 {
		t.Errorf("expected 11 times and 10 actions, got %d and %d", len(result.Times), len(result.Actions))
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}

	z := result.Final().Position.Z
	if math.Abs(z+0.5*9.81) > 1e-9 {
		t.Errorf("expected free fall to z=%.4f, got %.4f", -0.5*9.81, z)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := quiet(New(physics.NewEngine(vehicle.Crazyflie()), control.NewNone()))

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"nan dt", Config{Dt: math.NaN(), Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
		{"dt beyond duration", Config{Dt: 2, Duration: 1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), physics.DefaultState(), tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(s physics.DroneState, a physics.ControlAction, time float64) {
	t.count++
	t.sum += s.Position.Z
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := quiet(New(physics.NewEngine(vehicle.Crazyflie()), control.NewNone()))

	metric := &testMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), physics.DefaultState(), Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
}

func TestSimulatorTerminate(t *testing.T) {
	sim := quiet(New(physics.NewEngine(vehicle.Crazyflie()), control.NewNone()))
	cfg := Config{
		Dt:        0.01,
		Duration:  10,
		Terminate: func(s physics.DroneState) bool { return s.Position.Z < -1 },
	}

	result, err := sim.Run(context.Background(), physics.DefaultState(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Terminated {
		t.Fatal("expected early termination")
	}
	// z = -1 after sqrt(2/9.81) ≈ 0.4515 s
	if result.StepsTaken != 46 {
		t.Errorf("terminated after %d steps, want 46", result.StepsTaken)
	}
}

func TestSimulatorCancelled(t *testing.T) {
	sim := quiet(New(physics.NewEngine(vehicle.Crazyflie()), control.NewNone()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := sim.Run(ctx, physics.DefaultState(), Config{Dt: 0.01, Duration: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || len(result.States) != 1 {
		t.Errorf("expected partial result with the initial state")
	}
}

type nanController struct{}

func (nanController) Compute(s physics.DroneState, t float64) physics.ControlAction {
	if t > 0.05 {
		return physics.Uniform(math.NaN())
	}
	return physics.Uniform(0)
}

func TestSimulatorEngineError(t *testing.T) {
	sim := quiet(New(physics.NewEngine(vehicle.Crazyflie()), nanController{}))

	result, err := sim.Run(context.Background(), physics.DefaultState(), Config{Dt: 0.01, Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one recorded error, got %d", len(result.Errors))
	}
	var se SimError
	if !errors.As(result.Errors[0], &se) || !errors.Is(se, physics.ErrInvalidAction) {
		t.Errorf("expected SimError wrapping ErrInvalidAction, got %v", result.Errors[0])
	}
	if result.StepsTaken != se.Step {
		t.Errorf("run should stop at the failing step: taken %d, failed at %d", result.StepsTaken, se.Step)
	}
}

func TestEnsemble(t *testing.T) {
	spec := vehicle.Crazyflie()
	ens := NewEnsemble(spec, func() (control.Controller, error) {
		return control.NewAltitudeHold(spec, 1)
	}, 4, 42)
	ens.Logger = log.New(io.Discard)
	ens.PositionNoise = 0.1
	ens.RateNoise = 0.5

	x0 := physics.DefaultState()
	x0.Position = linalg.Vec3{Z: 1}
	cfg := Config{Dt: 1.0 / 240, Duration: 1}

	a, err := ens.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ens.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != 4 {
		t.Fatalf("expected 4 results, got %d", len(a))
	}
	for i := range a {
		if a[i].Final() != b[i].Final() {
			t.Errorf("run %d not reproducible for the same seed", i)
		}
		if i > 0 && a[i].States[0] == a[0].States[0] {
			t.Errorf("run %d shares its initial state with run 0", i)
		}
	}
}
