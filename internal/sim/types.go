package sim

import (
	"fmt"

	"github.com/florianHoidn/rl-drone-env/internal/physics"
)

type Metric interface {
	Name() string
	Observe(s physics.DroneState, a physics.ControlAction, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s physics.DroneState, a physics.ControlAction, t float64)
}

type Config struct {
	Dt       float64
	Duration float64
	Seed     int64

	// Terminate, when set, is checked after every committed step and ends
	// the run early when it returns true.
	Terminate func(s physics.DroneState) bool
}

type Result struct {
	States     []physics.DroneState
	Actions    []physics.ControlAction
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
	Terminated bool
}

// Final returns the last recorded state.
func (r *Result) Final() physics.DroneState {
	return r.States[len(r.States)-1]
}

// Flat returns every recorded state flattened to StateDim values.
func (r *Result) Flat() [][]float64 {
	out := make([][]float64, len(r.States))
	for i, s := range r.States {
		out[i] = s.Flatten()
	}
	return out
}

// Series returns component idx of every recorded state.
func (r *Result) Series(idx int) []float64 {
	out := make([]float64, len(r.States))
	for i, s := range r.States {
		out[i] = s.Flatten()[idx]
	}
	return out
}

type SimError struct {
	Time float64
	Step int
	Err  error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Err)
}

func (e SimError) Unwrap() error {
	return e.Err
}
