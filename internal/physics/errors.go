package physics

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized indicates ApplyControl was called before Init.
	ErrNotInitialized = errors.New("physics: engine not initialized")

	// ErrInvalidTimestep indicates a non-positive or non-finite dt.
	ErrInvalidTimestep = errors.New("physics: timestep must be positive and finite")

	// ErrInvalidAction indicates a NaN or infinite rotor command, or an
	// out-of-range command with clamping disabled.
	ErrInvalidAction = errors.New("physics: invalid rotor command")

	// ErrDegenerateOrientation indicates the integrated quaternion had a
	// near-zero norm. The orientation was reset to identity.
	ErrDegenerateOrientation = errors.New("physics: degenerate orientation quaternion")

	// ErrNonFiniteState indicates the integration step produced NaN or Inf,
	// or a vector whose squared magnitude overflows. The step was discarded.
	ErrNonFiniteState = errors.New("physics: integration produced non-finite state")
)

// StepError wraps an engine error with the step it occurred on.
type StepError struct {
	Step    int
	Dt      float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (dt=%g): %v", e.Step, e.Dt, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
