package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned before the first step for unusable run
	// parameters.
	ErrInvalidConfig = errors.New("sim: invalid configuration")

	// ErrUnstable indicates a particle position or velocity became NaN or Inf.
	ErrUnstable = errors.New("sim: simulation unstable (state diverged)")

	// ErrCheckpointMismatch indicates a checkpoint that does not fit the
	// simulator it is restored into.
	ErrCheckpointMismatch = errors.New("sim: checkpoint does not match simulator")
)

// SimulationError wraps an error with the step at which it happened.
type SimulationError struct {
	Step    int64
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
