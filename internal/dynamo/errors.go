package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for world operations.
var (
	// ErrInvalidHandle indicates a handle that is stale, destroyed or was never issued.
	ErrInvalidHandle = errors.New("dynamo: invalid handle")

	// ErrInvalidParameter indicates a rejected input such as a non-positive
	// time step, a negative radius or a non-finite vector.
	ErrInvalidParameter = errors.New("dynamo: invalid parameter")

	// ErrAllocationFailure indicates the body store cannot hold another body.
	ErrAllocationFailure = errors.New("dynamo: allocation failure")
)

// Invalid wraps ErrInvalidParameter with a description of the offending value.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// StepError wraps an error with the step and simulated time it occurred at.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
