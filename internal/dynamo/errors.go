package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for loop runs.
var (
	// ErrInvalidState indicates a plant state containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the plant diverged past the configured bound.
	ErrUnstable = errors.New("dynamo: loop unstable (state diverged)")

	// ErrInvalidConfig indicates a run configuration that cannot be executed.
	ErrInvalidConfig = errors.New("dynamo: invalid loop configuration")
)

// LoopError wraps an error with the tick it happened on.
type LoopError struct {
	Tick    int
	Time    float64
	Wrapped error
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("tick %d (t=%.4f): %v", e.Tick, e.Time, e.Wrapped)
}

func (e *LoopError) Unwrap() error {
	return e.Wrapped
}
