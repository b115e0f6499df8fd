package pid

import "errors"

var (
	// ErrInvalidDt reports a tick whose dt was zero, negative, NaN or Inf.
	// The tick still produced a proportional-only output.
	ErrInvalidDt = errors.New("pid: non-positive or non-finite dt")

	// ErrNonFinite reports an output that is NaN or Inf.
	ErrNonFinite = errors.New("pid: non-finite output")

	ErrUnknownParam  = errors.New("pid: unknown parameter")
	ErrNonFiniteGain = errors.New("pid: gain must be finite")
)
