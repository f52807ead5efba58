package ode

import (
	"errors"
	"fmt"
)

// Configuration and runtime errors surfaced to callers.
var (
	// ErrTooFewTimes indicates an output time array with fewer than 2 entries.
	ErrTooFewTimes = errors.New("ode: need at least two output times")

	// ErrUnorderedTimes indicates output times that are not strictly increasing.
	ErrUnorderedTimes = errors.New("ode: output times must be strictly increasing")

	// ErrBadAdaptivity indicates an unrecognized adaptivity mode.
	ErrBadAdaptivity = errors.New("ode: unknown adaptivity mode")

	// ErrBadMethod indicates an unrecognized stage method name.
	ErrBadMethod = errors.New("ode: unknown stage method")

	// ErrDimensionMismatch indicates an RHS or Jacobian result whose
	// dimension disagrees with the state vector.
	ErrDimensionMismatch = errors.New("ode: dimension mismatch")

	// ErrTooManySteps indicates the accepted+rejected step count exceeded
	// the configured maximum. Returned wrapped in a TooManyStepsError.
	ErrTooManySteps = errors.New("ode: maximum step count exceeded")
)

// TooManyStepsError reports a runaway integration together with the time
// the solver reached, so the caller can diagnose stiffness or a tolerance
// misconfiguration.
type TooManyStepsError struct {
	TimeReached float64
	MaxSteps    int
}

func (e *TooManyStepsError) Error() string {
	return fmt.Sprintf("ode: exceeded %d steps, reached t=%g", e.MaxSteps, e.TimeReached)
}

func (e *TooManyStepsError) Unwrap() error {
	return ErrTooManySteps
}
