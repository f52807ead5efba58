// Package stage executes one low-order integration formula over a fixed
// number of substeps, producing the raw first-column entries of the
// extrapolation table together with the fine-grid data dense output needs.
//
// All integrators are stateless between calls and safe to invoke from
// multiple workers concurrently, as long as each call gets its own Request.
package stage

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/parex-ode/parex/internal/ode"
)

// Request describes one stage computation: advance y over [t, t+h] with n
// substeps of the base formula. Y is owned by the caller and never written;
// Jac, when present, is read-only shared state.
type Request struct {
	RHS       ode.Func
	T         float64
	Y         ode.State
	H         float64
	N         int
	Jac       mat.Matrix
	Iterative bool
	NeedDense bool
	Smoothing ode.Smoothing
}

// Result is one row of stage output. Grid and Derivs are populated only
// when the request asked for dense output; Mid only for symmetric methods
// with an even substep count.
type Result struct {
	N     int
	Final ode.State
	Mid   ode.State
	Grid  []ode.State
	Deriv []ode.State

	Evals          int
	DegradedSolves int
}

// Integrator is one member of the extrapolation base-method family.
type Integrator interface {
	Method() ode.Method
	Step(req Request) (Result, error)
}

// New returns the integrator for a validated method name.
func New(method ode.Method) (Integrator, error) {
	switch method {
	case ode.Midpoint:
		return &explicitMidpoint{}, nil
	case ode.Euler:
		return &explicitEuler{}, nil
	case ode.ImplicitMidpoint:
		return &implicit{method: ode.ImplicitMidpoint}, nil
	case ode.ImplicitEuler:
		return &implicit{method: ode.ImplicitEuler}, nil
	case ode.SemiImplicitMidpoint:
		return &semiImplicitMidpoint{}, nil
	case ode.SemiImplicitEuler:
		return &semiImplicitEuler{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ode.ErrBadMethod, method)
}

// checkDim verifies the first RHS result against the state dimension.
func checkDim(y ode.State, f ode.State) error {
	if len(f) != len(y) {
		return fmt.Errorf("%w: rhs returned %d components for state of %d",
			ode.ErrDimensionMismatch, len(f), len(y))
	}
	return nil
}
