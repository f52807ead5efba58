package ode

import (
	"fmt"
	"runtime"
)

// Adaptivity selects how the driver adapts between steps.
type Adaptivity string

const (
	// AdaptiveOrder adapts both the step size and the extrapolation order.
	AdaptiveOrder Adaptivity = "order"
	// AdaptiveStep adapts the step size at a fixed order.
	AdaptiveStep Adaptivity = "step"
	// FixedStep uses a fixed step size and order; every step is accepted.
	FixedStep Adaptivity = "fixed"
)

func (a Adaptivity) Valid() bool {
	switch a {
	case AdaptiveOrder, AdaptiveStep, FixedStep:
		return true
	}
	return false
}

// Method names the low-order formula the extrapolation is based on.
type Method string

const (
	Midpoint             Method = "midpoint"
	Euler                Method = "euler"
	ImplicitMidpoint     Method = "implicit-midpoint"
	ImplicitEuler        Method = "implicit-euler"
	SemiImplicitMidpoint Method = "semi-implicit-midpoint"
	SemiImplicitEuler    Method = "semi-implicit-euler"
)

func (m Method) Valid() bool {
	switch m {
	case Midpoint, Euler, ImplicitMidpoint, ImplicitEuler,
		SemiImplicitMidpoint, SemiImplicitEuler:
		return true
	}
	return false
}

// Symmetric reports whether the method has an error expansion in powers of
// h^2, which doubles the order gained per extrapolation column.
func (m Method) Symmetric() bool {
	switch m {
	case Midpoint, ImplicitMidpoint, SemiImplicitMidpoint:
		return true
	}
	return false
}

// Implicit reports whether the method consumes a Jacobian.
func (m Method) Implicit() bool {
	return m != Midpoint && m != Euler
}

// Smoothing selects the optional post-processing of the fine-grid solution
// that damps the weak instability of the explicit midpoint rule.
type Smoothing string

const (
	// NoSmoothing leaves the raw endpoint untouched.
	NoSmoothing Smoothing = "none"
	// GraggSmoothing averages 1/4*(y[n-1] + 2*y[n] + y[n+1]); costs one
	// extra substep and RHS evaluation per stage.
	GraggSmoothing Smoothing = "gragg"
	// StabilizedSmoothing averages 1/2*(y[n-1] + y[n+1]).
	StabilizedSmoothing Smoothing = "stabilized"
)

func (s Smoothing) Valid() bool {
	switch s {
	case NoSmoothing, GraggSmoothing, StabilizedSmoothing:
		return true
	}
	return false
}

// Options configures a single integration run. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	// AbsTol and RelTol are scalar tolerances, broadcast over the state.
	AbsTol float64
	RelTol float64
	// AbsTolVec and RelTolVec, when non-nil, override the scalars with
	// per-component tolerances. Their length must match the state dimension.
	AbsTolVec []float64
	RelTolVec []float64

	// InitialStep is the first step size (the fixed step size in fixed
	// mode). If <= 0 a guess is derived from y0 and f(t0, y0).
	InitialStep float64

	// MaxSteps bounds accepted+rejected steps before the run fails.
	MaxSteps int

	// Order is the extrapolation order (table rows) in fixed modes, and
	// the starting order when the order is adaptive.
	Order int

	Adaptivity Adaptivity
	Method     Method
	Smoothing  Smoothing

	// Workers sizes the stage worker pool. Defaults to GOMAXPROCS.
	Workers int

	// UseJacobian enables the analytic Jacobian callable when one was
	// passed to Integrate; otherwise finite differences are used.
	UseJacobian bool

	// FreezeJacobian reuses the previous Jacobian across accepted steps,
	// refreshed with a rank-one Broyden update instead of a recompute.
	FreezeJacobian bool

	// IterativeSolve replaces direct LU solves with Gauss-Seidel sweeps.
	// Sparse Jacobians always solve iteratively.
	IterativeSolve bool

	// Robustness clamps the ratio between consecutive step-size proposals.
	// A value of 2 means a step may at most double or halve.
	Robustness float64

	// Sequence overrides the automatic step-number sequence choice.
	Sequence SequenceKind
}

// DefaultOptions returns the options used when the caller has no opinion:
// adaptive order starting at 4, explicit midpoint, tolerances 1e-6.
func DefaultOptions() Options {
	return Options{
		AbsTol:      1e-6,
		RelTol:      1e-6,
		MaxSteps:    100000,
		Order:       4,
		Adaptivity:  AdaptiveOrder,
		Method:      Midpoint,
		Smoothing:   NoSmoothing,
		UseJacobian: true,
		Workers:     runtime.GOMAXPROCS(0),
		Robustness:  2.0,
		Sequence:    SequenceAuto,
	}
}

// Validate checks option consistency against a state of dimension n.
func (o *Options) Validate(n int) error {
	if !o.Adaptivity.Valid() {
		return fmt.Errorf("%w: %q", ErrBadAdaptivity, o.Adaptivity)
	}
	if !o.Method.Valid() {
		return fmt.Errorf("%w: %q", ErrBadMethod, o.Method)
	}
	if !o.Smoothing.Valid() {
		return fmt.Errorf("%w: unknown smoothing %q", ErrBadMethod, o.Smoothing)
	}
	if o.AbsTolVec != nil && len(o.AbsTolVec) != n {
		return fmt.Errorf("%w: AbsTolVec has length %d, state %d", ErrDimensionMismatch, len(o.AbsTolVec), n)
	}
	if o.RelTolVec != nil && len(o.RelTolVec) != n {
		return fmt.Errorf("%w: RelTolVec has length %d, state %d", ErrDimensionMismatch, len(o.RelTolVec), n)
	}
	if o.Order < 1 {
		return fmt.Errorf("ode: order must be >= 1, got %d", o.Order)
	}
	return nil
}

// Sanitized returns a copy with unset fields replaced by defaults.
func (o Options) Sanitized() Options {
	def := DefaultOptions()
	if o.Adaptivity == "" {
		o.Adaptivity = def.Adaptivity
	}
	if o.Method == "" {
		o.Method = def.Method
	}
	if o.Smoothing == "" {
		o.Smoothing = def.Smoothing
	}
	if o.Sequence == "" {
		o.Sequence = def.Sequence
	}
	if o.AbsTol <= 0 && o.AbsTolVec == nil {
		o.AbsTol = def.AbsTol
	}
	if o.RelTol <= 0 && o.RelTolVec == nil {
		o.RelTol = def.RelTol
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = def.MaxSteps
	}
	if o.Order <= 0 {
		o.Order = def.Order
	}
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.Robustness <= 1 {
		o.Robustness = def.Robustness
	}
	return o
}
