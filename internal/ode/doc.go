// Package ode defines the shared vocabulary of the solver: state vectors,
// right-hand-side and Jacobian callables, solver options, step-number
// sequences, the weighted-RMS error norm, and run statistics.
//
// The central contract is
//
//	y'(t) = f(t, y)
//
// with f supplied as an [Func] and an optional [Jacobian] for the implicit
// and semi-implicit stage methods. All configuration travels through an
// immutable [Options] value; there is no package-level mutable state.
//
// # Errors
//
// Fatal conditions are exposed as package sentinels ([ErrTooFewTimes],
// [ErrBadAdaptivity], ...) plus [TooManyStepsError], which records how far
// the integration got before the step budget ran out.
package ode
