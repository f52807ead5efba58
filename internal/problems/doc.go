// Package problems provides the built-in initial value problems used by
// the CLI and the benchmark suite.
//
// Each problem bundles a right-hand side with a default initial state,
// a default time span and, where one is worth having, an analytic
// Jacobian:
//
//   - [Decay]: scalar linear decay, the smoke-test problem
//   - [VanDerPol]: stiff limit-cycle oscillator with a dense Jacobian
//   - [LotkaVolterra]: predator-prey cycles
//   - [Lorenz]: butterfly attractor
//   - [Kepler]: planar two-body orbit
//   - [Brusselator]: reaction-diffusion line with a sparse banded Jacobian
//
// Problems are looked up by name through [Get] and enumerated with [List].
package problems
