// Package linsolve solves the shifted systems (I - gamma*J) x = b required
// by the implicit and semi-implicit stage formulas.
//
// Dense Jacobians are factored once per stage with gonum's LU and solved
// directly. Sparse (CSR) Jacobians, or any Jacobian when iterative solving
// is requested, go through Gauss-Seidel sweeps instead. An iterative solve
// that hits its sweep cap is degraded, not fatal: the best available
// approximation is returned together with a convergence flag so the caller
// can count the event and continue.
package linsolve
