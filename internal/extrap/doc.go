// Package extrap implements the parallel Gragg-Bulirsch-Stoer solver: the
// extrapolation table with its load-balanced parallel first column, the
// order/step controller, the dense-output interpolants, and the step driver
// behind [Integrate].
//
// One step proceeds as table build (parallel fan-out over a fixed worker
// pool, join barrier) -> order/step decision -> optional dense-output
// interpolation -> accept or reject. Steps are strictly sequential; only
// the stage computations inside a single table build run concurrently.
package extrap
