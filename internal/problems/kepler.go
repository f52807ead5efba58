package problems

import (
	"math"

	"github.com/parex-ode/parex/internal/ode"
)

// Kepler is the planar two-body problem in Cartesian coordinates,
// state [x, y, vx, vy], started on an orbit of eccentricity e. The period
// is 2*pi, so integrating over [0, 2*pi] must return to the initial state.
func Kepler(e float64) Problem {
	return Problem{
		Name: "kepler",
		Desc: "planar two-body orbit",
		Dim:  4,
		RHS: func(t float64, y ode.State) ode.State {
			r := math.Hypot(y[0], y[1])
			r3 := r * r * r
			return ode.State{
				y[2],
				y[3],
				-y[0] / r3,
				-y[1] / r3,
			}
		},
		Y0:    ode.State{1 - e, 0, 0, math.Sqrt((1 + e) / (1 - e))},
		TSpan: [2]float64{0, 2 * math.Pi},
	}
}

// KeplerEnergy is the conserved total energy of the Kepler problem, handy
// for drift checks on long integrations.
func KeplerEnergy(y ode.State) float64 {
	r := math.Hypot(y[0], y[1])
	return 0.5*(y[2]*y[2]+y[3]*y[3]) - 1/r
}
