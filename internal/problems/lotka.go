package problems

import (
	"gonum.org/v1/gonum/mat"

	"github.com/parex-ode/parex/internal/ode"
)

// LotkaVolterra is the predator-prey system
//
//	x' = x (a - b y)
//	y' = y (c x - d)
//
// with the textbook parameters a=1.5, b=1, c=1, d=3.
func LotkaVolterra() Problem {
	const a, b, c, d = 1.5, 1.0, 1.0, 3.0
	return Problem{
		Name: "lotka",
		Desc: "Lotka-Volterra predator-prey",
		Dim:  2,
		RHS: func(t float64, y ode.State) ode.State {
			return ode.State{
				y[0] * (a - b*y[1]),
				y[1] * (c*y[0] - d),
			}
		},
		Jac: func(t float64, y ode.State) mat.Matrix {
			return mat.NewDense(2, 2, []float64{
				a - b*y[1], -b * y[0],
				c * y[1], c*y[0] - d,
			})
		},
		Y0:    ode.State{10, 5},
		TSpan: [2]float64{0, 15},
	}
}
