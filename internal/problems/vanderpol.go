package problems

import (
	"gonum.org/v1/gonum/mat"

	"github.com/parex-ode/parex/internal/ode"
)

// VanDerPol is the Van der Pol oscillator
//
//	x' = y
//	y' = mu (1 - x^2) y - x
//
// which turns stiff for large mu. The default registry entry uses mu =
// 1000, the classic stiff benchmark setting.
func VanDerPol(mu float64) Problem {
	return Problem{
		Name:  "vanderpol",
		Desc:  "Van der Pol oscillator",
		Dim:   2,
		Stiff: mu > 10,
		RHS: func(t float64, y ode.State) ode.State {
			return ode.State{
				y[1],
				mu*(1-y[0]*y[0])*y[1] - y[0],
			}
		},
		Jac: func(t float64, y ode.State) mat.Matrix {
			return mat.NewDense(2, 2, []float64{
				0, 1,
				-2*mu*y[0]*y[1] - 1, mu * (1 - y[0]*y[0]),
			})
		},
		Y0:    ode.State{2, 0},
		TSpan: [2]float64{0, 2},
	}
}
