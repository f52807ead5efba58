package problems

import (
	"gonum.org/v1/gonum/mat"

	"github.com/parex-ode/parex/internal/ode"
)

// Decay is scalar linear decay y' = -y, y(0) = 1, with the exact solution
// e^{-t}. Useful for convergence checks.
func Decay() Problem {
	return Problem{
		Name: "decay",
		Desc: "linear decay y' = -y",
		Dim:  1,
		RHS: func(t float64, y ode.State) ode.State {
			return ode.State{-y[0]}
		},
		Jac: func(t float64, y ode.State) mat.Matrix {
			return mat.NewDense(1, 1, []float64{-1})
		},
		Y0:    ode.State{1},
		TSpan: [2]float64{0, 5},
	}
}
