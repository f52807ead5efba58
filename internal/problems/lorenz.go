package problems

import "github.com/parex-ode/parex/internal/ode"

// Lorenz is the Lorenz attractor with the canonical sigma=10, rho=28,
// beta=8/3. Chaotic, so long integrations are only trajectory-faithful,
// not pointwise accurate.
func Lorenz() Problem {
	const sigma, rho, beta = 10.0, 28.0, 8.0 / 3.0
	return Problem{
		Name: "lorenz",
		Desc: "Lorenz attractor",
		Dim:  3,
		RHS: func(t float64, y ode.State) ode.State {
			return ode.State{
				sigma * (y[1] - y[0]),
				y[0]*(rho-y[2]) - y[1],
				y[0]*y[1] - beta*y[2],
			}
		},
		Y0:    ode.State{1, 1, 1},
		TSpan: [2]float64{0, 20},
	}
}
