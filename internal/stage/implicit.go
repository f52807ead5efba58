package stage

import (
	"math"

	"github.com/parex-ode/parex/internal/linsolve"
	"github.com/parex-ode/parex/internal/ode"
)

const (
	newtonMaxIter = 7
	newtonTol     = 1e-12
)

// implicit solves the fully implicit Euler or midpoint formula with a
// simplified Newton iteration: the Jacobian is evaluated once at the step
// start, so the shifted matrix (I - gamma*J) is factored once per stage
// and reused across substeps and Newton iterations.
type implicit struct {
	method ode.Method
}

func (im *implicit) Method() ode.Method { return im.method }

func (im *implicit) Step(req Request) (Result, error) {
	n := req.N
	hs := req.H / float64(n)
	res := Result{N: n}

	gamma := hs
	if im.method == ode.ImplicitMidpoint {
		gamma = hs / 2
	}
	sys := linsolve.New(req.Jac, gamma, req.Iterative)

	grid := make([]ode.State, n+1)
	deriv := make([]ode.State, n+1)
	grid[0] = req.Y.Clone()

	if req.NeedDense {
		deriv[0] = req.RHS(req.T, grid[0])
		res.Evals++
		if err := checkDim(req.Y, deriv[0]); err != nil {
			return res, err
		}
	}

	for m := 0; m < n; m++ {
		tNext := req.T + float64(m+1)*hs
		z := grid[m].Clone()

		for iter := 0; iter < newtonMaxIter; iter++ {
			var g ode.State
			switch im.method {
			case ode.ImplicitEuler:
				// g = y_m + hs*f(t_{m+1}, z) - z
				f := req.RHS(tNext, z)
				res.Evals++
				if m == 0 && iter == 0 && !req.NeedDense {
					if err := checkDim(req.Y, f); err != nil {
						return res, err
					}
				}
				g = grid[m].AddScaled(hs, f).Sub(z)
			case ode.ImplicitMidpoint:
				// g = y_m + hs*f(t_m + hs/2, (y_m+z)/2) - z
				mid := grid[m].Add(z).Scale(0.5)
				f := req.RHS(tNext-hs/2, mid)
				res.Evals++
				if m == 0 && iter == 0 && !req.NeedDense {
					if err := checkDim(req.Y, f); err != nil {
						return res, err
					}
				}
				g = grid[m].AddScaled(hs, f).Sub(z)
			}

			delta, converged := sys.Solve(g)
			if !converged {
				res.DegradedSolves++
			}
			for i := range z {
				z[i] += delta[i]
			}
			if stateNorm(delta) <= newtonTol*(1+stateNorm(z)) {
				break
			}
		}
		grid[m+1] = z

		if req.NeedDense {
			deriv[m+1] = req.RHS(tNext, z)
			res.Evals++
		}
	}

	res.Final = grid[n]
	if req.NeedDense {
		res.Grid = grid
		res.Deriv = deriv
		if im.method == ode.ImplicitMidpoint && n%2 == 0 {
			res.Mid = grid[n/2]
		}
	}
	return res, nil
}

func stateNorm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
