package stage

import (
	"github.com/parex-ode/parex/internal/linsolve"
	"github.com/parex-ode/parex/internal/ode"
)

// semiImplicitEuler takes one linear solve per substep:
//
//	y_{m+1} = y_m + (I - hs*J)^{-1} hs*f(t_m, y_m)
type semiImplicitEuler struct{}

func (semiImplicitEuler) Method() ode.Method { return ode.SemiImplicitEuler }

func (semiImplicitEuler) Step(req Request) (Result, error) {
	n := req.N
	hs := req.H / float64(n)
	res := Result{N: n}

	sys := linsolve.New(req.Jac, hs, req.Iterative)

	grid := make([]ode.State, n+1)
	deriv := make([]ode.State, n+1)
	grid[0] = req.Y.Clone()

	for m := 0; m < n; m++ {
		f := req.RHS(req.T+float64(m)*hs, grid[m])
		res.Evals++
		if m == 0 {
			if err := checkDim(req.Y, f); err != nil {
				return res, err
			}
		}
		deriv[m] = f

		delta, converged := sys.Solve(f.Scale(hs))
		if !converged {
			res.DegradedSolves++
		}
		grid[m+1] = grid[m].Add(delta)
	}

	res.Final = grid[n]
	if req.NeedDense {
		deriv[n] = req.RHS(req.T+req.H, grid[n])
		res.Evals++
		res.Grid = grid
		res.Deriv = deriv
	}
	return res, nil
}

// semiImplicitMidpoint is the Bader-Deuflhard linearly implicit midpoint
// scheme. The increment recursion
//
//	D_0 = (I-hs*J)^{-1} hs*f(t, y_0)
//	D_m = D_{m-1} + 2 (I-hs*J)^{-1} (hs*f(t_m, y_m) - D_{m-1})
//
// ends with a smoothing solve, which is part of the method itself rather
// than an option. Symmetric error expansion like the explicit midpoint.
type semiImplicitMidpoint struct{}

func (semiImplicitMidpoint) Method() ode.Method { return ode.SemiImplicitMidpoint }

func (semiImplicitMidpoint) Step(req Request) (Result, error) {
	n := req.N
	hs := req.H / float64(n)
	res := Result{N: n}

	sys := linsolve.New(req.Jac, hs, req.Iterative)

	grid := make([]ode.State, n+1)
	deriv := make([]ode.State, n+1)
	grid[0] = req.Y.Clone()

	f := req.RHS(req.T, grid[0])
	res.Evals++
	if err := checkDim(req.Y, f); err != nil {
		return res, err
	}
	deriv[0] = f

	sol, converged := sys.Solve(f.Scale(hs))
	if !converged {
		res.DegradedSolves++
	}
	delta := ode.State(sol)
	grid[1] = grid[0].Add(delta)

	for m := 1; m < n; m++ {
		f = req.RHS(req.T+float64(m)*hs, grid[m])
		res.Evals++
		deriv[m] = f

		rhs := f.Scale(hs).Sub(delta)
		corr, ok := sys.Solve(rhs)
		if !ok {
			res.DegradedSolves++
		}
		delta = delta.AddScaled(2, corr)
		grid[m+1] = grid[m].Add(delta)
	}

	// smoothing solve at the far end
	f = req.RHS(req.T+req.H, grid[n])
	res.Evals++
	deriv[n] = f
	corr, ok := sys.Solve(f.Scale(hs).Sub(delta))
	if !ok {
		res.DegradedSolves++
	}
	res.Final = grid[n].Add(corr)

	if req.NeedDense {
		res.Grid = grid
		res.Deriv = deriv
		if n%2 == 0 {
			res.Mid = grid[n/2]
		}
	}
	return res, nil
}
