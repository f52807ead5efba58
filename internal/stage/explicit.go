package stage

import "github.com/parex-ode/parex/internal/ode"

// explicitMidpoint is the Gragg leapfrog scheme: one Euler starter substep,
// then midpoint substeps reusing the previous-previous grid value. Its
// error expansion is in powers of h^2, which the table builder exploits.
type explicitMidpoint struct{}

func (explicitMidpoint) Method() ode.Method { return ode.Midpoint }

func (explicitMidpoint) Step(req Request) (Result, error) {
	n := req.N
	hs := req.H / float64(n)
	res := Result{N: n}

	grid := make([]ode.State, n+2)
	deriv := make([]ode.State, n+1)

	grid[0] = req.Y.Clone()
	f := req.RHS(req.T, grid[0])
	res.Evals++
	if err := checkDim(req.Y, f); err != nil {
		return res, err
	}
	deriv[0] = f
	grid[1] = grid[0].AddScaled(hs, f)

	for m := 2; m <= n; m++ {
		f = req.RHS(req.T+float64(m-1)*hs, grid[m-1])
		res.Evals++
		deriv[m-1] = f
		grid[m] = grid[m-2].AddScaled(2*hs, f)
	}

	res.Final = grid[n]

	if req.Smoothing == ode.GraggSmoothing || req.Smoothing == ode.StabilizedSmoothing {
		// One leapfrog substep beyond t+h; the weighted average of the
		// last three grid points cancels the offset and damps the weak
		// instability of the midpoint rule.
		fEnd := req.RHS(req.T+req.H, grid[n])
		res.Evals++
		deriv[n] = fEnd
		grid[n+1] = grid[n-1].AddScaled(2*hs, fEnd)
		switch req.Smoothing {
		case ode.GraggSmoothing:
			res.Final = smooth(grid[n-1], grid[n], grid[n+1], 0.25, 0.5, 0.25)
		case ode.StabilizedSmoothing:
			res.Final = smooth(grid[n-1], grid[n], grid[n+1], 0.5, 0, 0.5)
		}
	}

	if req.NeedDense {
		if deriv[n] == nil {
			deriv[n] = req.RHS(req.T+req.H, grid[n])
			res.Evals++
		}
		res.Grid = grid[:n+1]
		res.Deriv = deriv
		if n%2 == 0 {
			res.Mid = grid[n/2]
		}
	}
	return res, nil
}

func smooth(a, b, c ode.State, wa, wb, wc float64) ode.State {
	out := make(ode.State, len(a))
	for i := range a {
		out[i] = wa*a[i] + wb*b[i] + wc*c[i]
	}
	return out
}

// explicitEuler advances with plain forward Euler substeps. Error expansion
// in powers of h, so extrapolation gains one order per column.
type explicitEuler struct{}

func (explicitEuler) Method() ode.Method { return ode.Euler }

func (explicitEuler) Step(req Request) (Result, error) {
	n := req.N
	hs := req.H / float64(n)
	res := Result{N: n}

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
		grid[m+1] = grid[m].AddScaled(hs, f)
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
