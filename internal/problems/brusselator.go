package problems

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/parex-ode/parex/internal/ode"
)

// Brusselator is the 1-D Brusselator reaction-diffusion line discretized
// on n interior grid points, state [u_1..u_n, v_1..v_n]:
//
//	u_i' = A + u_i^2 v_i - (B+1) u_i + alpha/dx^2 (u_{i-1} - 2u_i + u_{i+1})
//	v_i' = B u_i - u_i^2 v_i        + alpha/dx^2 (v_{i-1} - 2v_i + v_{i+1})
//
// with Dirichlet boundaries u = 1, v = 3. The Jacobian is banded, built
// as a CSR matrix so the linear solves go through the iterative path.
func Brusselator(n int) Problem {
	const (
		a     = 1.0
		b     = 3.0
		alpha = 1.0 / 50
	)
	dx := 1.0 / float64(n+1)
	c := alpha / (dx * dx)

	y0 := make(ode.State, 2*n)
	for i := 0; i < n; i++ {
		x := float64(i+1) * dx
		y0[i] = 1 + math.Sin(2*math.Pi*x)
		y0[n+i] = 3
	}

	at := func(y ode.State, i int, boundary float64) float64 {
		if i < 0 || i >= n {
			return boundary
		}
		return y[i]
	}

	return Problem{
		Name:  "brusselator",
		Desc:  fmt.Sprintf("Brusselator reaction-diffusion, %d grid points", n),
		Dim:   2 * n,
		Stiff: true,
		RHS: func(t float64, y ode.State) ode.State {
			out := make(ode.State, 2*n)
			for i := 0; i < n; i++ {
				u, v := y[i], y[n+i]
				um := at(y, i-1, 1)
				up := at(y, i+1, 1)
				vm := at(y[n:], i-1, 3)
				vp := at(y[n:], i+1, 3)
				out[i] = a + u*u*v - (b+1)*u + c*(um-2*u+up)
				out[n+i] = b*u - u*u*v + c*(vm-2*v+vp)
			}
			return out
		},
		Jac: func(t float64, y ode.State) mat.Matrix {
			dok := sparse.NewDOK(2*n, 2*n)
			for i := 0; i < n; i++ {
				u, v := y[i], y[n+i]
				dok.Set(i, i, 2*u*v-(b+1)-2*c)
				dok.Set(i, n+i, u*u)
				dok.Set(n+i, i, b-2*u*v)
				dok.Set(n+i, n+i, -u*u-2*c)
				if i > 0 {
					dok.Set(i, i-1, c)
					dok.Set(n+i, n+i-1, c)
				}
				if i < n-1 {
					dok.Set(i, i+1, c)
					dok.Set(n+i, n+i+1, c)
				}
			}
			return dok.ToCSR()
		},
		Y0:    y0,
		TSpan: [2]float64{0, 10},
	}
}
