package linsolve

import (
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// System solves (I - gamma*J) x = b for the gamma it was built with.
// Solve reports false when only a degraded (non-converged) solution is
// available; the returned vector is still the best approximation found.
type System interface {
	Solve(b []float64) ([]float64, bool)
}

// New builds a solver for (I - gamma*J). CSR Jacobians keep their sparsity
// and always solve iteratively; dense Jacobians are LU-factored unless
// iterative solving is forced.
func New(jac mat.Matrix, gamma float64, iterative bool) System {
	if csr, ok := jac.(*sparse.CSR); ok {
		return newIterative(shiftSparse(csr, gamma))
	}
	shifted := shiftDense(jac, gamma)
	if iterative {
		return newIterative(shifted)
	}
	return newDirect(shifted)
}

// shiftDense forms I - gamma*J as a dense matrix.
func shiftDense(jac mat.Matrix, gamma float64) *mat.Dense {
	n, _ := jac.Dims()
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -gamma * jac.At(i, j)
			if i == j {
				v++
			}
			m.Set(i, j, v)
		}
	}
	return m
}

// shiftSparse forms I - gamma*J without densifying.
func shiftSparse(jac *sparse.CSR, gamma float64) *sparse.CSR {
	n, _ := jac.Dims()
	dok := sparse.NewDOK(n, n)
	for i := 0; i < n; i++ {
		dok.Set(i, i, 1.0)
	}
	jac.DoNonZero(func(i, j int, v float64) {
		dok.Set(i, j, dok.At(i, j)-gamma*v)
	})
	return dok.ToCSR()
}

type direct struct {
	lu *mat.LU
	n  int
}

func newDirect(a *mat.Dense) *direct {
	var lu mat.LU
	lu.Factorize(a)
	n, _ := a.Dims()
	return &direct{lu: &lu, n: n}
}

func (d *direct) Solve(b []float64) ([]float64, bool) {
	var x mat.VecDense
	if err := d.lu.SolveVecTo(&x, false, mat.NewVecDense(d.n, b)); err != nil {
		// Singular to working precision; fall back to the unsolved RHS so
		// the stage can proceed in degraded mode.
		out := make([]float64, d.n)
		copy(out, b)
		return out, false
	}
	out := make([]float64, d.n)
	copy(out, x.RawVector().Data)
	return out, true
}
