package linsolve

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	maxSweeps = 200
	sweepTol  = 1e-12
)

// iterative runs Gauss-Seidel sweeps on a prepared matrix. The shifted
// systems here are diagonally dominant for the step sizes the solver
// attempts, which is the regime where Gauss-Seidel converges quickly.
type iterative struct {
	a mat.Matrix
	n int
}

func newIterative(a mat.Matrix) *iterative {
	n, _ := a.Dims()
	return &iterative{a: a, n: n}
}

func (it *iterative) Solve(b []float64) ([]float64, bool) {
	x := make([]float64, it.n)
	copy(x, b) // warm start from the RHS; exact when a == I

	for sweep := 0; sweep < maxSweeps; sweep++ {
		maxDelta := 0.0
		for i := 0; i < it.n; i++ {
			sum := b[i]
			for j := 0; j < it.n; j++ {
				if j != i {
					sum -= it.a.At(i, j) * x[j]
				}
			}
			diag := it.a.At(i, i)
			if diag == 0 {
				continue
			}
			next := sum / diag
			if d := math.Abs(next - x[i]); d > maxDelta {
				maxDelta = d
			}
			x[i] = next
		}
		if maxDelta <= sweepTol*(1+norm(x)) {
			return x, true
		}
	}
	return x, false
}

func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
