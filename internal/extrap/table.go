package extrap

import (
	"gonum.org/v1/gonum/mat"

	"github.com/parex-ode/parex/internal/ode"
	"github.com/parex-ode/parex/internal/stage"
)

// Table is the lower-triangular extrapolation tableau. T[j][i] for
// 1 <= i <= j <= K; index 0 is unused padding. Column 1 holds the raw
// stage results, column i > 1 is derived purely from column i-1 via the
// Aitken/Neville recurrence.
type Table struct {
	K         int
	Symmetric bool
	Seq       ode.Sequence

	T    [][]ode.State
	Rows []stage.Result // per-row stage data for dense output; index 0 unused
}

// buildRequest carries everything one table build needs. The state vector
// and Jacobian are read-only during the parallel phase.
type buildRequest struct {
	rhs       ode.Func
	t         float64
	y         ode.State
	h         float64
	k         int
	seq       ode.Sequence
	jac       mat.Matrix
	needDense bool
	smoothing ode.Smoothing
	iterative bool
}

type buildStats struct {
	totalEvals     int
	seqEvals       int
	degradedSolves int
}

// builder owns the stage integrator and the worker pool for one run.
type builder struct {
	integ   stage.Integrator
	pool    *pool
	workers int
}

// build computes the full table for order req.k: the first column in
// parallel, one job per worker, then the extrapolation fill.
func (b *builder) build(req buildRequest) (*Table, buildStats, error) {
	k := req.k
	tb := &Table{
		K:         k,
		Symmetric: b.integ.Method().Symmetric(),
		Seq:       req.seq,
		T:         make([][]ode.State, k+1),
		Rows:      make([]stage.Result, k+1),
	}
	for j := 1; j <= k; j++ {
		tb.T[j] = make([]ode.State, k+1)
	}

	jobs := Partition(k, b.workers, req.seq)
	errs := make([]error, len(jobs))
	fns := make([]func(), len(jobs))
	for i, job := range jobs {
		i, job := i, job
		fns[i] = func() {
			for _, row := range job.Rows {
				res, err := b.integ.Step(stage.Request{
					RHS:       req.rhs,
					T:         req.t,
					Y:         req.y, // stage clones before writing
					H:         req.h,
					N:         req.seq(row),
					Jac:       req.jac,
					Iterative: req.iterative,
					NeedDense: req.needDense,
					Smoothing: req.smoothing,
				})
				if err != nil {
					errs[i] = err
					return
				}
				tb.Rows[row] = res
			}
		}
	}
	b.pool.run(fns)

	var stats buildStats
	for i := range jobs {
		if errs[i] != nil {
			return nil, stats, errs[i]
		}
	}

	jobEvals := 0
	for _, job := range jobs {
		evals := 0
		for _, row := range job.Rows {
			evals += tb.Rows[row].Evals
			stats.degradedSolves += tb.Rows[row].DegradedSolves
		}
		stats.totalEvals += evals
		if evals > jobEvals {
			jobEvals = evals
		}
	}
	stats.seqEvals = jobEvals

	for j := 1; j <= k; j++ {
		tb.T[j][1] = tb.Rows[j].Final
	}
	for i := 2; i <= k; i++ {
		for j := i; j <= k; j++ {
			tb.T[j][i] = extrapolate(tb.T[j][i-1], tb.T[j-1][i-1],
				float64(req.seq(j))/float64(req.seq(j-i+1)), tb.Symmetric)
		}
	}
	return tb, stats, nil
}

// extrapolate applies one Aitken/Neville refinement. The denominator is
// ratio^2-1 for methods with an h^2 error expansion, ratio-1 otherwise.
func extrapolate(hi, lo ode.State, ratio float64, symmetric bool) ode.State {
	den := ratio - 1
	if symmetric {
		den = ratio*ratio - 1
	}
	out := make(ode.State, len(hi))
	for c := range hi {
		out[c] = hi[c] + (hi[c]-lo[c])/den
	}
	return out
}

// Best returns T[k][k], the highest-order estimate in the table.
func (tb *Table) Best() ode.State { return tb.T[tb.K][tb.K] }
