// Package jacobian supplies the df/dy approximation consumed by the
// implicit and semi-implicit stage methods, either from a caller-provided
// analytic callable or by forward finite differences, with an optional
// freeze policy that carries a Jacobian across accepted steps.
package jacobian

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/parex-ode/parex/internal/ode"
)

const (
	fdEps      = 1.4901161193847656e-08 // sqrt(machine epsilon)
	minPerturb = 1e-5
)

// Manager owns the Jacobian estimate. It is mutated only between steps;
// during a step's parallel phase the matrix it returned is read-only.
type Manager struct {
	rhs         ode.Func
	jac         ode.Jacobian
	useAnalytic bool
	freeze      bool

	cur      mat.Matrix
	lastY    ode.State
	lastF    ode.State
	reusable bool
}

func NewManager(rhs ode.Func, jac ode.Jacobian, useAnalytic, freeze bool) *Manager {
	return &Manager{
		rhs:         rhs,
		jac:         jac,
		useAnalytic: useAnalytic && jac != nil,
		freeze:      freeze,
	}
}

// Current returns the Jacobian for a step starting at (t, y). fy may be
// nil; when given it must equal rhs(t, y) and saves one evaluation in the
// finite-difference path. The returned counts are Jacobian evaluations and
// extra RHS evaluations spent here.
func (m *Manager) Current(t float64, y ode.State, fy ode.State) (mat.Matrix, int, int) {
	if m.freeze && m.reusable && m.cur != nil {
		rhsEvals := 0
		if fy == nil {
			fy = m.rhs(t, y)
			rhsEvals = 1
		}
		m.update(y, fy)
		m.lastY, m.lastF = y.Clone(), fy.Clone()
		return m.cur, 0, rhsEvals
	}

	if m.useAnalytic {
		m.cur = m.jac(t, y)
		m.lastY = y.Clone()
		m.lastF = nil
		m.reusable = true
		return m.cur, 1, 0
	}

	rhsEvals := 0
	if fy == nil {
		fy = m.rhs(t, y)
		rhsEvals++
	}
	m.cur = m.finiteDifference(t, y, fy)
	rhsEvals += len(y)
	m.lastY, m.lastF = y.Clone(), fy.Clone()
	m.reusable = true
	return m.cur, 1, rhsEvals
}

// Invalidate forces a full recompute on the next Current call. The driver
// calls this after a rejected step, where the frozen estimate is suspect.
func (m *Manager) Invalidate() {
	m.reusable = false
}

// finiteDifference estimates J column by column with forward differences.
func (m *Manager) finiteDifference(t float64, y, fy ode.State) *mat.Dense {
	n := len(y)
	j := mat.NewDense(n, n, nil)
	pert := y.Clone()
	for col := 0; col < n; col++ {
		delta := fdEps * math.Max(math.Abs(y[col]), minPerturb)
		pert[col] = y[col] + delta
		fp := m.rhs(t, pert)
		pert[col] = y[col]
		for row := 0; row < n; row++ {
			j.Set(row, col, (fp[row]-fy[row])/delta)
		}
	}
	return j
}

// update applies the rank-one Broyden correction
//
//	J += (df - J*dy) dy^T / (dy^T dy)
//
// to a frozen dense Jacobian. Sparse Jacobians are reused unchanged, since
// the correction would destroy their sparsity.
func (m *Manager) update(y, fy ode.State) {
	dense, ok := m.cur.(*mat.Dense)
	if !ok || m.lastY == nil || m.lastF == nil {
		return
	}
	n := len(y)
	dy := y.Sub(m.lastY)
	df := fy.Sub(m.lastF)

	denom := 0.0
	for i := 0; i < n; i++ {
		denom += dy[i] * dy[i]
	}
	if denom < 1e-30 {
		return
	}

	// residual r = df - J*dy
	r := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := df[i]
		for k := 0; k < n; k++ {
			sum -= dense.At(i, k) * dy[k]
		}
		r[i] = sum
	}
	for i := 0; i < n; i++ {
		scale := r[i] / denom
		for k := 0; k < n; k++ {
			dense.Set(i, k, dense.At(i, k)+scale*dy[k])
		}
	}
}
