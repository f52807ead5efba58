package extrap

import (
	"math"

	"github.com/parex-ode/parex/internal/ode"
)

const (
	// order window in adaptive-order mode
	orderMin = 3
	orderMax = 10

	stepSafety  = 0.94
	errTarget   = 0.65
	workFactor  = 0.9
	tinyErr     = 1e-16
	interpLimit = 10.0
)

// decision is the controller's verdict on one attempted step.
type decision struct {
	Accept bool
	Y      ode.State // accepted solution, nil on reject
	NextH  float64
	NextK  int
}

// controller implements the order/step co-adaptation heuristic: local
// error norms at orders k-2, k-1, k, candidate step sizes from the
// per-order error model, and work-per-unit-step comparison with a
// hysteresis factor so the order does not oscillate.
type controller struct {
	tol         ode.Tolerance
	workers     int
	jacOverhead int // extra per-step cost charged when a Jacobian is in play
}

// errAt is the local error norm of order j, the normalized distance
// between the last two entries of row j. Orders without an embedded lower
// estimate report +Inf so their work estimate never wins.
func (c *controller) errAt(tb *Table, j int) float64 {
	if j < 2 || j > tb.K {
		return math.Inf(1)
	}
	return c.tol.ErrorNorm(tb.T[j][j-1], tb.T[j][j])
}

// stepFor is the candidate step size at order j given its error norm:
// h * 0.94 * (0.65/err)^(1/(2j-1)).
func stepFor(h float64, j int, err float64) float64 {
	if err < tinyErr {
		err = tinyErr
	}
	return h * stepSafety * math.Pow(errTarget/err, 1/float64(2*j-1))
}

// workAt approximates the cost of one step at order j as
// 2*max(seq(j), sum/workers) plus the Jacobian overhead: the makespan
// floor set by the largest stage, or the evenly divided total, whichever
// is larger.
func (c *controller) workAt(seq ode.Sequence, j int) float64 {
	sum := 0
	for i := 1; i <= j; i++ {
		sum += seq(i)
	}
	a := 2 * math.Max(float64(seq(j)), float64(sum)/float64(c.workers))
	return a + float64(c.jacOverhead)
}

// evaluate runs the three-order decision table for adaptive-order mode.
func (c *controller) evaluate(tb *Table, h float64, k int) decision {
	errK2 := c.errAt(tb, k-2)
	errK1 := c.errAt(tb, k-1)
	errK := c.errAt(tb, k)

	hK2 := stepFor(h, k-2, errK2)
	hK1 := stepFor(h, k-1, errK1)
	hK := stepFor(h, k, errK)

	aK1 := c.workAt(tb.Seq, k-1)
	aK := c.workAt(tb.Seq, k)
	wK2 := c.workAt(tb.Seq, k-2) / hK2
	wK1 := aK1 / hK1
	wK := aK / hK

	var d decision
	switch {
	case errK1 <= 1:
		// convergence in line k-1
		d.Accept = true
		if errK <= 1 {
			d.Y = tb.T[k][k]
		} else {
			d.Y = tb.T[k-1][k-1]
		}
		if wK1 < workFactor*wK2 {
			d.NextK = k
			d.NextH = hK1 * aK / aK1
		} else {
			d.NextK = k - 1
			d.NextH = hK1
		}

	case errK <= 1:
		// convergence in line k
		d.Accept = true
		d.Y = tb.T[k][k]
		switch {
		case wK1 < workFactor*wK:
			d.NextK = k - 1
			d.NextH = hK1
		case wK < workFactor*wK1:
			d.NextK = k + 1
			d.NextH = hK * c.workAt(tb.Seq, k+1) / aK
		default:
			d.NextK = k
			d.NextH = hK
		}

	default:
		// no convergence: retry with the cheaper of k-1 and k
		d.Accept = false
		if wK1 < workFactor*wK {
			d.NextK = k - 1
			d.NextH = math.Min(hK1, h)
		} else {
			d.NextK = k
			d.NextH = math.Min(hK, h)
		}
	}

	d.NextK = clampOrder(d.NextK)
	return d
}

// fixedOrder is the adaptive-step decision at a fixed order: compare the
// last two diagonal entries and rescale the step only.
func (c *controller) fixedOrder(tb *Table, h float64, k int) decision {
	err := c.tol.ErrorNorm(tb.T[k][k], tb.T[k-1][k-1])
	d := decision{
		Accept: err <= 1,
		NextH:  stepFor(h, k, err),
		NextK:  k,
	}
	if d.Accept {
		d.Y = tb.T[k][k]
	} else if d.NextH > h {
		d.NextH = h
	}
	return d
}

func clampOrder(k int) int {
	if k < orderMin {
		return orderMin
	}
	if k > orderMax {
		return orderMax
	}
	return k
}
