package ode

import "math"

// Tolerance holds per-component absolute and relative tolerances, already
// broadcast to the state dimension.
type Tolerance struct {
	Abs []float64
	Rel []float64
}

// NewTolerance broadcasts the tolerance settings in opts over dimension n.
func NewTolerance(opts *Options, n int) Tolerance {
	tol := Tolerance{
		Abs: make([]float64, n),
		Rel: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		if opts.AbsTolVec != nil {
			tol.Abs[i] = opts.AbsTolVec[i]
		} else {
			tol.Abs[i] = opts.AbsTol
		}
		if opts.RelTolVec != nil {
			tol.Rel[i] = opts.RelTolVec[i]
		} else {
			tol.Rel[i] = opts.RelTol
		}
	}
	return tol
}

// ErrorNorm is the weighted RMS distance between two estimates of the same
// solution value:
//
//	|| (y1-y2) / (atol + rtol*max(|y1|,|y2|)) ||_2 / sqrt(n)
//
// A value <= 1 means the difference is within tolerance.
func (tol Tolerance) ErrorNorm(y1, y2 State) float64 {
	n := len(y1)
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		scale := tol.Abs[i] + tol.Rel[i]*math.Max(math.Abs(y1[i]), math.Abs(y2[i]))
		d := (y1[i] - y2[i]) / scale
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}
