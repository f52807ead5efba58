package extrap

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/parex-ode/parex/internal/jacobian"
	"github.com/parex-ode/parex/internal/ode"
	"github.com/parex-ode/parex/internal/stage"
)

// Integrate solves y' = rhs(t, y) from times[0] to times[len(times)-1] and
// reports the solution at every entry of times. Interior output times are
// served by dense output; the integration grid itself is chosen by the
// step controller. jac may be nil, in which case implicit methods fall
// back to finite differences.
//
// The returned Solution holds one state per output time plus the run
// statistics. On failure the error is one of the ode sentinel errors, a
// *ode.TooManyStepsError, or a dimension mismatch surfaced by the stages.
func Integrate(rhs ode.Func, jac ode.Jacobian, y0 []float64, times []float64, opts ode.Options) (*ode.Solution, error) {
	if len(times) < 2 {
		return nil, ode.ErrTooFewTimes
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, ode.ErrUnorderedTimes
		}
	}
	opts = opts.Sanitized()
	if err := opts.Validate(len(y0)); err != nil {
		return nil, err
	}

	integ, err := stage.New(opts.Method)
	if err != nil {
		return nil, err
	}

	r := &runner{
		rhs:  rhs,
		opts: opts,
		tol:  ode.NewTolerance(&opts, len(y0)),
		b: &builder{
			integ:   integ,
			pool:    newPool(opts.Workers),
			workers: opts.Workers,
		},
	}
	defer r.b.pool.close()

	if opts.Method.Implicit() {
		r.jm = jacobian.NewManager(rhs, jac, opts.UseJacobian, opts.FreezeJacobian)
		r.ctrl = &controller{tol: r.tol, workers: opts.Workers, jacOverhead: len(y0)}
	} else {
		r.ctrl = &controller{tol: r.tol, workers: opts.Workers}
	}

	return r.run(ode.State(y0), times)
}

// runner holds the per-run state of the integration loop.
type runner struct {
	rhs  ode.Func
	opts ode.Options
	tol  ode.Tolerance
	b    *builder
	jm   *jacobian.Manager
	ctrl *controller

	stats ode.Stats
	sumH  float64
	sumK  float64
}

func (r *runner) run(y0 ode.State, times []float64) (*ode.Solution, error) {
	t0 := times[0]
	tf := times[len(times)-1]
	scale := math.Max(1, math.Max(math.Abs(t0), math.Abs(tf)))
	snapTol := 1e-12 * scale

	y := y0.Clone()
	states := make([]ode.State, len(times))
	states[0] = y.Clone()
	outIdx := 1

	k := r.initialOrder()
	h := r.opts.InitialStep
	if h <= 0 {
		if r.opts.Adaptivity == ode.FixedStep {
			h = (tf - t0) / 100
		} else {
			h = r.initialStep(t0, tf, y)
		}
	}

	t := t0
	for outIdx < len(times) {
		if r.stats.AcceptedSteps+r.stats.RejectedSteps >= r.opts.MaxSteps {
			return nil, &ode.TooManyStepsError{TimeReached: t, MaxSteps: r.opts.MaxSteps}
		}
		if t+h >= tf-snapTol {
			h = tf - t
		}
		needDense := times[outIdx] < t+h-snapTol
		seq := ode.SelectSequence(r.opts.Sequence, r.opts.Method, needDense)

		var jacM mat.Matrix
		if r.jm != nil {
			m, jEvals, rhsEvals := r.jm.Current(t, y, nil)
			jacM = m
			r.stats.JacobianEvals += jEvals
			r.stats.TotalEvals += rhsEvals
			r.stats.SequentialEvals += rhsEvals
		}

		tb, bs, err := r.b.build(buildRequest{
			rhs:       r.rhs,
			t:         t,
			y:         y,
			h:         h,
			k:         k,
			seq:       seq,
			jac:       jacM,
			needDense: needDense,
			smoothing: r.opts.Smoothing,
			iterative: r.opts.IterativeSolve,
		})
		if err != nil {
			return nil, err
		}
		r.stats.TotalEvals += bs.totalEvals
		r.stats.SequentialEvals += bs.seqEvals
		r.stats.DegradedSolves += bs.degradedSolves

		d := r.decide(tb, h, k)

		// A NaN proposal means the error model saw overflow or invalid
		// states; retry smaller regardless of the nominal verdict.
		if math.IsNaN(d.NextH) || (d.Y != nil && !d.Y.IsValid()) {
			d = decision{NextH: h / r.opts.Robustness, NextK: k}
		}

		if !d.Accept {
			h = r.reject(d.NextH, h)
			k = d.NextK
			continue
		}

		y1 := d.Y
		t1 := t + h

		if needDense {
			vals, worst := r.interpolate(tb, y, y1, t, t1, h, times, outIdx, snapTol)
			if hNew, rejected := r.rejectInterp(worst, h, k); rejected {
				h = hNew
				continue
			}
			for i, v := range vals {
				states[outIdx+i] = v
			}
			outIdx += len(vals)
		}
		if outIdx < len(times) && times[outIdx] <= t1+snapTol {
			states[outIdx] = y1.Clone()
			outIdx++
		}

		r.stats.AcceptedSteps++
		r.sumH += h
		r.sumK += float64(k)
		t, y = t1, y1
		h = clampRatio(d.NextH, h, r.opts.Robustness)
		k = d.NextK
	}

	if r.stats.AcceptedSteps > 0 {
		r.stats.AvgStepSize = r.sumH / float64(r.stats.AcceptedSteps)
		r.stats.AvgOrder = r.sumK / float64(r.stats.AcceptedSteps)
	}
	out := &ode.Solution{
		Times:  append([]float64(nil), times...),
		States: states,
		Stats:  r.stats,
	}
	return out, nil
}

// decide maps the adaptivity mode to a controller verdict. Fixed mode
// accepts unconditionally at the configured order and step.
func (r *runner) decide(tb *Table, h float64, k int) decision {
	switch r.opts.Adaptivity {
	case ode.FixedStep:
		return decision{Accept: true, Y: tb.Best(), NextH: h, NextK: k}
	case ode.AdaptiveStep:
		return r.ctrl.fixedOrder(tb, h, k)
	default:
		return r.ctrl.evaluate(tb, h, k)
	}
}

// interpolate evaluates the dense interpolant at every pending output time
// strictly inside (t, t1) and returns the values in order together with
// the worst interpolation error norm.
func (r *runner) interpolate(tb *Table, y0, y1 ode.State, t, t1, h float64, times []float64, outIdx int, snapTol float64) ([]ode.State, float64) {
	var f0, f1 ode.State
	if tb.Symmetric {
		f0 = tb.Rows[tb.K].Deriv[0]
		f1 = r.rhs(t1, y1)
		r.stats.TotalEvals++
		r.stats.SequentialEvals++
	}
	ip := newInterpolant(tb, y0, y1, f0, f1, h)

	var vals []ode.State
	worst := 0.0
	for idx := outIdx; idx < len(times) && times[idx] < t1-snapTol; idx++ {
		theta := (times[idx] - t) / h
		hi, lo := ip.eval(theta)
		if e := r.tol.ErrorNorm(hi, lo); e > worst {
			worst = e
		}
		vals = append(vals, hi)
	}
	return vals, worst
}

// rejectInterp discards an otherwise accepted step whose interior
// interpolation error is out of bounds and returns the clamped retry
// step; the order is kept. Fixed-step runs never reject.
func (r *runner) rejectInterp(worst, h float64, k int) (float64, bool) {
	if worst <= interpLimit || r.opts.Adaptivity == ode.FixedStep {
		return h, false
	}
	hNew := h * math.Pow(0.01/worst, 1/float64(2*k-1))
	return r.reject(hNew, h), true
}

// reject books a rejected step and returns the clamped retry step size:
// never larger than the failed step, never smaller than the robustness
// bound.
func (r *runner) reject(next, h float64) float64 {
	r.stats.RejectedSteps++
	if r.jm != nil {
		r.jm.Invalidate()
	}
	if math.IsNaN(next) || next <= 0 {
		next = h / r.opts.Robustness
	} else if next > h {
		next = h
	}
	if floor := h / r.opts.Robustness; next < floor {
		next = floor
	}
	return next
}

func (r *runner) initialOrder() int {
	switch r.opts.Adaptivity {
	case ode.FixedStep:
		return r.opts.Order
	case ode.AdaptiveStep:
		if r.opts.Order < 2 {
			return 2
		}
		return r.opts.Order
	default:
		return clampOrder(r.opts.Order)
	}
}

// initialStep derives a starting step from the scaled magnitudes of y0 and
// f(t0, y0), capped at the full integration span.
func (r *runner) initialStep(t0, tf float64, y ode.State) float64 {
	f := r.rhs(t0, y)
	r.stats.TotalEvals++
	r.stats.SequentialEvals++

	d0, d1 := 0.0, 0.0
	for i := range y {
		sc := r.tol.Abs[i] + r.tol.Rel[i]*math.Abs(y[i])
		d0 += (y[i] / sc) * (y[i] / sc)
		d1 += (f[i] / sc) * (f[i] / sc)
	}
	h := 1e-6
	if d0 > 1e-10 && d1 > 1e-10 {
		h = 0.01 * math.Sqrt(d0/d1)
	}
	if span := tf - t0; h > span {
		h = span
	}
	return h
}

// clampRatio bounds the next step size to within a robustness factor of
// the current one.
func clampRatio(next, h, robustness float64) float64 {
	if next > h*robustness {
		return h * robustness
	}
	if next < h/robustness {
		return h / robustness
	}
	return next
}
