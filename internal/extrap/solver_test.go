package extrap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/parex-ode/parex/internal/ode"
)

func TestIntegrate_ExponentialDecay(t *testing.T) {
	opts := ode.DefaultOptions()
	opts.AbsTol = 1e-10
	opts.RelTol = 1e-10

	sol, err := Integrate(decayRHS, nil, []float64{1}, []float64{0, 1}, opts)
	require.NoError(t, err)

	assert.InDelta(t, math.Exp(-1), sol.Final()[0], 1e-8)
	assert.Positive(t, sol.Stats.AcceptedSteps)
	assert.Positive(t, sol.Stats.SequentialEvals)
	assert.GreaterOrEqual(t, sol.Stats.TotalEvals, sol.Stats.SequentialEvals)
	assert.InDelta(t, sol.Stats.AvgStepSize*float64(sol.Stats.AcceptedSteps), 1.0, 1e-9)
}

func TestIntegrate_FixedStep(t *testing.T) {
	opts := ode.DefaultOptions()
	opts.Adaptivity = ode.FixedStep
	opts.InitialStep = 0.1
	opts.Order = 4

	sol, err := Integrate(decayRHS, nil, []float64{1}, []float64{0, 1}, opts)
	require.NoError(t, err)

	assert.Equal(t, 10, sol.Stats.AcceptedSteps)
	assert.Equal(t, 0, sol.Stats.RejectedSteps)
	assert.InDelta(t, math.Exp(-1), sol.Final()[0], 1e-8)
}

func TestIntegrate_MaxSteps(t *testing.T) {
	opts := ode.DefaultOptions()
	opts.MaxSteps = 1

	_, err := Integrate(decayRHS, nil, []float64{1}, []float64{0, 1}, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ode.ErrTooManySteps)

	var tms *ode.TooManyStepsError
	require.ErrorAs(t, err, &tms)
	assert.Equal(t, 1, tms.MaxSteps)
	assert.Less(t, tms.TimeReached, 1.0)
}

func TestIntegrate_InputValidation(t *testing.T) {
	opts := ode.DefaultOptions()

	_, err := Integrate(decayRHS, nil, []float64{1}, []float64{0}, opts)
	assert.ErrorIs(t, err, ode.ErrTooFewTimes)

	_, err = Integrate(decayRHS, nil, []float64{1}, []float64{0, 1, 0.5}, opts)
	assert.ErrorIs(t, err, ode.ErrUnorderedTimes)

	bad := opts
	bad.Method = "runge-kutta"
	_, err = Integrate(decayRHS, nil, []float64{1}, []float64{0, 1}, bad)
	assert.ErrorIs(t, err, ode.ErrBadMethod)
}

func TestIntegrate_DenseOutput(t *testing.T) {
	opts := ode.DefaultOptions()
	opts.AbsTol = 1e-8
	opts.RelTol = 1e-8

	times := []float64{0, 0.25, 0.5, 0.75, 1}
	sol, err := Integrate(decayRHS, nil, []float64{1}, times, opts)
	require.NoError(t, err)

	require.Len(t, sol.States, len(times))
	for i, tv := range times {
		assert.InDelta(t, math.Exp(-tv), sol.At(i)[0], 1e-6, "t=%g", tv)
	}
}

func TestIntegrate_Oscillator(t *testing.T) {
	rhs := func(t float64, y ode.State) ode.State {
		return ode.State{y[1], -y[0]}
	}
	opts := ode.DefaultOptions()
	opts.AbsTol = 1e-9
	opts.RelTol = 1e-9

	times := []float64{0, math.Pi / 2, math.Pi}
	sol, err := Integrate(rhs, nil, []float64{1, 0}, times, opts)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, sol.At(1)[0], 1e-6)
	assert.InDelta(t, -1.0, sol.At(1)[1], 1e-6)
	assert.InDelta(t, -1.0, sol.Final()[0], 1e-6)
	assert.InDelta(t, 0.0, sol.Final()[1], 1e-6)
}

func TestIntegrate_StiffImplicit(t *testing.T) {
	rhs := func(t float64, y ode.State) ode.State {
		return ode.State{-50 * y[0]}
	}
	jac := func(t float64, y ode.State) mat.Matrix {
		return mat.NewDense(1, 1, []float64{-50})
	}
	opts := ode.DefaultOptions()
	opts.Method = ode.ImplicitEuler

	sol, err := Integrate(rhs, jac, []float64{1}, []float64{0, 1}, opts)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, sol.Final()[0], 1e-4)
	assert.Positive(t, sol.Stats.JacobianEvals)
}

func TestIntegrate_AdaptiveStepMode(t *testing.T) {
	opts := ode.DefaultOptions()
	opts.Adaptivity = ode.AdaptiveStep
	opts.Order = 4
	opts.AbsTol = 1e-8
	opts.RelTol = 1e-8

	sol, err := Integrate(decayRHS, nil, []float64{1}, []float64{0, 1}, opts)
	require.NoError(t, err)

	assert.InDelta(t, math.Exp(-1), sol.Final()[0], 1e-6)
	// fixed order: every accepted step used order 4
	assert.InDelta(t, 4.0, sol.Stats.AvgOrder, 1e-12)
}

func TestIntegrate_WorkerCountDoesNotChangeResult(t *testing.T) {
	opts := ode.DefaultOptions()
	opts.Workers = 1
	one, err := Integrate(decayRHS, nil, []float64{1}, []float64{0, 1}, opts)
	require.NoError(t, err)

	opts.Workers = 4
	four, err := Integrate(decayRHS, nil, []float64{1}, []float64{0, 1}, opts)
	require.NoError(t, err)

	assert.Equal(t, one.Final()[0], four.Final()[0])
	assert.Equal(t, one.Stats.AcceptedSteps, four.Stats.AcceptedSteps)
	assert.Equal(t, one.Stats.TotalEvals, four.Stats.TotalEvals)
	assert.LessOrEqual(t, four.Stats.SequentialEvals, one.Stats.SequentialEvals)
}

func TestIntegrate_SemiImplicit(t *testing.T) {
	opts := ode.DefaultOptions()
	opts.Method = ode.SemiImplicitMidpoint

	sol, err := Integrate(decayRHS, nil, []float64{1}, []float64{0, 1}, opts)
	require.NoError(t, err)

	assert.InDelta(t, math.Exp(-1), sol.Final()[0], 1e-4)
	// finite differences, since no analytic Jacobian was supplied
	assert.Positive(t, sol.Stats.JacobianEvals)
}

func TestIntegrate_InvalidStatesForceRejection(t *testing.T) {
	// An RHS that only produces NaN can never yield an acceptable step:
	// every attempt must be booked as a rejection at t0 until the step
	// budget runs out, never accepted into the output.
	nan := func(t float64, y ode.State) ode.State {
		return ode.State{math.NaN()}
	}
	opts := ode.DefaultOptions()
	opts.InitialStep = 0.1
	opts.MaxSteps = 6

	_, err := Integrate(nan, nil, []float64{1}, []float64{0, 1}, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ode.ErrTooManySteps)

	var tms *ode.TooManyStepsError
	require.ErrorAs(t, err, &tms)
	assert.Equal(t, 0.0, tms.TimeReached)
}

func TestRejectInterp(t *testing.T) {
	newRunner := func() *runner {
		return &runner{opts: ode.DefaultOptions()} // Robustness 2
	}

	// far out of bounds: the proposal h*(0.01/worst)^(1/(2k-1)) falls
	// below the robustness floor and is clamped to h/2
	r := newRunner()
	h, rejected := r.rejectInterp(200, 0.4, 4)
	assert.True(t, rejected)
	assert.InDelta(t, 0.2, h, 1e-12)
	assert.Equal(t, 1, r.stats.RejectedSteps)

	// mildly out of bounds at high order: the proposal survives unclamped
	r = newRunner()
	h, rejected = r.rejectInterp(20, 1.0, 10)
	assert.True(t, rejected)
	assert.InDelta(t, 0.6703, h, 1e-3)

	// within bounds: no rejection, step untouched
	r = newRunner()
	h, rejected = r.rejectInterp(5, 0.4, 4)
	assert.False(t, rejected)
	assert.Equal(t, 0.4, h)
	assert.Equal(t, 0, r.stats.RejectedSteps)

	// fixed-step runs take what they get
	r = newRunner()
	r.opts.Adaptivity = ode.FixedStep
	_, rejected = r.rejectInterp(200, 0.4, 4)
	assert.False(t, rejected)
}

func TestIntegrate_DenseWithoutMidpoints(t *testing.T) {
	// A symmetric method forced onto the harmonic sequence at order 1
	// captures no mid-step states; dense output must fall back to the
	// backward interpolant instead of relying on midpoint data.
	opts := ode.DefaultOptions()
	opts.Adaptivity = ode.FixedStep
	opts.Order = 1
	opts.InitialStep = 0.1
	opts.Sequence = ode.SequenceHarmonic

	times := []float64{0, 0.05, 0.1}
	sol, err := Integrate(decayRHS, nil, []float64{1}, times, opts)
	require.NoError(t, err)

	require.Len(t, sol.States, 3)
	assert.InDelta(t, math.Exp(-0.05), sol.At(1)[0], 5e-3)
	assert.InDelta(t, math.Exp(-0.1), sol.Final()[0], 5e-2)
}

func BenchmarkIntegrate_Oscillator(b *testing.B) {
	rhs := func(t float64, y ode.State) ode.State {
		return ode.State{y[1], -y[0]}
	}
	opts := ode.DefaultOptions()
	opts.AbsTol = 1e-8
	opts.RelTol = 1e-8
	times := []float64{0, 10}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Integrate(rhs, nil, []float64{1, 0}, times, opts); err != nil {
			b.Fatal(err)
		}
	}
}
