package extrap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parex-ode/parex/internal/ode"
)

func buildDenseTable(t *testing.T, method ode.Method, h float64, k int) *Table {
	t.Helper()
	b := newTestBuilder(t, method, 2)
	seq := ode.SelectSequence(ode.SequenceAuto, method, true)
	tb, _, err := b.build(buildRequest{
		rhs:       decayRHS,
		y:         ode.State{1},
		h:         h,
		k:         k,
		seq:       seq,
		needDense: true,
	})
	require.NoError(t, err)
	return tb
}

func TestCenteredInterpolant_Decay(t *testing.T) {
	h := 0.2
	tb := buildDenseTable(t, ode.Midpoint, h, 3)
	y0 := ode.State{1}
	y1 := tb.Best()
	f0 := tb.Rows[tb.K].Deriv[0]
	f1 := ode.State{-y1[0]}

	ip := newInterpolant(tb, y0, y1, f0, f1, h)

	// boundary conditions hold exactly
	hi, _ := ip.eval(0)
	assert.InDelta(t, y0[0], hi[0], 1e-12)
	hi, _ = ip.eval(1)
	assert.InDelta(t, y1[0], hi[0], 1e-12)

	// the midpoint is the extrapolated grid value
	hi, lo := ip.eval(0.5)
	assert.InDelta(t, math.Exp(-0.5*h), hi[0], 1e-8)

	// interior accuracy and a finite, same-scale error estimate
	hi, lo = ip.eval(0.25)
	trueErr := math.Abs(hi[0] - math.Exp(-0.25*h))
	assert.Less(t, trueErr, 1e-6)
	est := math.Abs(hi[0] - lo[0])
	assert.Greater(t, est, 0.0)
	assert.Less(t, est, 1e-8)
}

func TestCenteredInterpolant_TighterOnSmallerStep(t *testing.T) {
	errAt := func(h float64) float64 {
		tb := buildDenseTable(t, ode.Midpoint, h, 3)
		y1 := tb.Best()
		ip := newInterpolant(tb, ode.State{1}, y1,
			tb.Rows[tb.K].Deriv[0], ode.State{-y1[0]}, h)
		hi, _ := ip.eval(0.3)
		return math.Abs(hi[0] - math.Exp(-0.3*h))
	}

	coarse := errAt(0.2)
	fine := errAt(0.05)
	assert.Less(t, fine, coarse/100)
}

func TestBackwardInterpolant_Decay(t *testing.T) {
	h := 0.05
	tb := buildDenseTable(t, ode.Euler, h, 3)
	y0 := ode.State{1}
	y1 := tb.Best()

	ip := newInterpolant(tb, y0, y1, nil, nil, h)

	hi, _ := ip.eval(0)
	assert.InDelta(t, y0[0], hi[0], 1e-12)
	hi, _ = ip.eval(1)
	assert.Equal(t, y1[0], hi[0])

	hi, lo := ip.eval(0.4)
	assert.InDelta(t, math.Exp(-0.4*h), hi[0], 1e-3)
	assert.NotEqual(t, hi[0], lo[0])
}

func TestDividedDifferences_ReproducesPolynomial(t *testing.T) {
	// p(x) = 2x^2 - 3x + 1
	p := func(x float64) float64 { return 2*x*x - 3*x + 1 }
	nodes := []float64{0, 0.4, 1}
	vals := []ode.State{{p(0)}, {p(0.4)}, {p(1)}}

	coef := dividedDifferences(nodes, vals)

	for _, x := range []float64{0, 0.1, 0.5, 0.77, 1} {
		got := evalNewton(nodes, coef, x)
		assert.InDelta(t, p(x), got[0], 1e-13, "x=%g", x)
	}
}

func TestForwardDiff(t *testing.T) {
	// samples of x^2 at 0,1,2,3: second difference is constant 2
	vals := []ode.State{{0}, {1}, {4}, {9}}

	assert.InDelta(t, 1.0, forwardDiff(vals, 0, 1)[0], 1e-15)
	assert.InDelta(t, 2.0, forwardDiff(vals, 0, 2)[0], 1e-15)
	assert.InDelta(t, 2.0, forwardDiff(vals, 1, 2)[0], 1e-15)
	assert.InDelta(t, 0.0, forwardDiff(vals, 0, 3)[0], 1e-15)
}

func TestGridDerivative(t *testing.T) {
	// f sampled on a grid with spacing 0.1; f(x) = x^3 around the midpoint
	n := 6
	hs := 0.1
	deriv := make([]ode.State, n+1)
	for i := 0; i <= n; i++ {
		x := float64(i) * hs
		deriv[i] = ode.State{x * x * x}
	}
	mid := float64(n/2) * hs

	d0, ok := gridDerivative(deriv, n, 0, hs)
	require.True(t, ok)
	assert.InDelta(t, mid*mid*mid, d0[0], 1e-15)

	d1, ok := gridDerivative(deriv, n, 1, hs)
	require.True(t, ok)
	assert.InDelta(t, 3*mid*mid, d1[0], 2e-2)

	d2, ok := gridDerivative(deriv, n, 2, hs)
	require.True(t, ok)
	assert.InDelta(t, 6*mid, d2[0], 1e-2)

	// stencil wider than the grid
	_, ok = gridDerivative(deriv, n, n+1, hs)
	assert.False(t, ok)
}

func TestGridDerivative_CancelsAlternatingMode(t *testing.T) {
	// The leapfrog grid carries an error component of alternating sign.
	// Estimates must be unchanged when such a component is superimposed:
	// odd orders cancel it by averaging the half-offset stencils, even
	// orders by differencing same-parity samples only.
	n := 6
	hs := 0.1
	clean := make([]ode.State, n+1)
	noisy := make([]ode.State, n+1)
	for i := 0; i <= n; i++ {
		x := float64(i) * hs
		clean[i] = ode.State{x * x * x}
		sign := 1.0
		if i%2 == 1 {
			sign = -1
		}
		noisy[i] = ode.State{x*x*x + sign*0.05}
	}

	for d := 1; d <= 2; d++ {
		want, ok := gridDerivative(clean, n, d, hs)
		require.True(t, ok)
		got, ok := gridDerivative(noisy, n, d, hs)
		require.True(t, ok)
		assert.InDelta(t, want[0], got[0], 1e-12, "d=%d", d)
	}
}

func TestAitken_RemovesH2Error(t *testing.T) {
	// estimates with a pure 1/n^2 error converge to the exact limit
	ns := []int{2, 4, 6}
	vals := make([]ode.State, len(ns))
	for i, n := range ns {
		vals[i] = ode.State{1 + 1/float64(n*n)}
	}
	assert.InDelta(t, 1.0, aitken(vals, ns)[0], 1e-14)
}
