package extrap

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/parex-ode/parex/internal/ode"
)

// interpolant evaluates the solution inside one accepted step at a
// normalized position theta in [0, 1]. eval returns the full-order value
// together with a lower-order companion whose distance from it serves as
// the interpolation error estimate.
type interpolant interface {
	eval(theta float64) (hi, lo ode.State)
}

// newInterpolant builds the dense-output interpolant for an accepted step.
// Symmetric base methods get a centered Taylor polynomial with boundary
// corrections; non-symmetric methods get a Newton polynomial through the
// backward grid points of the deepest row. f0 and f1 are the step-endpoint
// derivatives; the non-symmetric path ignores them.
func newInterpolant(tb *Table, y0, y1, f0, f1 ode.State, h float64) interpolant {
	if tb.Symmetric && hasMidpoints(tb) {
		return newCenteredInterpolant(tb, y0, y1, f0, f1, h)
	}
	return newBackwardInterpolant(tb, y0, y1)
}

// hasMidpoints reports whether any row captured a mid-step state. Rows
// with an odd substep count have none; a sequence override can leave the
// whole table without midpoints, in which case the centered construction
// has nothing to expand around.
func hasMidpoints(tb *Table) bool {
	for j := 1; j <= tb.K; j++ {
		if tb.Rows[j].Mid != nil {
			return true
		}
	}
	return false
}

// centeredInterpolant is a polynomial in x = theta - 1/2. The central
// coefficients come from extrapolated midpoint derivatives; four
// correction terms of the next higher powers pin the value and first
// derivative at both step endpoints.
type centeredInterpolant struct {
	central []ode.State    // c[s] multiplies x^s
	corr    [4]ode.State   // exponents len(central) .. len(central)+3
	loCentr []ode.State    // one degree lower
	loCorr  [4]ode.State
}

func newCenteredInterpolant(tb *Table, y0, y1, f0, f1 ode.State, h float64) *centeredInterpolant {
	n := len(y0)

	// c0: the midpoint value, extrapolated across rows.
	var mids []ode.State
	var ns []int
	for j := 1; j <= tb.K; j++ {
		if tb.Rows[j].Mid != nil {
			mids = append(mids, tb.Rows[j].Mid)
			ns = append(ns, tb.Rows[j].N)
		}
	}
	central := []ode.State{aitken(mids, ns)}

	// c_s = h^s y^(s)(mid)/s!; y^(s) is the (s-1)-th derivative of f,
	// estimated per row by centered differences on the fine grid and
	// extrapolated. Rows too coarse for the stencil drop out; when no
	// row supports an order the expansion is truncated there.
	target := 2*tb.K - 3
	if target < 1 {
		target = 1
	}
	hPow, fact := 1.0, 1.0
	for s := 1; s <= target; s++ {
		hPow *= h
		fact *= float64(s)
		var ests []ode.State
		var ens []int
		for j := 1; j <= tb.K; j++ {
			row := tb.Rows[j]
			if row.Mid == nil {
				continue
			}
			est, ok := gridDerivative(row.Deriv, row.N, s-1, h/float64(row.N))
			if !ok {
				continue
			}
			ests = append(ests, est)
			ens = append(ens, row.N)
		}
		if len(ests) == 0 {
			break
		}
		central = append(central, aitken(ests, ens).Scale(hPow/fact))
	}

	ip := &centeredInterpolant{central: central}
	ip.corr = solveCorrections(central, y0, y1, f0, f1, h, n)
	ip.loCentr = central
	if len(central) > 1 {
		ip.loCentr = central[:len(central)-1]
	}
	ip.loCorr = solveCorrections(ip.loCentr, y0, y1, f0, f1, h, n)
	return ip
}

func (ip *centeredInterpolant) eval(theta float64) (hi, lo ode.State) {
	x := theta - 0.5
	return evalCentered(ip.central, ip.corr, x), evalCentered(ip.loCentr, ip.loCorr, x)
}

func evalCentered(central []ode.State, corr [4]ode.State, x float64) ode.State {
	out := make(ode.State, len(central[0]))
	pow := 1.0
	for _, c := range central {
		for i := range out {
			out[i] += c[i] * pow
		}
		pow *= x
	}
	for _, c := range corr {
		for i := range out {
			out[i] += c[i] * pow
		}
		pow *= x
	}
	return out
}

// solveCorrections finds the four coefficients of x^(u+1)..x^(u+4), with
// u+1 = len(central), so that the full polynomial reproduces y0, y1 and
// the scaled endpoint derivatives h*f0, h*f1 exactly.
func solveCorrections(central []ode.State, y0, y1, f0, f1 ode.State, h float64, n int) [4]ode.State {
	base := len(central)

	a := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		e := float64(base + i)
		xm, xp := math.Pow(-0.5, e), math.Pow(0.5, e)
		a.Set(0, i, xm)
		a.Set(1, i, xp)
		a.Set(2, i, e*math.Pow(-0.5, e-1))
		a.Set(3, i, e*math.Pow(0.5, e-1))
	}

	b := mat.NewDense(4, n, nil)
	for c := 0; c < n; c++ {
		v0, d0 := polyAt(central, -0.5, c)
		v1, d1 := polyAt(central, 0.5, c)
		b.Set(0, c, y0[c]-v0)
		b.Set(1, c, y1[c]-v1)
		b.Set(2, c, h*f0[c]-d0)
		b.Set(3, c, h*f1[c]-d1)
	}

	var lu mat.LU
	lu.Factorize(a)
	x := mat.NewDense(4, n, nil)
	if err := lu.SolveTo(x, false, b); err != nil {
		// Singular only in pathological float regimes; fall back to no
		// correction so the interpolant stays finite.
		x.Zero()
	}

	var corr [4]ode.State
	for i := 0; i < 4; i++ {
		corr[i] = make(ode.State, n)
		for c := 0; c < n; c++ {
			corr[i][c] = x.At(i, c)
		}
	}
	return corr
}

// polyAt returns the central polynomial's value and derivative in
// component c at x.
func polyAt(central []ode.State, x float64, c int) (v, dv float64) {
	pow := 1.0
	for s, coef := range central {
		v += coef[c] * pow
		if s > 0 {
			dv += float64(s) * coef[c] * pow / x
		}
		pow *= x
	}
	return v, dv
}

// gridDerivative estimates the d-th derivative of f at the row midpoint
// from the fine-grid derivative samples. The leapfrog grid carries a
// weak oscillating error mode of alternating sign, so every stencil must
// cancel it: even orders difference same-parity samples at stride two,
// odd orders average the two half-offset stencils. hs is the substep
// size.
func gridDerivative(deriv []ode.State, n, d int, hs float64) (ode.State, bool) {
	m := n / 2
	if d == 0 {
		return deriv[m], true
	}
	if d%2 == 0 {
		if m-d < 0 || m+d > n {
			return nil, false
		}
		samples := make([]ode.State, d+1)
		for i := range samples {
			samples[i] = deriv[m-d+2*i]
		}
		return forwardDiff(samples, 0, d).Scale(1 / math.Pow(2*hs, float64(d))), true
	}
	lo := m - (d+1)/2
	hi := m - (d-1)/2
	if lo < 0 || hi+d > n {
		return nil, false
	}
	a := forwardDiff(deriv, lo, d)
	b := forwardDiff(deriv, hi, d)
	return a.Add(b).Scale(0.5 / math.Pow(hs, float64(d))), true
}

// forwardDiff computes the d-th forward difference of vals starting at
// index base.
func forwardDiff(vals []ode.State, base, d int) ode.State {
	out := make(ode.State, len(vals[base]))
	coef := 1.0
	for i := 0; i <= d; i++ {
		sign := 1.0
		if (d-i)%2 == 1 {
			sign = -1
		}
		for c := range out {
			out[c] += sign * coef * vals[base+i][c]
		}
		coef = coef * float64(d-i) / float64(i+1)
	}
	return out
}

// aitken extrapolates per-row estimates with an h^2 error expansion to the
// zero-substep limit. ns holds the substep counts matching vals.
func aitken(vals []ode.State, ns []int) ode.State {
	cur := make([]ode.State, len(vals))
	for i := range vals {
		cur[i] = vals[i].Clone()
	}
	for col := 1; col < len(cur); col++ {
		for j := len(cur) - 1; j >= col; j-- {
			ratio := float64(ns[j]) / float64(ns[j-col])
			cur[j] = extrapolate(cur[j], cur[j-1], ratio, true)
		}
	}
	return cur[len(cur)-1]
}

// backwardInterpolant is a Newton polynomial through the extrapolated
// endpoint, the trailing fine-grid points of the deepest row, and the
// step start. The lower companion drops the innermost grid node.
type backwardInterpolant struct {
	nodes   []float64
	coef    []ode.State
	loNodes []float64
	loCoef  []ode.State
}

func newBackwardInterpolant(tb *Table, y0, y1 ode.State) *backwardInterpolant {
	row := tb.Rows[tb.K]
	back := tb.K - 1
	if back > row.N-1 {
		back = row.N - 1
	}

	nodes := []float64{1}
	vals := []ode.State{y1}
	for m := 1; m <= back; m++ {
		nodes = append(nodes, float64(row.N-m)/float64(row.N))
		vals = append(vals, row.Grid[row.N-m])
	}
	nodes = append(nodes, 0)
	vals = append(vals, y0)

	ip := &backwardInterpolant{
		nodes: nodes,
		coef:  dividedDifferences(nodes, vals),
	}

	ip.loNodes, ip.loCoef = ip.nodes, ip.coef
	if back > 0 {
		loNodes := make([]float64, 0, len(nodes)-1)
		loVals := make([]ode.State, 0, len(vals)-1)
		for i := range nodes {
			if i == back { // deepest interior node
				continue
			}
			loNodes = append(loNodes, nodes[i])
			loVals = append(loVals, vals[i])
		}
		ip.loNodes = loNodes
		ip.loCoef = dividedDifferences(loNodes, loVals)
	}
	return ip
}

func (ip *backwardInterpolant) eval(theta float64) (hi, lo ode.State) {
	return evalNewton(ip.nodes, ip.coef, theta), evalNewton(ip.loNodes, ip.loCoef, theta)
}

// dividedDifferences returns the Newton-form coefficients for the given
// nodes and vector values.
func dividedDifferences(nodes []float64, vals []ode.State) []ode.State {
	coef := make([]ode.State, len(vals))
	for i := range vals {
		coef[i] = vals[i].Clone()
	}
	for lvl := 1; lvl < len(coef); lvl++ {
		for i := len(coef) - 1; i >= lvl; i-- {
			den := nodes[i] - nodes[i-lvl]
			coef[i] = coef[i].Sub(coef[i-1]).Scale(1 / den)
		}
	}
	return coef
}

func evalNewton(nodes []float64, coef []ode.State, theta float64) ode.State {
	out := coef[len(coef)-1].Clone()
	for i := len(coef) - 2; i >= 0; i-- {
		dx := theta - nodes[i]
		for c := range out {
			out[c] = out[c]*dx + coef[i][c]
		}
	}
	return out
}
