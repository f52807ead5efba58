package jacobian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/parex-ode/parex/internal/ode"
)

// linear system y' = A y with A = [[-1, 2], [0, -3]]
func linearRHS(t float64, y ode.State) ode.State {
	return ode.State{-y[0] + 2*y[1], -3 * y[1]}
}

func linearJac(t float64, y ode.State) mat.Matrix {
	return mat.NewDense(2, 2, []float64{-1, 2, 0, -3})
}

func TestFiniteDifference_MatchesAnalytic(t *testing.T) {
	m := NewManager(linearRHS, nil, false, false)
	y := ode.State{1.0, 2.0}

	j, jacEvals, rhsEvals := m.Current(0, y, nil)

	assert.Equal(t, 1, jacEvals)
	// N+1 evaluations for an N-dimensional state.
	assert.Equal(t, len(y)+1, rhsEvals)

	want := linearJac(0, y)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			assert.InDelta(t, want.At(r, c), j.At(r, c), 1e-5)
		}
	}
}

func TestFiniteDifference_ReusesProvidedRHS(t *testing.T) {
	calls := 0
	rhs := func(t float64, y ode.State) ode.State {
		calls++
		return linearRHS(t, y)
	}
	m := NewManager(rhs, nil, false, false)
	y := ode.State{1.0, 2.0}
	fy := rhs(0, y)
	calls = 0

	_, _, rhsEvals := m.Current(0, y, fy)

	assert.Equal(t, len(y), rhsEvals)
	assert.Equal(t, len(y), calls)
}

func TestAnalytic_NoExtraEvals(t *testing.T) {
	calls := 0
	rhs := func(t float64, y ode.State) ode.State {
		calls++
		return linearRHS(t, y)
	}
	m := NewManager(rhs, linearJac, true, false)

	_, jacEvals, rhsEvals := m.Current(0, ode.State{1, 1}, nil)

	assert.Equal(t, 1, jacEvals)
	assert.Equal(t, 0, rhsEvals)
	assert.Equal(t, 0, calls)
}

func TestFreeze_ReusesAcrossSteps(t *testing.T) {
	m := NewManager(linearRHS, nil, false, true)
	y := ode.State{1.0, 2.0}

	_, jacEvals, _ := m.Current(0, y, nil)
	require.Equal(t, 1, jacEvals)

	// Next accepted step: frozen, Broyden-updated, no recount.
	y2 := ode.State{1.1, 1.9}
	j2, jacEvals, _ := m.Current(0.1, y2, nil)
	assert.Equal(t, 0, jacEvals)

	// For a linear RHS the Broyden update is exact along the secant
	// direction, so the frozen Jacobian stays close to the true one.
	want := linearJac(0, y2)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			assert.InDelta(t, want.At(r, c), j2.At(r, c), 1e-4)
		}
	}
}

func TestFreeze_InvalidateForcesRecompute(t *testing.T) {
	m := NewManager(linearRHS, nil, false, true)
	y := ode.State{1.0, 2.0}

	_, jacEvals, _ := m.Current(0, y, nil)
	require.Equal(t, 1, jacEvals)

	m.Invalidate()
	_, jacEvals, _ = m.Current(0, y, nil)
	assert.Equal(t, 1, jacEvals)
}
