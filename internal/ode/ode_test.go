package ode

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, -2.0, 3.5}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{math.Inf(1)}, false},
		{"with -Inf", State{0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.state.IsValid())
		})
	}
}

func TestState_CloneIsIndependent(t *testing.T) {
	s := State{1, 2, 3}
	c := s.Clone()
	c[0] = 99
	assert.Equal(t, 1.0, s[0])
}

func TestState_AddScaled(t *testing.T) {
	s := State{1, 2}
	got := s.AddScaled(0.5, State{2, 4})
	assert.Equal(t, State{2, 4}, got)
	assert.Equal(t, State{1, 2}, s)
}

func TestTolerance_ErrorNorm(t *testing.T) {
	opts := DefaultOptions()
	opts.AbsTol, opts.RelTol = 1e-3, 0
	tol := NewTolerance(&opts, 2)

	// |y1-y2| = 1e-3 in each component: exactly at tolerance.
	err := tol.ErrorNorm(State{1.001, 2.001}, State{1.0, 2.0})
	assert.InDelta(t, 1.0, err, 1e-9)

	err = tol.ErrorNorm(State{1, 2}, State{1, 2})
	assert.Equal(t, 0.0, err)
}

func TestTolerance_PerComponent(t *testing.T) {
	opts := DefaultOptions()
	opts.AbsTolVec = []float64{1e-2, 1e-4}
	opts.RelTolVec = []float64{0, 0}
	tol := NewTolerance(&opts, 2)

	// First component well inside its loose tolerance, second exactly at
	// its tight one.
	err := tol.ErrorNorm(State{1.0001, 2.0001}, State{1.0, 2.0})
	assert.InDelta(t, math.Sqrt((0.01*0.01+1)/2), err, 1e-9)
}

func TestSequences(t *testing.T) {
	tests := []struct {
		name string
		seq  Sequence
		want []int
	}{
		{"harmonic", HarmonicSequence, []int{1, 2, 3, 4, 5}},
		{"harmonic-even", HarmonicEvenSequence, []int{2, 4, 6, 8, 10}},
		{"dense", DenseSequence, []int{2, 6, 10, 14, 18}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for j, want := range tt.want {
				assert.Equal(t, want, tt.seq(j+1))
			}
		})
	}
}

func TestSelectSequence_Auto(t *testing.T) {
	// Symmetric method without dense output: even harmonic.
	seq := SelectSequence(SequenceAuto, Midpoint, false)
	assert.Equal(t, 4, seq(2))

	// Symmetric method with dense output: 4j-2.
	seq = SelectSequence(SequenceAuto, Midpoint, true)
	assert.Equal(t, 6, seq(2))

	// Euler family: harmonic regardless.
	seq = SelectSequence(SequenceAuto, Euler, true)
	assert.Equal(t, 2, seq(2))
}

func TestOptions_Validate(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate(3))

	bad := opts
	bad.Adaptivity = "sometimes"
	err := bad.Validate(3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadAdaptivity))

	bad = opts
	bad.AbsTolVec = []float64{1, 2}
	err = bad.Validate(3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestOptions_Sanitized(t *testing.T) {
	var opts Options
	opts = opts.Sanitized()

	assert.Equal(t, AdaptiveOrder, opts.Adaptivity)
	assert.Equal(t, Midpoint, opts.Method)
	assert.Positive(t, opts.Workers)
	assert.Positive(t, opts.MaxSteps)
	assert.Greater(t, opts.Robustness, 1.0)
}

func TestMethod_Families(t *testing.T) {
	assert.True(t, Midpoint.Symmetric())
	assert.True(t, SemiImplicitMidpoint.Symmetric())
	assert.False(t, Euler.Symmetric())
	assert.False(t, ImplicitEuler.Symmetric())

	assert.False(t, Midpoint.Implicit())
	assert.False(t, Euler.Implicit())
	assert.True(t, ImplicitMidpoint.Implicit())
	assert.True(t, SemiImplicitEuler.Implicit())
}

func TestTooManyStepsError(t *testing.T) {
	err := &TooManyStepsError{TimeReached: 0.25, MaxSteps: 10}
	assert.True(t, errors.Is(err, ErrTooManySteps))
	assert.Contains(t, err.Error(), "0.25")
}
