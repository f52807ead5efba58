package ode

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// State is a solution vector y at a fixed time.
type State []float64

// Func is the right-hand side f of y' = f(t, y). It must return a vector of
// the same dimension as y and must not retain or mutate y.
type Func func(t float64, y State) State

// Jacobian evaluates df/dy at (t, y). The returned matrix may be a dense
// *mat.Dense or any other mat.Matrix implementation (e.g. a CSR matrix);
// the linear-solve layer picks a direct or iterative method accordingly.
type Jacobian func(t float64, y State) mat.Matrix

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] + other[i]
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] - other[i]
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// AddScaled returns s + factor*other without modifying either operand.
func (s State) AddScaled(factor float64, other State) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] + factor*other[i]
	}
	return result
}
