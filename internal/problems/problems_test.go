package problems

import (
	"math"
	"testing"

	"github.com/james-bowman/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parex-ode/parex/internal/extrap"
	"github.com/parex-ode/parex/internal/ode"
)

func TestRegistry(t *testing.T) {
	names := List()
	assert.Contains(t, names, "decay")
	assert.Contains(t, names, "brusselator")

	for _, name := range names {
		p, err := Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, p.Name)
		assert.Len(t, p.Y0, p.Dim, name)
		assert.Less(t, p.TSpan[0], p.TSpan[1], name)

		f := p.RHS(p.TSpan[0], p.Y0)
		assert.Len(t, f, p.Dim, name)
	}

	_, err := Get("three-body")
	assert.Error(t, err)
}

func TestJacobianMatchesFiniteDifference(t *testing.T) {
	for _, name := range []string{"decay", "vanderpol", "lotka"} {
		p, err := Get(name)
		require.NoError(t, err)
		require.NotNil(t, p.Jac, name)

		y := p.Y0
		j := p.Jac(0, y)
		const eps = 1e-7
		for col := 0; col < p.Dim; col++ {
			pert := y.Clone()
			pert[col] += eps
			fp := p.RHS(0, pert)
			f := p.RHS(0, y)
			for row := 0; row < p.Dim; row++ {
				fd := (fp[row] - f[row]) / eps
				tol := 1e-4 * math.Max(1, math.Abs(fd))
				assert.InDelta(t, fd, j.At(row, col), tol,
					"%s J[%d,%d]", name, row, col)
			}
		}
	}
}

func TestBrusselator_SparseJacobian(t *testing.T) {
	p := Brusselator(10)

	j := p.Jac(0, p.Y0)
	_, ok := j.(*sparse.CSR)
	assert.True(t, ok)

	r, c := j.Dims()
	assert.Equal(t, 20, r)
	assert.Equal(t, 20, c)

	// off-band entries stay zero
	assert.Zero(t, j.At(0, 5))
	assert.Zero(t, j.At(3, 18))
}

func TestKepler_Roundtrip(t *testing.T) {
	p := Kepler(0.6)
	opts := ode.DefaultOptions()
	opts.AbsTol = 1e-10
	opts.RelTol = 1e-10

	sol, err := extrap.Integrate(p.RHS, nil, p.Y0, []float64{0, 2 * math.Pi}, opts)
	require.NoError(t, err)

	for i := range p.Y0 {
		assert.InDelta(t, p.Y0[i], sol.Final()[i], 1e-6, "component %d", i)
	}
	drift := math.Abs(KeplerEnergy(sol.Final()) - KeplerEnergy(p.Y0))
	assert.Less(t, drift, 1e-8)
}
