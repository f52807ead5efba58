package problems

import (
	"fmt"
	"sort"

	"github.com/parex-ode/parex/internal/ode"
)

// Problem is one ready-to-integrate initial value problem.
type Problem struct {
	Name string
	Desc string
	Dim  int
	// Stiff marks problems that want an implicit or semi-implicit method.
	Stiff bool

	RHS ode.Func
	// Jac is nil when finite differences are the only option.
	Jac ode.Jacobian

	Y0    ode.State
	TSpan [2]float64
}

var registry = map[string]func() Problem{
	"decay":       Decay,
	"vanderpol":   func() Problem { return VanDerPol(1e3) },
	"lotka":       LotkaVolterra,
	"lorenz":      Lorenz,
	"kepler":      func() Problem { return Kepler(0.6) },
	"brusselator": func() Problem { return Brusselator(40) },
}

// Get returns the named problem with its default parameters.
func Get(name string) (Problem, error) {
	ctor, ok := registry[name]
	if !ok {
		return Problem{}, fmt.Errorf("problems: unknown problem %q", name)
	}
	return ctor(), nil
}

// List returns the registered problem names in sorted order.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
