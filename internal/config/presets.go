package config

import "sort"

// Presets are named run configurations per problem, the starting points
// the CLI offers before any YAML file exists.
var Presets = map[string]map[string]*Config{
	"decay": {
		"quick": {
			Problem: "decay", Outputs: 51,
		},
		"tight": {
			Problem: "decay", Outputs: 101, AbsTol: 1e-12, RelTol: 1e-12,
		},
	},
	"vanderpol": {
		"stiff": {
			Problem: "vanderpol", Method: "semi-implicit-midpoint",
			Outputs: 201, AbsTol: 1e-8, RelTol: 1e-8, FreezeJacobian: true,
		},
		"relaxed": {
			Problem: "vanderpol", Method: "implicit-euler",
			Outputs: 101, AbsTol: 1e-5, RelTol: 1e-5,
		},
	},
	"lotka": {
		"cycles": {
			Problem: "lotka", Outputs: 301, AbsTol: 1e-8, RelTol: 1e-8,
		},
	},
	"kepler": {
		"orbit": {
			Problem: "kepler", Outputs: 201, AbsTol: 1e-10, RelTol: 1e-10,
		},
		"fixed": {
			Problem: "kepler", Adaptivity: "fixed", InitStep: 0.01,
			Order: 6, Outputs: 101,
		},
	},
	"brusselator": {
		"stiff": {
			Problem: "brusselator", Method: "semi-implicit-midpoint",
			Outputs: 101, AbsTol: 1e-6, RelTol: 1e-6, IterativeSolve: true,
		},
	},
	"lorenz": {
		"butterfly": {
			Problem: "lorenz", Outputs: 2001, AbsTol: 1e-9, RelTol: 1e-9,
		},
	},
}

func GetPreset(problem, preset string) *Config {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	cfg, ok := problemPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(problem string) []string {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(problemPresets))
	for name := range problemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
