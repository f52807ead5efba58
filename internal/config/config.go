package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/parex-ode/parex/internal/ode"
	"github.com/parex-ode/parex/internal/problems"
)

const (
	DefaultAbsTol  = 1e-6
	DefaultRelTol  = 1e-6
	DefaultOutputs = 101
)

// Config is one integration run as described in a YAML file or a preset:
// the problem, the time window, and the solver settings.
type Config struct {
	Problem string `yaml:"problem"`

	// Start and End override the problem's default span when End > Start.
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	// Outputs is the number of equally spaced output times, at least 2.
	Outputs int `yaml:"outputs"`

	Method     string  `yaml:"method"`
	Adaptivity string  `yaml:"adaptivity"`
	Smoothing  string  `yaml:"smoothing"`
	Sequence   string  `yaml:"sequence"`
	AbsTol     float64 `yaml:"abstol"`
	RelTol     float64 `yaml:"reltol"`
	InitStep   float64 `yaml:"initial_step"`
	MaxSteps   int     `yaml:"max_steps"`
	Order      int     `yaml:"order"`
	Workers    int     `yaml:"workers"`
	Robustness float64 `yaml:"robustness"`

	NoAnalyticJacobian bool `yaml:"no_analytic_jacobian"`
	FreezeJacobian     bool `yaml:"freeze_jacobian"`
	IterativeSolve     bool `yaml:"iterative_solve"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem: "decay",
		Outputs: DefaultOutputs,
		AbsTol:  DefaultAbsTol,
		RelTol:  DefaultRelTol,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Options maps the config onto solver options, leaving unset fields to the
// solver defaults.
func (c *Config) Options() ode.Options {
	opts := ode.DefaultOptions()
	if c.Method != "" {
		opts.Method = ode.Method(c.Method)
	}
	if c.Adaptivity != "" {
		opts.Adaptivity = ode.Adaptivity(c.Adaptivity)
	}
	if c.Smoothing != "" {
		opts.Smoothing = ode.Smoothing(c.Smoothing)
	}
	if c.Sequence != "" {
		opts.Sequence = ode.SequenceKind(c.Sequence)
	}
	if c.AbsTol > 0 {
		opts.AbsTol = c.AbsTol
	}
	if c.RelTol > 0 {
		opts.RelTol = c.RelTol
	}
	if c.InitStep > 0 {
		opts.InitialStep = c.InitStep
	}
	if c.MaxSteps > 0 {
		opts.MaxSteps = c.MaxSteps
	}
	if c.Order > 0 {
		opts.Order = c.Order
	}
	if c.Workers > 0 {
		opts.Workers = c.Workers
	}
	if c.Robustness > 1 {
		opts.Robustness = c.Robustness
	}
	opts.UseJacobian = !c.NoAnalyticJacobian
	opts.FreezeJacobian = c.FreezeJacobian
	opts.IterativeSolve = c.IterativeSolve
	return opts
}

// Span resolves the integration window, falling back to the problem's
// default when the config leaves it open.
func (c *Config) Span(p problems.Problem) (float64, float64) {
	if c.End > c.Start {
		return c.Start, c.End
	}
	return p.TSpan[0], p.TSpan[1]
}

// Times builds the equally spaced output grid for the run.
func (c *Config) Times(p problems.Problem) ([]float64, error) {
	n := c.Outputs
	if n == 0 {
		n = DefaultOutputs
	}
	if n < 2 {
		return nil, fmt.Errorf("config: outputs must be >= 2, got %d", n)
	}
	t0, t1 := c.Span(p)
	times := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = t0 + (t1-t0)*float64(i)/float64(n-1)
	}
	times[n-1] = t1
	return times, nil
}
