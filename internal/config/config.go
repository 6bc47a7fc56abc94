package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/agentlab/internal/abm"
	"github.com/san-kum/agentlab/internal/experiment"
	"github.com/san-kum/agentlab/internal/sample"
)

const (
	DefaultModel      = "wealth"
	DefaultIterations = 1
	DefaultWorkers    = 1
)

// Sweep expands one parameter into n evenly spaced values.
type Sweep struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
	N   int     `yaml:"n"`
}

type Config struct {
	Model      string           `yaml:"model"`
	Iterations int              `yaml:"iterations"`
	Scenarios  []string         `yaml:"scenarios,omitempty"`
	Record     bool             `yaml:"record"`
	Seed       int64            `yaml:"seed,omitempty"`
	Workers    int              `yaml:"workers"`
	Parameters map[string]any   `yaml:"parameters,omitempty"`
	Sweeps     map[string]Sweep `yaml:"sweeps,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      DefaultModel,
		Iterations: DefaultIterations,
		Workers:    DefaultWorkers,
	}
}

// Clone returns a deep copy, so callers may adjust parameters and
// sweeps without touching the original.
func (c *Config) Clone() *Config {
	out := *c
	out.Scenarios = append([]string(nil), c.Scenarios...)
	if c.Parameters != nil {
		out.Parameters = make(map[string]any, len(c.Parameters))
		for k, v := range c.Parameters {
			out.Parameters[k] = v
		}
	}
	if c.Sweeps != nil {
		out.Sweeps = make(map[string]Sweep, len(c.Sweeps))
		for k, v := range c.Sweeps {
			out.Sweeps[k] = v
		}
	}
	return &out
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
	if err := cfg.Validate(); err != nil {
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

// Validate rejects configs that cannot expand into runs.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("config: model is required: %w", abm.ErrConfiguration)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("config: iterations must not be negative: %w", abm.ErrConfiguration)
	}
	for name, s := range c.Sweeps {
		if s.N < 1 {
			return fmt.Errorf("config: sweep %q needs at least one point: %w", name, abm.ErrConfiguration)
		}
		if s.Max < s.Min {
			return fmt.Errorf("config: sweep %q has max below min: %w", name, abm.ErrConfiguration)
		}
	}
	return nil
}

// Samples expands the base parameters with the sweep grid. Defaults
// fill in values the config leaves unset.
func (c *Config) Samples(defaults abm.Params) []abm.Params {
	base := defaults.Clone()
	if base == nil {
		base = abm.Params{}
	}
	for k, v := range c.Parameters {
		base[k] = v
	}
	if c.Seed != 0 {
		base["seed"] = c.Seed
	}

	if len(c.Sweeps) == 0 {
		return []abm.Params{base}
	}
	levels := make(map[string][]any, len(c.Sweeps))
	for name, s := range c.Sweeps {
		vals := make([]any, s.N)
		for i := 0; i < s.N; i++ {
			if s.N == 1 {
				vals[i] = s.Min
				continue
			}
			vals[i] = s.Min + (s.Max-s.Min)*float64(i)/float64(s.N-1)
		}
		levels[name] = vals
	}
	return sample.Grid(base, levels)
}

// Experiment translates the config into an orchestrator config.
func (c *Config) Experiment(defaults abm.Params) experiment.Config {
	return experiment.Config{
		Parameters: c.Samples(defaults),
		Scenarios:  append([]string(nil), c.Scenarios...),
		Iterations: c.Iterations,
		Record:     c.Record,
	}
}
