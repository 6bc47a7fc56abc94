// Package experiment orchestrates repeated model runs across parameter
// samples, scenarios and iterations, and merges the per-run bundles
// into one combined output.
package experiment

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/san-kum/agentlab/internal/abm"
	"github.com/san-kum/agentlab/internal/table"
)

// Factory builds a fresh behavior for one run. Every run owns a
// private model instance, so the factory must not share mutable state
// between the behaviors it returns.
type Factory func() abm.Behavior

// Spec is one run specification. RunID equals the spec's index in the
// experiment's expansion and identifies the bundle regardless of the
// order in which a pool returns it.
type Spec struct {
	RunID      int
	Sample     int // index into the parameter list
	Iteration  int
	Scenario   string
	Parameters abm.Params
}

// Config describes an experiment.
type Config struct {
	// Parameters is a single set or an ordered sample of sets. Empty
	// defaults to one empty parameter set.
	Parameters []abm.Params
	// Scenarios multiply the run count; empty means one implicit
	// no-scenario placeholder.
	Scenarios  []string
	Iterations int // defaults to 1
	// Record includes dynamic variables in the combined output.
	Record bool
}

// Progress reports incremental sequential-run progress.
type Progress struct {
	Completed int
	Total     int
	Elapsed   time.Duration
	Remaining time.Duration
}

// Experiment expands a configuration into an ordered list of run
// specifications and executes them sequentially or on a worker pool.
type Experiment struct {
	name    string
	factory Factory
	cfg     Config
	specs   []Spec

	fixed  abm.Params
	varied *table.Table

	// OnProgress, when set, receives sequential progress updates in
	// addition to the display output.
	OnProgress func(Progress)
}

// New expands parameters x iterations x scenarios into run specs and
// partitions the parameters into fixed and varied for reporting. An
// uncomparable parameter value fails with [abm.ErrConfiguration].
func New(name string, factory Factory, cfg Config) (*Experiment, error) {
	if factory == nil {
		return nil, fmt.Errorf("experiment %q: nil factory: %w", name, abm.ErrConfiguration)
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = 1
	}
	if cfg.Iterations < 0 {
		return nil, fmt.Errorf("experiment %q: %d iterations: %w", name, cfg.Iterations, abm.ErrConfiguration)
	}
	if len(cfg.Parameters) == 0 {
		cfg.Parameters = []abm.Params{{}}
	}

	e := &Experiment{name: name, factory: factory, cfg: cfg}
	if err := e.partition(); err != nil {
		return nil, err
	}

	scenarios := cfg.Scenarios
	if len(scenarios) == 0 {
		scenarios = []string{""}
	}

	e.specs = make([]Spec, 0, len(cfg.Parameters)*cfg.Iterations*len(scenarios))
	for it := 0; it < cfg.Iterations; it++ {
		for si, p := range cfg.Parameters {
			for _, sc := range scenarios {
				e.specs = append(e.specs, Spec{
					RunID:      len(e.specs),
					Sample:     si,
					Iteration:  it,
					Scenario:   sc,
					Parameters: p,
				})
			}
		}
	}
	return e, nil
}

// Name returns the experiment name.
func (e *Experiment) Name() string { return e.name }

// Runs returns the total number of scheduled runs.
func (e *Experiment) Runs() int { return len(e.specs) }

// Specs returns the ordered run specifications.
func (e *Experiment) Specs() []Spec {
	return append([]Spec(nil), e.specs...)
}

// FixedParameters returns the parameters identical across all samples.
func (e *Experiment) FixedParameters() abm.Params { return e.fixed.Clone() }

// VariedParameters returns a table of the parameters that differ
// across samples, indexed by sample id, or nil when none vary.
func (e *Experiment) VariedParameters() *table.Table { return e.varied }

// partition splits parameters into fixed and varied across samples.
func (e *Experiment) partition() error {
	names := orderedNames(e.cfg.Parameters)

	e.fixed = abm.Params{}
	var variedNames []string
	for _, name := range names {
		first, firstOK := e.cfg.Parameters[0][name]
		if err := checkComparable(name, first); err != nil {
			return err
		}
		fixed := firstOK
		for _, p := range e.cfg.Parameters[1:] {
			v, ok := p[name]
			if err := checkComparable(name, v); err != nil {
				return err
			}
			if !ok || v != first {
				fixed = false
			}
		}
		if fixed {
			e.fixed[name] = first
		} else {
			variedNames = append(variedNames, name)
		}
	}

	if len(variedNames) > 0 {
		e.varied = table.New([]string{"sample_id"}, variedNames)
		for si, p := range e.cfg.Parameters {
			row := make(map[string]any, len(variedNames))
			for _, name := range variedNames {
				row[name] = p[name]
			}
			if err := e.varied.Append([]any{si}, row); err != nil {
				return err
			}
		}
	}
	return nil
}

// orderedNames returns the union of parameter names across samples,
// sorted within each sample for a deterministic report.
func orderedNames(samples []abm.Params) []string {
	var names []string
	seen := make(map[string]bool)
	for _, p := range samples {
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	return names
}

func checkComparable(name string, v any) error {
	if v == nil {
		return nil
	}
	if !reflect.TypeOf(v).Comparable() {
		return fmt.Errorf("experiment: parameter %q has uncomparable value of type %T: %w",
			name, v, abm.ErrConfiguration)
	}
	return nil
}

// Run executes every run spec and combines the bundles. With a nil
// pool the specs execute strictly in run-id order; with a pool the
// completion order is unspecified and bundles are re-associated by
// their run id. A failing run aborts the experiment; pool failures are
// re-raised unmodified.
func (e *Experiment) Run(pool Pool, display bool) (*Output, error) {
	if display {
		fmt.Printf("Scheduled runs: %d\n", len(e.specs))
	}
	start := time.Now()

	var bundles []*abm.Bundle
	var err error
	if pool == nil {
		bundles, err = e.runSequential(start, display)
	} else {
		bundles, err = pool.Map(len(e.specs), e.RunSpec)
	}
	if err != nil {
		return nil, err
	}

	out, err := Combine(e, bundles)
	if err != nil {
		return nil, err
	}
	out.Log.RunTime = time.Since(start)

	if display {
		fmt.Printf("Experiment finished\nRun time: %s\n", out.Log.RunTime.Round(time.Millisecond))
	}
	return out, nil
}

func (e *Experiment) runSequential(start time.Time, display bool) ([]*abm.Bundle, error) {
	bundles := make([]*abm.Bundle, 0, len(e.specs))
	for i, spec := range e.specs {
		b, err := e.RunSpec(spec.RunID)
		if err != nil {
			return nil, fmt.Errorf("experiment %q: run %d: %w", e.name, spec.RunID, err)
		}
		bundles = append(bundles, b)

		elapsed := time.Since(start)
		remaining := time.Duration(0)
		if i+1 < len(e.specs) {
			remaining = elapsed / time.Duration(i+1) * time.Duration(len(e.specs)-i-1)
		}
		if display {
			fmt.Printf("\rCompleted: %d, estimated time remaining: %s",
				i+1, remaining.Round(time.Second))
		}
		if e.OnProgress != nil {
			e.OnProgress(Progress{
				Completed: i + 1,
				Total:     len(e.specs),
				Elapsed:   elapsed,
				Remaining: remaining,
			})
		}
	}
	if display {
		fmt.Println()
	}
	return bundles, nil
}
