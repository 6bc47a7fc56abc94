package abm

import (
	"fmt"
	"math/rand"
	"time"
)

// HardCeiling is the absolute step bound enforced when no explicit
// step limit is configured. Reaching it fails the run with
// [ErrRuntimeLimit], which usually means a stop condition is missing.
const HardCeiling = 1_000_000

// RunState is the lifecycle state of a model run.
type RunState int

const (
	StateCreated RunState = iota
	StateSetup
	StateStepping
	StateStopped
	StateOutputReady
)

func (s RunState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSetup:
		return "setup"
	case StateStepping:
		return "stepping"
	case StateStopped:
		return "stopped"
	case StateOutputReady:
		return "output_ready"
	}
	return "unknown"
}

// Behavior defines the user hooks of a model. Setup runs once per run
// before the first step; Step runs once per time step.
type Behavior interface {
	Setup(m *Model) error
	Step(m *Model) error
}

// Finisher is an optional Behavior extension invoked once after the
// step loop ends, typically to report scalar measures.
type Finisher interface {
	End(m *Model) error
}

// Base is a no-op Behavior for embedding.
type Base struct{}

func (Base) Setup(*Model) error { return nil }
func (Base) Step(*Model) error  { return nil }

// RunConfig controls one call to [Model.Run].
type RunConfig struct {
	// Steps is an absolute target for t. A negative value defers to
	// the "steps" parameter, then to the hard ceiling.
	Steps int
	// Seed for the model RNG. Zero defers to the "seed" parameter,
	// then to the wall clock.
	Seed    int64
	Display bool
}

// DefaultRunConfig leaves the step limit to the model parameters.
func DefaultRunConfig() RunConfig {
	return RunConfig{Steps: -1, Display: true}
}

// Model drives one simulation run. One instance equals one run: it is
// created fresh per run and discarded after output extraction.
type Model struct {
	Object

	name      string
	params    Params
	behavior  Behavior
	reg       *Registry
	rng       *rand.Rand
	t         int
	tMax      int
	limit     int
	explicit  bool
	runID     int
	iteration int
	scenario  string
	stopFlag  bool
	state     RunState
	started   time.Time

	measures     map[string]float64
	measureNames []string
}

// New creates a model for one run. A nil behavior yields a model whose
// steps do nothing, which is still useful for driving the object
// registry and recorder directly.
func New(name string, behavior Behavior, params Params) *Model {
	if params == nil {
		params = Params{}
	}
	m := &Model{
		name:     name,
		params:   params,
		behavior: behavior,
		tMax:     HardCeiling,
		state:    StateCreated,
		measures: make(map[string]float64),
	}
	m.Object = Object{id: 0, kind: "model", model: m, attrs: Attrs{}}
	m.reg = newRegistry(m)
	return m
}

// SetRun tags the model with its run id, iteration index and scenario.
// The scenario is a descriptive tag only; behaviors may branch on it.
func (m *Model) SetRun(runID, iteration int, scenario string) {
	m.runID = runID
	m.iteration = iteration
	m.scenario = scenario
}

func (m *Model) Name() string     { return m.name }
func (m *Model) Params() Params   { return m.params }
func (m *Model) T() int           { return m.t }
func (m *Model) RunID() int       { return m.runID }
func (m *Model) Iteration() int   { return m.iteration }
func (m *Model) Scenario() string { return m.scenario }
func (m *Model) State() RunState  { return m.state }

// TMax returns the absolute time bound, [HardCeiling] by default.
func (m *Model) TMax() int { return m.tMax }

// SetTMax lowers or raises the absolute time bound. Setting it to 0
// before Run forces zero executed steps.
func (m *Model) SetTMax(t int) { m.tMax = t }

// RNG returns the model's random source, seeded by [Model.RunSetup].
func (m *Model) RNG() *rand.Rand {
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return m.rng
}

// Registry accessors.

func (m *Model) AddAgents(n int, typ *Type, kwargs Attrs) (AgentList, error) {
	return m.reg.AddAgents(n, typ, kwargs)
}

func (m *Model) AddEnv(typ *Type, kwargs Attrs) (*Env, error) {
	return m.reg.AddEnv(typ, kwargs)
}

func (m *Model) Delete(obj SimObject) error { return m.reg.Delete(obj) }
func (m *Model) Agents() AgentList          { return m.reg.Agents() }
func (m *Model) Envs() []*Env               { return m.reg.Envs() }
func (m *Model) Objects() []SimObject       { return m.reg.Objects() }

// Stop requests the run to stop. It takes effect at the next
// step-boundary check and never pre-empts an in-progress step.
func (m *Model) Stop() { m.stopFlag = true }

// Stopped reports whether a stop was requested.
func (m *Model) Stopped() bool { return m.stopFlag }

// Measure reports a scalar run measure, recorded once per run.
func (m *Model) Measure(name string, value float64) {
	if _, ok := m.measures[name]; !ok {
		m.measureNames = append(m.measureNames, name)
	}
	m.measures[name] = value
}

// resolveLimit applies the step-limit resolution order: explicit steps
// argument, then the "steps" parameter, then the hard ceiling. The
// absolute bound tMax caps either.
func (m *Model) resolveLimit(cfg RunConfig) {
	m.limit = m.tMax
	m.explicit = false
	if cfg.Steps >= 0 {
		m.explicit = true
		if cfg.Steps < m.limit {
			m.limit = cfg.Steps
		}
	} else if s, ok := m.params.Int("steps"); ok {
		m.explicit = true
		if s < m.limit {
			m.limit = s
		}
	}
}

func (m *Model) seed(cfg RunConfig) {
	s := cfg.Seed
	if s == 0 {
		if p, ok := m.params["seed"]; ok {
			switch v := p.(type) {
			case int:
				s = int64(v)
			case int64:
				s = v
			case float64:
				s = int64(v)
			}
		}
	}
	if s == 0 {
		s = time.Now().UnixNano()
	}
	m.rng = rand.New(rand.NewSource(s))
}

// RunSetup prepares a run: clears the stop flag, seeds the RNG,
// resolves the step limit and calls the behavior's Setup hook. It is
// exposed so that animation and interactive drivers can step the model
// themselves.
func (m *Model) RunSetup(cfg RunConfig) error {
	m.stopFlag = false
	m.state = StateSetup
	m.seed(cfg)
	m.resolveLimit(cfg)
	if m.behavior != nil {
		if err := m.behavior.Setup(m); err != nil {
			m.state = StateStopped
			return err
		}
	}
	m.state = StateStepping
	return nil
}

// Running reports whether another step may execute. The stop flag is
// consulted only here, at the step boundary.
func (m *Model) Running() bool {
	return !m.stopFlag && m.t < m.limit
}

// RunStep advances time by one step and executes the behavior's Step
// hook, which observes the already-incremented t.
func (m *Model) RunStep() error {
	m.t++
	if m.behavior == nil {
		return nil
	}
	return m.behavior.Step(m)
}

// Run executes one full simulation: setup, step loop, stop, output
// extraction. It may be called again on a stopped model, in which case
// the step loop continues from the current t.
func (m *Model) Run(cfg RunConfig) (*Bundle, error) {
	m.started = time.Now()
	if err := m.RunSetup(cfg); err != nil {
		return nil, err
	}
	for m.Running() {
		if err := m.RunStep(); err != nil {
			m.state = StateStopped
			return nil, err
		}
		if cfg.Display {
			fmt.Printf("\rCompleted: %d steps", m.t)
		}
	}
	if cfg.Display {
		fmt.Println()
	}
	m.state = StateStopped

	if !m.stopFlag && !m.explicit && m.t >= HardCeiling {
		return nil, fmt.Errorf("abm: model %q reached %d steps without a configured limit: %w",
			m.name, HardCeiling, ErrRuntimeLimit)
	}

	if f, ok := m.behavior.(Finisher); ok {
		if err := f.End(m); err != nil {
			return nil, err
		}
	}

	b := m.CreateOutput()
	m.state = StateOutputReady
	return b, nil
}
