package experiment

import (
	"time"

	"github.com/san-kum/agentlab/internal/abm"
	"github.com/san-kum/agentlab/internal/table"
)

// ExperimentLog describes one finished experiment.
type ExperimentLog struct {
	Name       string
	Timestamp  time.Time
	Iterations int
	Scenarios  []string
	Runs       int
	RunTime    time.Duration
}

// ParamReport is the fixed/varied parameter split of an experiment.
type ParamReport struct {
	Fixed  abm.Params
	Varied *table.Table // indexed by sample_id, nil when none vary
}

// Output is the combined result of an experiment: a named, nested
// result store with the sections "parameters", "variables", "log" and
// "measures", plus open sections that external collaborators may add
// (sensitivity indices, for instance).
type Output struct {
	Log        ExperimentLog
	Parameters ParamReport
	// Variables holds the merged per-object-type tables, indexed by
	// (run_id, obj_id, t). Nil when recording was disabled or no run
	// recorded anything.
	Variables map[string]*table.Table
	// Measures holds one row per run, indexed by run_id.
	Measures *table.Table

	sections map[string]any
}

// Section addresses the output like a mapping. The parameters section
// resolves to the flat fixed mapping when no parameter varies, to the
// varied table when every parameter varies, and to the two-part
// [ParamReport] when both exist.
func (o *Output) Section(name string) (any, bool) {
	switch name {
	case "log":
		return o.Log, true
	case "parameters":
		switch {
		case o.Parameters.Varied == nil:
			return o.Parameters.Fixed, true
		case len(o.Parameters.Fixed) == 0:
			return o.Parameters.Varied, true
		default:
			return o.Parameters, true
		}
	case "variables":
		if o.Variables == nil {
			return nil, false
		}
		return o.Variables, true
	case "measures":
		if o.Measures == nil {
			return nil, false
		}
		return o.Measures, true
	}
	v, ok := o.sections[name]
	return v, ok
}

// SetSection attaches a collaborator-provided section, such as
// sensitivity indices.
func (o *Output) SetSection(name string, v any) {
	if o.sections == nil {
		o.sections = make(map[string]any)
	}
	o.sections[name] = v
}

// SectionNames lists the extra sections added by collaborators.
func (o *Output) SectionNames() []string {
	names := make([]string, 0, len(o.sections))
	for k := range o.sections {
		names = append(names, k)
	}
	return names
}
