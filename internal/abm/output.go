package abm

import (
	"slices"
	"time"

	"github.com/san-kum/agentlab/internal/table"
)

// RunLog describes one finished run.
type RunLog struct {
	Name      string
	Timestamp time.Time
	RunID     int
	Iteration int
	Scenario  string
	Steps     int
	RunTime   time.Duration
}

// Bundle is the immutable, self-contained output of one run. It is the
// unit dispatched to and returned from experiment workers.
type Bundle struct {
	Parameters Params
	// Variables holds one table per object type, indexed by
	// (obj_id, t). Nil when nothing was recorded.
	Variables    map[string]*table.Table
	Measures     map[string]float64
	MeasureNames []string
	Log          RunLog
}

// CreateOutput assembles the run's bundle: a copy of the parameters,
// every recorded variable series grouped into per-object-type tables,
// the reported measures and the run log. It is called once after the
// step loop ends.
func (m *Model) CreateOutput() *Bundle {
	b := &Bundle{
		Parameters: m.params.Clone(),
		Log: RunLog{
			Name:      m.name,
			Timestamp: m.started,
			RunID:     m.runID,
			Iteration: m.iteration,
			Scenario:  m.scenario,
			Steps:     m.t,
			RunTime:   time.Since(m.started),
		},
	}

	// Group recorded objects by type tag, the model itself first.
	var kinds []string
	groups := make(map[string][]*Object)
	add := func(o *Object) {
		if o.log.empty() {
			return
		}
		if _, ok := groups[o.kind]; !ok {
			kinds = append(kinds, o.kind)
		}
		groups[o.kind] = append(groups[o.kind], o)
	}
	add(&m.Object)
	for _, obj := range m.reg.Objects() {
		add(obj.base())
	}

	if len(kinds) > 0 {
		b.Variables = make(map[string]*table.Table, len(kinds))
		for _, kind := range kinds {
			b.Variables[kind] = varsTable(groups[kind])
		}
	}

	if len(m.measureNames) > 0 {
		b.MeasureNames = append([]string(nil), m.measureNames...)
		b.Measures = make(map[string]float64, len(m.measures))
		for k, v := range m.measures {
			b.Measures[k] = v
		}
	}
	return b
}

// varsTable merges the series of same-typed objects into one table
// indexed by (obj_id, t). A series contributes rows only from the step
// of its first recording; cells of variables not recorded at a given
// step stay nil.
func varsTable(objs []*Object) *table.Table {
	var columns []string
	seen := make(map[string]bool)
	for _, o := range objs {
		for _, name := range o.log.names {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}

	t := table.New([]string{"obj_id", "t"}, columns)
	for _, o := range objs {
		// Collect the distinct steps this object recorded at,
		// in ascending order (t is monotonic per run).
		var steps []int
		stepSeen := make(map[int]bool)
		rows := make(map[int]map[string]any)
		for _, name := range o.log.names {
			s := o.log.series[name]
			for i, st := range s.steps {
				if !stepSeen[st] {
					stepSeen[st] = true
					steps = append(steps, st)
					rows[st] = make(map[string]any)
				}
				rows[st][name] = s.values[i]
			}
		}
		slices.Sort(steps)
		for _, st := range steps {
			t.Append([]any{int(o.id), st}, rows[st])
		}
	}
	return t
}
