package experiment

import (
	"fmt"
	"sort"
	"time"

	"github.com/san-kum/agentlab/internal/abm"
	"github.com/san-kum/agentlab/internal/table"
)

// Combine merges run bundles into one output. The reduce is keyed by
// run id, never by arrival order, so bundles from a pool may arrive in
// any order and still merge identically. Bundles that omit a field are
// merged over only the subset that carries it; incompatible shapes
// fail with [abm.ErrAggregation].
func Combine(e *Experiment, bundles []*abm.Bundle) (*Output, error) {
	sorted := append([]*abm.Bundle(nil), bundles...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Log.RunID < sorted[j].Log.RunID
	})

	out := &Output{
		Log: ExperimentLog{
			Name:       e.name,
			Timestamp:  time.Now(),
			Iterations: e.cfg.Iterations,
			Scenarios:  append([]string(nil), e.cfg.Scenarios...),
			Runs:       len(sorted),
		},
		Parameters: ParamReport{Fixed: e.fixed.Clone(), Varied: e.varied},
	}

	keys := make([]any, len(sorted))
	for i, b := range sorted {
		keys[i] = b.Log.RunID
	}

	if e.cfg.Record {
		vars, err := combineVariables(sorted, keys)
		if err != nil {
			return nil, err
		}
		out.Variables = vars
	}

	measures, err := combineMeasures(sorted)
	if err != nil {
		return nil, err
	}
	out.Measures = measures

	return out, nil
}

// combineVariables merges same-typed variable tables across bundles,
// each object type independently.
func combineVariables(bundles []*abm.Bundle, keys []any) (map[string]*table.Table, error) {
	var kinds []string
	seen := make(map[string]bool)
	for _, b := range bundles {
		for kind := range b.Variables {
			if !seen[kind] {
				seen[kind] = true
				kinds = append(kinds, kind)
			}
		}
	}
	sort.Strings(kinds)
	if len(kinds) == 0 {
		return nil, nil
	}

	merged := make(map[string]*table.Table, len(kinds))
	for _, kind := range kinds {
		tables := make([]*table.Table, len(bundles))
		for i, b := range bundles {
			tables[i] = b.Variables[kind] // nil when the run omitted it
		}
		t, err := table.Stack("run_id", keys, tables)
		if err != nil {
			return nil, fmt.Errorf("experiment: variables[%s]: %w", kind, err)
		}
		merged[kind] = t
	}
	return merged, nil
}

// combineMeasures stacks per-run scalar measures into one table with
// one row per run that reported any.
func combineMeasures(bundles []*abm.Bundle) (*table.Table, error) {
	var columns []string
	seen := make(map[string]bool)
	for _, b := range bundles {
		for _, name := range b.MeasureNames {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}
	if len(columns) == 0 {
		return nil, nil
	}

	t := table.New([]string{"run_id"}, columns)
	for _, b := range bundles {
		if len(b.Measures) == 0 {
			continue
		}
		row := make(map[string]any, len(b.Measures))
		for name, v := range b.Measures {
			row[name] = v
		}
		if err := t.Append([]any{b.Log.RunID}, row); err != nil {
			return nil, err
		}
	}
	return t, nil
}
