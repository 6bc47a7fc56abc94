package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/agentlab/internal/table"
)

const (
	plotWidth  = 80
	plotHeight = 10
)

// SeriesData extracts one recorded variable of one object in one run
// from a variables table, in step order. Single-run tables are indexed
// (obj_id, t); merged experiment tables carry a leading run_id.
func SeriesData(t *table.Table, column string, runID, objID int) ([]float64, error) {
	runPos, objPos := -1, -1
	for i, name := range t.IndexNames() {
		switch name {
		case "run_id":
			runPos = i
		case "obj_id":
			objPos = i
		}
	}

	var data []float64
	for i := 0; i < t.Len(); i++ {
		idx := t.Index(i)
		if runPos >= 0 && idx[runPos] != runID {
			continue
		}
		if objPos >= 0 && idx[objPos] != objID {
			continue
		}
		v := t.At(i, column)
		if v == nil {
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("viz: %s at row %d is %T, not numeric", column, i, v)
		}
		data = append(data, f)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("viz: no data for %s in run %d object %d", column, runID, objID)
	}
	return data, nil
}

// PlotSeries renders one recorded variable over time as an ASCII graph.
func PlotSeries(t *table.Table, column string, runID, objID int) (string, error) {
	data, err := SeriesData(t, column, runID, objID)
	if err != nil {
		return "", err
	}
	caption := fmt.Sprintf("%s over time (run %d)", column, runID)
	return asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	), nil
}

// PlotMeasure renders one measure across all runs of an experiment.
func PlotMeasure(measures *table.Table, name string) (string, error) {
	data, err := measures.Floats(name)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("viz: no values for measure %s", name)
	}
	caption := fmt.Sprintf("%s per run", name)
	return asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	), nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
