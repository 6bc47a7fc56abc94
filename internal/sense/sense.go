// Package sense reshapes experiment measures into per-parameter
// sensitivity indices. The heavy lifting is pluggable: an [Analyzer]
// receives the sampled parameter values and the per-sample measure
// values and returns one index per parameter, so correlation screens
// and variance decompositions share the same plumbing.
package sense

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/agentlab/internal/abm"
	"github.com/san-kum/agentlab/internal/experiment"
	"github.com/san-kum/agentlab/internal/measure"
	"github.com/san-kum/agentlab/internal/table"
)

// Problem describes the sampled parameter space handed to an analyzer:
// one row per sample, parameter values in Names order.
type Problem struct {
	Names   []string
	Samples [][]float64
}

// Analyzer computes a sensitivity index per parameter for one measure.
// values holds the measure averaged over iterations, one entry per
// sample, aligned with p.Samples.
type Analyzer func(p Problem, values []float64) (map[string]float64, error)

// Analyze reduces an experiment output to a sensitivity table indexed
// by measure name, one column per varied parameter. Repeated
// iterations and scenarios of the same sample are averaged first.
func Analyze(out *experiment.Output, fn Analyzer) (*table.Table, error) {
	if out.Measures == nil {
		return nil, fmt.Errorf("sense: no measures to analyze: %w", abm.ErrAggregation)
	}
	varied := out.Parameters.Varied
	if varied == nil {
		return nil, fmt.Errorf("sense: no varied parameters: %w", abm.ErrAggregation)
	}

	problem, err := buildProblem(varied)
	if err != nil {
		return nil, err
	}

	scenarios := len(out.Log.Scenarios)
	if scenarios == 0 {
		scenarios = 1
	}
	perSample := groupBySample(out.Measures, len(problem.Samples), scenarios)

	measures := out.Measures.Columns()
	result := table.New([]string{"measure"}, problem.Names)
	for _, name := range measures {
		values := make([]float64, len(problem.Samples))
		for s, runs := range perSample[name] {
			values[s] = measure.Mean(runs)
		}
		indices, err := fn(problem, values)
		if err != nil {
			return nil, fmt.Errorf("sense: %s: %w", name, err)
		}
		row := make(map[string]any, len(indices))
		for _, p := range problem.Names {
			row[p] = indices[p]
		}
		if err := result.Append([]any{name}, row); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Attach runs Analyze and stores the result under the output's
// "sensitivity" section.
func Attach(out *experiment.Output, fn Analyzer) error {
	t, err := Analyze(out, fn)
	if err != nil {
		return err
	}
	out.SetSection("sensitivity", t)
	return nil
}

// buildProblem extracts the numeric varied parameters, skipping
// columns that do not convert to float64.
func buildProblem(varied *table.Table) (Problem, error) {
	var names []string
	columns := make(map[string][]float64)
	for _, c := range varied.Columns() {
		vals, err := varied.Floats(c)
		if err != nil {
			continue
		}
		names = append(names, c)
		columns[c] = vals
	}
	sort.Strings(names)
	if len(names) == 0 {
		return Problem{}, fmt.Errorf("sense: no numeric varied parameters: %w", abm.ErrAggregation)
	}

	n := varied.Len()
	samples := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(names))
		for j, name := range names {
			row[j] = columns[name][i]
		}
		samples[i] = row
	}
	return Problem{Names: names, Samples: samples}, nil
}

// groupBySample buckets each measure's run values by sample index.
// Run ids enumerate iteration-major with scenarios innermost, so the
// sample of run r is (r / scenarios) mod samples.
func groupBySample(measures *table.Table, samples, scenarios int) map[string][][]float64 {
	grouped := make(map[string][][]float64)
	for _, name := range measures.Columns() {
		grouped[name] = make([][]float64, samples)
	}
	for i := 0; i < measures.Len(); i++ {
		runID, ok := measures.Index(i)[0].(int)
		if !ok {
			continue
		}
		s := (runID / scenarios) % samples
		for _, name := range measures.Columns() {
			v, ok := toFloat(measures.At(i, name))
			if !ok {
				continue
			}
			grouped[name][s] = append(grouped[name][s], v)
		}
	}
	return grouped
}

// Correlation is a Pearson screening analyzer: the index of each
// parameter is its linear correlation with the measure across samples.
func Correlation(p Problem, values []float64) (map[string]float64, error) {
	if len(values) != len(p.Samples) {
		return nil, fmt.Errorf("%d values for %d samples", len(values), len(p.Samples))
	}
	out := make(map[string]float64, len(p.Names))
	for j, name := range p.Names {
		xs := make([]float64, len(p.Samples))
		for i, row := range p.Samples {
			xs[i] = row[j]
		}
		out[name] = pearson(xs, values)
	}
	return out, nil
}

func pearson(xs, ys []float64) float64 {
	mx, my := measure.Mean(xs), measure.Mean(ys)
	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	}
	return 0, false
}
