// Package sample generates ordered parameter samples for experiments.
// Each generator expands a base parameter set with value combinations
// for the swept names; the resulting list order is deterministic so a
// sensitivity method consuming the measures can rely on it.
package sample

import (
	"math/rand"
	"sort"

	"github.com/san-kum/agentlab/internal/abm"
)

// Range is a continuous parameter interval.
type Range struct {
	Min float64
	Max float64
}

// Linear returns the full grid product of n evenly spaced values per
// swept parameter, names in sorted order, last name varying fastest.
func Linear(base abm.Params, ranges map[string]Range, n int) []abm.Params {
	if n < 1 {
		n = 1
	}
	levels := make(map[string][]any, len(ranges))
	for name, r := range ranges {
		vals := make([]any, n)
		for i := 0; i < n; i++ {
			if n == 1 {
				vals[i] = r.Min
				continue
			}
			vals[i] = r.Min + (r.Max-r.Min)*float64(i)/float64(n-1)
		}
		levels[name] = vals
	}
	return Grid(base, levels)
}

// IntLinear is Linear over integer intervals, inclusive of both ends.
func IntLinear(base abm.Params, ranges map[string][2]int) []abm.Params {
	levels := make(map[string][]any, len(ranges))
	for name, r := range ranges {
		var vals []any
		for v := r[0]; v <= r[1]; v++ {
			vals = append(vals, v)
		}
		levels[name] = vals
	}
	return Grid(base, levels)
}

// Grid returns the product of explicit value levels per parameter.
func Grid(base abm.Params, levels map[string][]any) []abm.Params {
	names := make([]string, 0, len(levels))
	for name := range levels {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []abm.Params
	var walk func(depth int, current abm.Params)
	walk = func(depth int, current abm.Params) {
		if depth == len(names) {
			out = append(out, current.Clone())
			return
		}
		name := names[depth]
		for _, v := range levels[name] {
			current[name] = v
			walk(depth+1, current)
		}
	}
	walk(0, base.Clone())
	return out
}

// Random returns n samples drawn uniformly from the ranges, seeded for
// reproducibility.
func Random(base abm.Params, ranges map[string]Range, n int, seed int64) []abm.Params {
	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	sort.Strings(names)

	rng := rand.New(rand.NewSource(seed))
	out := make([]abm.Params, 0, n)
	for i := 0; i < n; i++ {
		p := base.Clone()
		for _, name := range names {
			r := ranges[name]
			p[name] = r.Min + rng.Float64()*(r.Max-r.Min)
		}
		out = append(out, p)
	}
	return out
}
