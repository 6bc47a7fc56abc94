package sample

import (
	"testing"

	"github.com/san-kum/agentlab/internal/abm"
)

func TestLinearGrid(t *testing.T) {
	base := abm.Params{"steps": 10}
	samples := Linear(base, map[string]Range{
		"a": {Min: 0, Max: 1},
		"b": {Min: 2, Max: 4},
	}, 3)

	if len(samples) != 9 {
		t.Fatalf("expected 3x3 grid, got %d samples", len(samples))
	}
	for _, p := range samples {
		if p["steps"] != 10 {
			t.Fatal("base parameter lost during expansion")
		}
	}
	// Sorted names, last varies fastest: a is outer, b inner.
	if samples[0]["a"] != 0.0 || samples[0]["b"] != 2.0 {
		t.Errorf("unexpected first sample %v", samples[0])
	}
	if samples[1]["a"] != 0.0 || samples[1]["b"] != 3.0 {
		t.Errorf("unexpected second sample %v", samples[1])
	}
	if samples[8]["a"] != 1.0 || samples[8]["b"] != 4.0 {
		t.Errorf("unexpected last sample %v", samples[8])
	}
}

func TestLinearSinglePoint(t *testing.T) {
	samples := Linear(nil, map[string]Range{"a": {Min: 5, Max: 9}}, 1)
	if len(samples) != 1 || samples[0]["a"] != 5.0 {
		t.Errorf("expected single sample at range start, got %v", samples)
	}
}

func TestIntLinear(t *testing.T) {
	samples := IntLinear(abm.Params{"x": true}, map[string][2]int{"n": {2, 5}})
	if len(samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(samples))
	}
	for i, p := range samples {
		if p["n"] != 2+i {
			t.Errorf("sample %d has n=%v", i, p["n"])
		}
	}
}

func TestGridClonesBase(t *testing.T) {
	samples := Grid(abm.Params{"keep": 1}, map[string][]any{"v": {"x", "y"}})
	samples[0]["keep"] = 99
	if samples[1]["keep"] != 1 {
		t.Error("samples share underlying map")
	}
}

func TestRandomReproducible(t *testing.T) {
	ranges := map[string]Range{"a": {Min: 0, Max: 10}, "b": {Min: -1, Max: 1}}
	first := Random(nil, ranges, 5, 42)
	second := Random(nil, ranges, 5, 42)

	if len(first) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(first))
	}
	for i := range first {
		if first[i]["a"] != second[i]["a"] || first[i]["b"] != second[i]["b"] {
			t.Fatal("same seed produced different samples")
		}
		a := first[i]["a"].(float64)
		if a < 0 || a > 10 {
			t.Errorf("sample %d out of range: %v", i, a)
		}
	}

	other := Random(nil, ranges, 5, 7)
	if first[0]["a"] == other[0]["a"] && first[0]["b"] == other[0]["b"] {
		t.Error("different seeds produced identical first sample")
	}
}
