package experiment

import (
	"testing"

	"github.com/san-kum/agentlab/internal/abm"
	"github.com/san-kum/agentlab/internal/table"
)

func runBundles(t *testing.T, e *Experiment) []*abm.Bundle {
	t.Helper()
	bundles := make([]*abm.Bundle, e.Runs())
	for i := range bundles {
		b, err := e.RunSpec(i)
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		bundles[i] = b
	}
	return bundles
}

func sameTable(a, b *table.Table) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	if a.Len() != b.Len() {
		return false
	}
	cols := a.Columns()
	bCols := b.Columns()
	if len(cols) != len(bCols) {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		ai, bi := a.Index(i), b.Index(i)
		for j := range ai {
			if ai[j] != bi[j] {
				return false
			}
		}
		for _, c := range cols {
			if a.At(i, c) != b.At(i, c) {
				return false
			}
		}
	}
	return true
}

func TestCombineOrderIndependent(t *testing.T) {
	e, err := New("count", countFactory, Config{
		Parameters: []abm.Params{
			{"a": 1.0, "steps": 2},
			{"a": 2.0, "steps": 2},
		},
		Iterations: 2,
		Record:     true,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	bundles := runBundles(t, e)
	inOrder, err := Combine(e, bundles)
	if err != nil {
		t.Fatalf("combine failed: %v", err)
	}

	// Simulate pooled completion order.
	shuffled := []*abm.Bundle{bundles[2], bundles[0], bundles[3], bundles[1]}
	outOfOrder, err := Combine(e, shuffled)
	if err != nil {
		t.Fatalf("combine failed: %v", err)
	}

	if !sameTable(inOrder.Measures, outOfOrder.Measures) {
		t.Error("measures differ between submission and completion order")
	}
	for kind, tab := range inOrder.Variables {
		if !sameTable(tab, outOfOrder.Variables[kind]) {
			t.Errorf("variables[%s] differ between orders", kind)
		}
	}
}

type sometimesRecords struct {
	abm.Base
}

func (sometimesRecords) Step(m *abm.Model) error {
	if m.Scenario() == "silent" {
		return nil
	}
	m.Set("x", m.T())
	return m.Record("x")
}

func TestCombineToleratesMissingVariables(t *testing.T) {
	e, err := New("mixed", func() abm.Behavior { return sometimesRecords{} }, Config{
		Parameters: []abm.Params{{"steps": 2}},
		Scenarios:  []string{"loud", "silent"},
		Record:     true,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	out, err := e.Run(nil, false)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	model, ok := out.Variables["model"]
	if !ok {
		t.Fatal("expected model variables from the recording run")
	}
	// Only the loud run contributes rows; the silent run is not padded.
	if model.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", model.Len())
	}
	if model.Index(0)[0] != 0 {
		t.Errorf("expected rows keyed by run 0, got %v", model.Index(0))
	}
}

func TestOutputSections(t *testing.T) {
	e, err := New("count", countFactory, Config{
		Parameters: []abm.Params{
			{"a": 1.0, "steps": 1},
			{"a": 2.0, "steps": 1},
		},
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	out, err := e.Run(nil, false)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// Both fixed and varied exist: two-part report.
	sec, ok := out.Section("parameters")
	if !ok {
		t.Fatal("missing parameters section")
	}
	report, ok := sec.(ParamReport)
	if !ok {
		t.Fatalf("expected ParamReport, got %T", sec)
	}
	if report.Fixed["steps"] != 1 || report.Varied == nil {
		t.Errorf("unexpected report %+v", report)
	}

	if _, ok := out.Section("log"); !ok {
		t.Error("missing log section")
	}
	if _, ok := out.Section("variables"); ok {
		t.Error("variables section should be absent when record is off")
	}

	out.SetSection("sensitivity", "stub")
	if v, ok := out.Section("sensitivity"); !ok || v != "stub" {
		t.Error("collaborator section not retrievable")
	}
}

func TestOutputParametersAllFixed(t *testing.T) {
	e, _ := New("count", countFactory, Config{
		Parameters: []abm.Params{{"a": 1.0, "steps": 1}},
	})
	out, err := e.Run(nil, false)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	sec, _ := out.Section("parameters")
	fixed, ok := sec.(abm.Params)
	if !ok {
		t.Fatalf("expected flat fixed mapping, got %T", sec)
	}
	if fixed["a"] != 1.0 {
		t.Errorf("unexpected fixed params %v", fixed)
	}
}

func TestOutputParametersAllVaried(t *testing.T) {
	e, _ := New("count", countFactory, Config{
		Parameters: []abm.Params{{"a": 1.0}, {"a": 2.0}},
	})
	bundles := []*abm.Bundle{}
	out, err := Combine(e, bundles)
	if err != nil {
		t.Fatalf("combine failed: %v", err)
	}
	sec, _ := out.Section("parameters")
	if _, ok := sec.(*table.Table); !ok {
		t.Fatalf("expected varied table, got %T", sec)
	}
}
