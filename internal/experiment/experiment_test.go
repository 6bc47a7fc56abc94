package experiment

import (
	"errors"
	"testing"

	"github.com/san-kum/agentlab/internal/abm"
)

// countModel records its parameter "a" scaled by time and reports the
// final t as a measure.
type countModel struct {
	abm.Base
}

func (countModel) Step(m *abm.Model) error {
	a, _ := m.Params().Float("a")
	m.Set("x", a*float64(m.T()))
	return m.Record("x")
}

func (countModel) End(m *abm.Model) error {
	m.Measure("final_t", float64(m.T()))
	a, _ := m.Params().Float("a")
	m.Measure("a_out", a)
	return nil
}

func countFactory() abm.Behavior { return countModel{} }

func TestExpansion(t *testing.T) {
	e, err := New("count", countFactory, Config{
		Parameters: []abm.Params{
			{"a": 1.0, "steps": 2},
			{"a": 2.0, "steps": 2},
		},
		Iterations: 3,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if e.Runs() != 6 {
		t.Fatalf("expected 6 runs, got %d", e.Runs())
	}

	specs := e.Specs()
	for i, spec := range specs {
		if spec.RunID != i {
			t.Errorf("spec %d has run id %d", i, spec.RunID)
		}
	}
	// Iteration-major, sample-minor ordering.
	if specs[0].Sample != 0 || specs[1].Sample != 1 || specs[2].Iteration != 1 {
		t.Errorf("unexpected expansion order: %+v", specs[:3])
	}
}

func TestExpansionScenarios(t *testing.T) {
	e, err := New("count", countFactory, Config{
		Parameters: []abm.Params{{"steps": 1}},
		Scenarios:  []string{"base", "treated"},
		Iterations: 2,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if e.Runs() != 4 {
		t.Fatalf("expected 4 runs, got %d", e.Runs())
	}
	specs := e.Specs()
	if specs[0].Scenario != "base" || specs[1].Scenario != "treated" {
		t.Errorf("unexpected scenarios: %+v", specs[:2])
	}
}

func TestPartitionFixedAndVaried(t *testing.T) {
	e, err := New("count", countFactory, Config{
		Parameters: []abm.Params{
			{"a": 1.0, "steps": 2},
			{"a": 2.0, "steps": 2},
		},
		Iterations: 3,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	fixed := e.FixedParameters()
	if fixed["steps"] != 2 {
		t.Errorf("expected steps in fixed section, got %v", fixed)
	}
	if _, ok := fixed["a"]; ok {
		t.Error("varied parameter leaked into fixed section")
	}

	varied := e.VariedParameters()
	if varied == nil {
		t.Fatal("expected varied table")
	}
	if varied.Len() != 2 {
		t.Errorf("expected 2 sample rows, got %d", varied.Len())
	}
	if varied.At(1, "a") != 2.0 {
		t.Errorf("expected a=2 for sample 1, got %v", varied.At(1, "a"))
	}
}

func TestUncomparableParameter(t *testing.T) {
	_, err := New("count", countFactory, Config{
		Parameters: []abm.Params{{"bad": []int{1, 2}}},
	})
	if !errors.Is(err, abm.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	e, err := New("count", countFactory, Config{Parameters: []abm.Params{{"steps": 1}}})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if e.Runs() != 1 {
		t.Errorf("expected 1 run with defaults, got %d", e.Runs())
	}
	if e.VariedParameters() != nil {
		t.Error("expected no varied parameters for a single sample")
	}
}

func TestRunSequential(t *testing.T) {
	e, err := New("count", countFactory, Config{
		Parameters: []abm.Params{
			{"a": 1.0, "steps": 3},
			{"a": 2.0, "steps": 3},
		},
		Iterations: 3,
		Record:     true,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	var updates []Progress
	e.OnProgress = func(p Progress) { updates = append(updates, p) }

	out, err := e.Run(nil, false)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if out.Log.Runs != 6 {
		t.Errorf("expected 6 runs in log, got %d", out.Log.Runs)
	}
	if len(updates) != 6 || updates[5].Completed != 6 || updates[5].Total != 6 {
		t.Errorf("unexpected progress updates: %+v", updates)
	}

	if out.Measures == nil || out.Measures.Len() != 6 {
		t.Fatal("expected one measures row per run")
	}
	// Rows land in run-id order.
	for i := 0; i < 6; i++ {
		if out.Measures.Index(i)[0] != i {
			t.Errorf("row %d has run id %v", i, out.Measures.Index(i)[0])
		}
	}

	model, ok := out.Variables["model"]
	if !ok {
		t.Fatal("expected merged model variables")
	}
	// 6 runs x 3 steps.
	if model.Len() != 18 {
		t.Errorf("expected 18 variable rows, got %d", model.Len())
	}
	names := model.IndexNames()
	if len(names) != 3 || names[0] != "run_id" || names[1] != "obj_id" || names[2] != "t" {
		t.Errorf("unexpected index names %v", names)
	}
}

func TestRunRecordDisabled(t *testing.T) {
	e, err := New("count", countFactory, Config{
		Parameters: []abm.Params{{"a": 1.0, "steps": 2}},
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	out, err := e.Run(nil, false)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out.Variables != nil {
		t.Error("expected no variables when record is disabled")
	}
	if out.Measures == nil {
		t.Error("measures should be kept regardless of record")
	}
}

type brokenModel struct {
	abm.Base
}

func (brokenModel) Step(m *abm.Model) error {
	if m.RunID() == 1 {
		return errors.New("boom")
	}
	return nil
}

func TestRunAbortsOnFailure(t *testing.T) {
	e, err := New("broken", func() abm.Behavior { return brokenModel{} }, Config{
		Parameters: []abm.Params{{"steps": 1}},
		Iterations: 3,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if _, err := e.Run(nil, false); err == nil {
		t.Fatal("expected a failing run to abort the experiment")
	}
}

func TestRunSpecOutOfRange(t *testing.T) {
	e, _ := New("count", countFactory, Config{Parameters: []abm.Params{{"steps": 1}}})
	if _, err := e.RunSpec(5); !errors.Is(err, abm.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRunPooled(t *testing.T) {
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

	out, err := e.Run(NewWorkerPool(4), false)
	if err != nil {
		t.Fatalf("pooled run failed: %v", err)
	}
	if out.Measures.Len() != 4 {
		t.Fatalf("expected 4 measure rows, got %d", out.Measures.Len())
	}
	// Re-associated by run id despite arbitrary completion order.
	for i := 0; i < 4; i++ {
		if out.Measures.Index(i)[0] != i {
			t.Errorf("row %d has run id %v", i, out.Measures.Index(i)[0])
		}
	}
}

func TestWorkerPoolPropagatesFailure(t *testing.T) {
	e, _ := New("broken", func() abm.Behavior { return brokenModel{} }, Config{
		Parameters: []abm.Params{{"steps": 1}},
		Iterations: 4,
	})
	if _, err := e.Run(NewWorkerPool(2), false); err == nil {
		t.Fatal("expected pool failure to propagate")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	names := r.List()
	if len(names) < 2 {
		t.Fatalf("expected built-in models, got %v", names)
	}

	def, err := r.Get("wealth")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if def.Factory == nil || def.Defaults == nil {
		t.Error("incomplete definition")
	}
	if _, err := r.Get("nope"); err == nil {
		t.Error("expected error for unknown model")
	}
}
