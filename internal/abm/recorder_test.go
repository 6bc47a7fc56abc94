package abm

import (
	"errors"
	"testing"
)

func TestRecordNamed(t *testing.T) {
	m := New("test", nil, nil)
	m.Set("v1", 1)
	m.Set("v2", 2)

	if err := m.Record("v1", "v2"); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	vars := m.RecordedVars()
	if len(vars) != 2 {
		t.Fatalf("expected 2 recorded vars, got %v", vars)
	}
	if steps, values := m.Series("v1"); len(values) != 1 || values[0] != 1 || steps[0] != 0 {
		t.Errorf("unexpected v1 series: %v %v", steps, values)
	}
	if _, values := m.Series("v2"); len(values) != 1 || values[0] != 2 {
		t.Errorf("unexpected v2 series: %v", values)
	}
}

func TestRecordAll(t *testing.T) {
	m := New("test", nil, nil)
	m.Set("v1", 1)
	m.Set("v2", 2)

	if err := m.RecordAll(); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	vars := m.RecordedVars()
	if len(vars) != 2 || vars[0] != "v1" || vars[1] != "v2" {
		t.Fatalf("expected vars [v1 v2], got %v", vars)
	}
	if _, values := m.Series("v1"); len(values) != 1 || values[0] != 1 {
		t.Errorf("unexpected v1 series: %v", values)
	}
}

func TestRecordUnknownAttribute(t *testing.T) {
	m := New("test", nil, nil)
	err := m.Record("missing")
	if !errors.Is(err, ErrAttributeRecord) {
		t.Errorf("expected ErrAttributeRecord, got %v", err)
	}
}

type midRunRecorder struct {
	Base
}

func (midRunRecorder) Step(m *Model) error {
	m.Set("a", m.T())
	if m.T() >= 3 {
		m.Set("b", m.T()*10)
	}
	return m.RecordAll()
}

func TestRecordStartsAtFirstRequest(t *testing.T) {
	m := New("test", midRunRecorder{}, Params{"steps": 5})
	if _, err := m.Run(RunConfig{Steps: -1}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	stepsA, _ := m.Series("a")
	if len(stepsA) != 5 || stepsA[0] != 1 {
		t.Errorf("unexpected a steps: %v", stepsA)
	}

	// b was introduced at t=3; no back-fill of earlier steps.
	stepsB, valuesB := m.Series("b")
	if len(stepsB) != 3 || stepsB[0] != 3 {
		t.Errorf("unexpected b steps: %v", stepsB)
	}
	if valuesB[0] != 30 || valuesB[2] != 50 {
		t.Errorf("unexpected b values: %v", valuesB)
	}
}

func TestRecordPerAgent(t *testing.T) {
	m := New("test", nil, nil)
	agents, _ := m.AddAgents(2, nil, Attrs{"wealth": 1})

	for _, a := range agents {
		if err := a.Record("wealth"); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}
	if _, values := agents[1].Series("wealth"); len(values) != 1 || values[0] != 1 {
		t.Errorf("unexpected series: %v", values)
	}
	if steps, _ := agents[0].Series("missing"); steps != nil {
		t.Error("expected nil series for unrecorded variable")
	}
}
