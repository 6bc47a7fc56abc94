package abm

import (
	"errors"
	"testing"
)

type stopAtTwo struct {
	Base
}

func (stopAtTwo) Step(m *Model) error {
	if m.T() == 2 {
		m.Stop()
	}
	return nil
}

func TestRunStepsParameter(t *testing.T) {
	m := New("test", nil, Params{"steps": 0})
	if m.T() != 0 {
		t.Fatalf("expected t=0 before run, got %d", m.T())
	}
	if _, err := m.Run(RunConfig{Steps: -1}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if m.T() != 0 {
		t.Errorf("expected t=0 with steps=0, got %d", m.T())
	}

	m.params["steps"] = 1
	if _, err := m.Run(RunConfig{Steps: -1}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if m.T() != 1 {
		t.Errorf("expected t=1 with steps=1, got %d", m.T())
	}
}

func TestRunExplicitStepsOverridesParameter(t *testing.T) {
	m := New("test", nil, Params{"steps": 50})
	if _, err := m.Run(RunConfig{Steps: 3}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if m.T() != 3 {
		t.Errorf("expected t=3, got %d", m.T())
	}
}

func TestRunHardCeiling(t *testing.T) {
	m := New("test", nil, nil)
	m.t = 999_999

	_, err := m.Run(RunConfig{Steps: -1})
	if !errors.Is(err, ErrRuntimeLimit) {
		t.Fatalf("expected ErrRuntimeLimit, got %v", err)
	}
	if m.T() != HardCeiling {
		t.Errorf("expected t=%d, got %d", HardCeiling, m.T())
	}
}

func TestRunTMaxZero(t *testing.T) {
	m := New("test", nil, Params{"steps": 1})
	m.SetTMax(0)

	if _, err := m.Run(RunConfig{Steps: -1}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if m.T() != 0 {
		t.Errorf("expected t unchanged at 0, got %d", m.T())
	}
}

func TestStop(t *testing.T) {
	m := New("test", stopAtTwo{}, nil)
	if _, err := m.Run(RunConfig{Steps: -1}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if m.T() != 2 {
		t.Errorf("expected stop at t=2, got %d", m.T())
	}
}

type failingStep struct {
	Base
}

func (failingStep) Step(m *Model) error {
	return errors.New("boom")
}

func TestRunStepError(t *testing.T) {
	m := New("test", failingStep{}, Params{"steps": 5})
	if _, err := m.Run(RunConfig{Steps: -1}); err == nil {
		t.Fatal("expected step error to propagate")
	}
	if m.State() != StateStopped {
		t.Errorf("expected stopped state, got %v", m.State())
	}
}

func TestRunStates(t *testing.T) {
	m := New("test", nil, Params{"steps": 1})
	if m.State() != StateCreated {
		t.Errorf("expected created state, got %v", m.State())
	}
	if _, err := m.Run(RunConfig{Steps: -1}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if m.State() != StateOutputReady {
		t.Errorf("expected output_ready state, got %v", m.State())
	}
}

func TestRunSeedDeterminism(t *testing.T) {
	draw := func(seed int64) int {
		m := New("test", nil, Params{"steps": 1})
		if err := m.RunSetup(RunConfig{Steps: -1, Seed: seed}); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		return m.RNG().Intn(1 << 30)
	}

	if draw(42) != draw(42) {
		t.Error("same seed should draw the same value")
	}
	if draw(42) == draw(43) {
		t.Error("different seeds should draw different values")
	}
}

func TestMeasure(t *testing.T) {
	m := New("test", nil, Params{"steps": 1})
	m.Measure("gini", 0.5)
	m.Measure("peak", 10)
	m.Measure("gini", 0.6) // overwrite keeps order

	b, err := m.Run(RunConfig{Steps: -1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(b.MeasureNames) != 2 || b.MeasureNames[0] != "gini" || b.MeasureNames[1] != "peak" {
		t.Errorf("unexpected measure names %v", b.MeasureNames)
	}
	if b.Measures["gini"] != 0.6 {
		t.Errorf("expected gini 0.6, got %f", b.Measures["gini"])
	}
}
