package models

import (
	"github.com/san-kum/agentlab/internal/abm"
	"github.com/san-kum/agentlab/internal/measure"
)

// Agent infection states.
const (
	susceptible = "S"
	infected    = "I"
	recovered   = "R"
)

// Virus is a stochastic SIR model on a single shared population. Each
// infected agent exposes one random peer per step and may recover; the
// run stops itself once the infection dies out.
//
// Parameters: "agents" (population, default 50), "infected" (initial
// cases, default 1), "spread" (transmission probability, default 0.3),
// "recover" (recovery probability, default 0.1), "steps".
//
// The "distancing" scenario halves the transmission probability.
type Virus struct {
	abm.Base

	initial int
	total   int
}

// NewVirus returns the behavior for one run.
func NewVirus() *Virus { return &Virus{} }

func (v *Virus) Setup(m *abm.Model) error {
	n, ok := m.Params().Int("agents")
	if !ok {
		n = 50
	}
	initial, ok := m.Params().Int("infected")
	if !ok {
		initial = 1
	}

	agents, err := m.AddAgents(n, nil, abm.Attrs{"status": susceptible})
	if err != nil {
		return err
	}
	env, err := m.AddEnv(nil, nil)
	if err != nil {
		return err
	}
	env.AddMembers(agents...)

	for i := 0; i < initial && i < len(agents); i++ {
		agents[i].Set("status", infected)
	}
	v.initial = initial
	v.total = initial
	return nil
}

func (v *Virus) Step(m *abm.Model) error {
	spread, ok := m.Params().Float("spread")
	if !ok {
		spread = 0.3
	}
	if m.Scenario() == "distancing" {
		spread /= 2
	}
	recover, ok := m.Params().Float("recover")
	if !ok {
		recover = 0.1
	}

	agents := m.Agents()
	rng := m.RNG()
	for _, a := range agents {
		if status(a) != infected {
			continue
		}
		other := agents[rng.Intn(len(agents))]
		if status(other) == susceptible && rng.Float64() < spread {
			other.Set("status", infected)
			v.total++
		}
		if rng.Float64() < recover {
			a.Set("status", recovered)
		}
	}

	count := 0
	for _, a := range agents {
		if status(a) == infected {
			count++
		}
	}

	m.Set("infected", count)
	if err := m.Record("infected"); err != nil {
		return err
	}
	if count == 0 {
		m.Stop()
	}
	return nil
}

func (v *Virus) End(m *abm.Model) error {
	// The series starts at step 1, so the initial case count competes
	// with the recorded values for the peak.
	_, recorded := m.Series("infected")
	counts := make([]float64, 0, len(recorded)+1)
	counts = append(counts, float64(v.initial))
	for _, c := range recorded {
		if n, ok := c.(int); ok {
			counts = append(counts, float64(n))
		}
	}
	m.Measure("peak_infected", measure.Max(counts))
	m.Measure("total_infected", float64(v.total))
	m.Measure("duration", float64(m.T()))
	return nil
}

func status(a *abm.Agent) string {
	s, _ := a.Get("status")
	str, _ := s.(string)
	return str
}
