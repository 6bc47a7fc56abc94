// Package models provides example agent-based models built on the abm
// core. Each model implements [abm.Behavior] and reads its settings
// from the run parameters.
package models

import (
	"github.com/san-kum/agentlab/internal/abm"
	"github.com/san-kum/agentlab/internal/measure"
)

// Wealth is a Boltzmann wealth-transfer model: every agent starts with
// one unit and hands one unit to a random peer each step. Inequality
// emerges from nothing but random exchange.
//
// Parameters: "agents" (population, default 100), "steps".
type Wealth struct {
	abm.Base
}

// NewWealth returns the behavior for one run.
func NewWealth() *Wealth { return &Wealth{} }

func (w *Wealth) Setup(m *abm.Model) error {
	n, ok := m.Params().Int("agents")
	if !ok {
		n = 100
	}
	_, err := m.AddAgents(n, nil, abm.Attrs{"wealth": 1})
	return err
}

func (w *Wealth) Step(m *abm.Model) error {
	agents := m.Agents()
	for _, a := range agents {
		if a.Int("wealth") <= 0 {
			continue
		}
		other := agents[m.RNG().Intn(len(agents))]
		a.Set("wealth", a.Int("wealth")-1)
		other.Set("wealth", other.Int("wealth")+1)
	}

	m.Set("gini", w.gini(m))
	return m.Record("gini")
}

func (w *Wealth) End(m *abm.Model) error {
	m.Measure("gini", w.gini(m))
	return nil
}

func (w *Wealth) gini(m *abm.Model) float64 {
	agents := m.Agents()
	wealth := make([]float64, len(agents))
	for i, a := range agents {
		wealth[i] = a.Float("wealth")
	}
	return measure.Gini(wealth)
}
