package experiment

import (
	"fmt"

	"github.com/san-kum/agentlab/internal/abm"
)

// RunSpec executes the run with the given id and returns its bundle.
// It is a pure function of the spec: it instantiates a private model,
// runs it to completion and extracts the output, touching nothing
// outside its inputs. This is the unit of work dispatched to pools.
func (e *Experiment) RunSpec(runID int) (*abm.Bundle, error) {
	if runID < 0 || runID >= len(e.specs) {
		return nil, fmt.Errorf("experiment %q: no run %d: %w", e.name, runID, abm.ErrNotFound)
	}
	spec := e.specs[runID]

	m := abm.New(e.name, e.factory(), spec.Parameters.Clone())
	m.SetRun(spec.RunID, spec.Iteration, spec.Scenario)
	return m.Run(abm.RunConfig{Steps: -1})
}
