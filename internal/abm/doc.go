// Package abm provides the agent-based simulation core.
//
// A [Model] owns a registry of simulation objects and drives one run
// through a fixed lifecycle: setup, step loop, stop, output extraction.
// User models implement the [Behavior] interface:
//
//   - Setup is called once per run before the first step
//   - Step is called once per time step until a stop condition fires
//
// Objects are created through the model's registry:
//
//	agents, _ := m.AddAgents(100, nil, abm.Attrs{"wealth": 1})
//	env, _ := m.AddEnv(nil, nil)
//	env.AddMembers(agents...)
//
// Dynamic variables are recorded per object and per step with
// [Object.Record]; a finished run is extracted into an immutable
// [Bundle] that the experiment layer merges across runs.
package abm
