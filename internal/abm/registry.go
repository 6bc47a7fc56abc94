package abm

import (
	"fmt"
	"slices"
)

// Registry owns the live objects of one model. Ids continue a single
// monotonic counter and are never reused after deletion.
type Registry struct {
	model  *Model
	nextID ID
	agents AgentList
	envs   []*Env
	order  []SimObject // creation order across agents and envs
}

func newRegistry(m *Model) *Registry {
	return &Registry{model: m, nextID: 1}
}

func (r *Registry) allocID() ID {
	id := r.nextID
	r.nextID++
	return id
}

// AddAgents creates n agents of the given type (the default agent type
// if typ is nil) and applies the type's initializer with kwargs. On an
// initializer error no object from the call is registered, though the
// consumed ids stay burned.
func (r *Registry) AddAgents(n int, typ *Type, kwargs Attrs) (AgentList, error) {
	if typ == nil {
		typ = AgentType
	}
	created := make(AgentList, 0, n)
	for i := 0; i < n; i++ {
		a := &Agent{Object: Object{
			id:    r.allocID(),
			kind:  typ.Name,
			model: r.model,
			attrs: Attrs{},
		}}
		if err := typ.initializer().Apply(&a.Object, kwargs); err != nil {
			return nil, err
		}
		created = append(created, a)
	}
	r.agents = append(r.agents, created...)
	for _, a := range created {
		r.order = append(r.order, a)
	}
	return created, nil
}

// AddEnv creates a single environment object of the given type (the
// default env type if typ is nil) and returns it so the caller may
// alias it.
func (r *Registry) AddEnv(typ *Type, kwargs Attrs) (*Env, error) {
	if typ == nil {
		typ = EnvType
	}
	e := &Env{
		Object: Object{
			id:    r.allocID(),
			kind:  typ.Name,
			model: r.model,
			attrs: Attrs{},
		},
		memberSet: make(map[ID]struct{}),
	}
	if err := typ.initializer().Apply(&e.Object, kwargs); err != nil {
		return nil, err
	}
	r.envs = append(r.envs, e)
	r.order = append(r.order, e)
	return e, nil
}

// Delete removes the object from the registry and from every
// environment's membership set. Deleting an object that is not
// registered fails with [ErrNotFound].
func (r *Registry) Delete(obj SimObject) error {
	i := slices.IndexFunc(r.order, func(o SimObject) bool { return o.base() == obj.base() })
	if i < 0 {
		return fmt.Errorf("abm: delete %s #%d: %w", obj.Kind(), obj.ID(), ErrNotFound)
	}
	r.order = slices.Delete(r.order, i, i+1)

	switch o := obj.(type) {
	case *Agent:
		r.agents = slices.DeleteFunc(r.agents, func(a *Agent) bool { return a == o })
	case *Env:
		r.envs = slices.DeleteFunc(r.envs, func(e *Env) bool { return e == o })
	}
	for _, e := range r.envs {
		e.removeMember(obj.ID())
	}
	return nil
}

// Agents returns the live agents in creation order.
func (r *Registry) Agents() AgentList {
	return slices.Clone(r.agents)
}

// Envs returns the live environments in creation order.
func (r *Registry) Envs() []*Env {
	return slices.Clone(r.envs)
}

// Objects returns the ordered union of live agents and environments.
// The slice is a snapshot: deleting objects while iterating over it
// does not perturb the iteration.
func (r *Registry) Objects() []SimObject {
	return slices.Clone(r.order)
}
