package abm

import (
	"fmt"
	"slices"
)

// ID identifies a simulation object. IDs are issued by the model's
// registry, start at 1, and are never reused after deletion. The model
// itself records under id 0.
type ID int

// Attrs holds creation keywords and dynamic object attributes.
type Attrs map[string]any

// Initializer applies creation keywords to a freshly created object.
// Two variants exist: [StructuredInit] validates keywords against a
// declared parameter list, while the generic default assigns every
// keyword as a plain attribute.
type Initializer interface {
	Apply(o *Object, kwargs Attrs) error
}

// genericInit assigns every keyword as an attribute.
type genericInit struct{}

func (genericInit) Apply(o *Object, kwargs Attrs) error {
	for k, v := range kwargs {
		o.Set(k, v)
	}
	return nil
}

// StructuredInit accepts only the declared keywords. If Setup is nil,
// accepted keywords are assigned as attributes.
type StructuredInit struct {
	Accepts []string
	Setup   func(o *Object, kwargs Attrs) error
}

func (s StructuredInit) Apply(o *Object, kwargs Attrs) error {
	for k := range kwargs {
		if !slices.Contains(s.Accepts, k) {
			return fmt.Errorf("abm: type %q does not accept keyword %q: %w",
				o.kind, k, ErrSetupArgument)
		}
	}
	if s.Setup != nil {
		return s.Setup(o, kwargs)
	}
	for k, v := range kwargs {
		o.Set(k, v)
	}
	return nil
}

// Type describes an object type: a tag plus its initializer variant.
// A nil Init selects the generic assign-any-keyword initializer.
type Type struct {
	Name string
	Init Initializer
}

func (t *Type) initializer() Initializer {
	if t.Init != nil {
		return t.Init
	}
	return genericInit{}
}

// Default object types.
var (
	AgentType = &Type{Name: "agent"}
	EnvType   = &Type{Name: "env"}
)

// SimObject is implemented by agents, environments and the model itself.
type SimObject interface {
	ID() ID
	Kind() string
	Get(name string) (any, bool)
	Set(name string, v any)
	VarKeys() []string
	Record(names ...string) error
	RecordAll() error

	base() *Object
}

// Object is the shared core of all simulation objects: identity, type
// tag, attributes and the per-object recording log.
type Object struct {
	id    ID
	kind  string
	model *Model
	attrs Attrs
	keys  []string // attribute names in first-set order
	log   recordLog
}

func (o *Object) ID() ID       { return o.id }
func (o *Object) Kind() string { return o.kind }

func (o *Object) base() *Object { return o }

// Set assigns a dynamic attribute.
func (o *Object) Set(name string, v any) {
	if _, ok := o.attrs[name]; !ok {
		o.keys = append(o.keys, name)
	}
	o.attrs[name] = v
}

// Get reads a dynamic attribute.
func (o *Object) Get(name string) (any, bool) {
	v, ok := o.attrs[name]
	return v, ok
}

// Float reads a numeric attribute as float64, or 0 if unset.
func (o *Object) Float(name string) float64 {
	switch v := o.attrs[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Int reads an integer attribute, or 0 if unset.
func (o *Object) Int(name string) int {
	switch v := o.attrs[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// VarKeys lists the object's dynamic variable names in first-set order.
func (o *Object) VarKeys() []string {
	return slices.Clone(o.keys)
}

// Agent is a simulation agent.
type Agent struct {
	Object
}

// AgentList is an ordered list of agents.
type AgentList []*Agent

// IDs returns the agents' ids in list order.
func (l AgentList) IDs() []ID {
	ids := make([]ID, len(l))
	for i, a := range l {
		ids[i] = a.id
	}
	return ids
}

// Env is an environment or topology object. It tracks its member
// agents as an id set rather than holding object references, so that
// deletion stays a local bookkeeping operation.
type Env struct {
	Object
	members   []ID
	memberSet map[ID]struct{}
}

// AddMembers registers agents as members of the environment.
func (e *Env) AddMembers(agents ...*Agent) {
	for _, a := range agents {
		if _, ok := e.memberSet[a.id]; ok {
			continue
		}
		e.memberSet[a.id] = struct{}{}
		e.members = append(e.members, a.id)
	}
}

// MemberIDs returns the member agent ids in insertion order.
func (e *Env) MemberIDs() []ID {
	return slices.Clone(e.members)
}

// HasMember reports whether the agent id is a member.
func (e *Env) HasMember(id ID) bool {
	_, ok := e.memberSet[id]
	return ok
}

func (e *Env) removeMember(id ID) {
	if _, ok := e.memberSet[id]; !ok {
		return
	}
	delete(e.memberSet, id)
	e.members = slices.DeleteFunc(e.members, func(m ID) bool { return m == id })
}
