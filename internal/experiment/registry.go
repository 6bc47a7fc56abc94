package experiment

import (
	"fmt"
	"slices"

	"github.com/san-kum/agentlab/internal/abm"
	"github.com/san-kum/agentlab/internal/models"
)

// Definition registers a model for lookup by name.
type Definition struct {
	Name        string
	Description string
	Factory     Factory
	Defaults    abm.Params
}

// Registry maps model names to their definitions.
type Registry struct {
	defs  map[string]Definition
	order []string
}

// NewRegistry returns a registry with the built-in models.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}

	r.Register(Definition{
		Name:        "wealth",
		Description: "boltzmann wealth transfer",
		Factory:     func() abm.Behavior { return models.NewWealth() },
		Defaults:    abm.Params{"agents": 100, "steps": 100},
	})
	r.Register(Definition{
		Name:        "virus",
		Description: "stochastic sir epidemic",
		Factory:     func() abm.Behavior { return models.NewVirus() },
		Defaults:    abm.Params{"agents": 200, "infected": 2, "spread": 0.3, "recover": 0.1, "steps": 300},
	})
	return r
}

// Register adds or replaces a definition.
func (r *Registry) Register(def Definition) {
	if _, ok := r.defs[def.Name]; !ok {
		r.order = append(r.order, def.Name)
	}
	r.defs[def.Name] = def
}

// Get looks up a model definition by name.
func (r *Registry) Get(name string) (Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("unknown model: %s", name)
	}
	return def, nil
}

// List returns the registered model names in registration order.
func (r *Registry) List() []string {
	return slices.Clone(r.order)
}
