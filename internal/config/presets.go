package config

var Presets = map[string]map[string]*Config{
	"wealth": {
		"quick": {
			Model: "wealth", Iterations: 1, Record: true,
			Parameters: map[string]any{"agents": 50, "steps": 50},
		},
		"baseline": {
			Model: "wealth", Iterations: 5, Record: true,
			Parameters: map[string]any{"agents": 100, "steps": 100},
		},
		"size-sweep": {
			Model: "wealth", Iterations: 5, Workers: 4,
			Parameters: map[string]any{"steps": 100},
			Sweeps:     map[string]Sweep{"agents": {Min: 50, Max: 500, N: 10}},
		},
	},
	"virus": {
		"outbreak": {
			Model: "virus", Iterations: 10, Record: true,
			Parameters: map[string]any{"agents": 200, "infected": 2, "spread": 0.3, "recover": 0.1, "steps": 300},
		},
		"distancing": {
			Model: "virus", Iterations: 10, Scenarios: []string{"base", "distancing"},
			Parameters: map[string]any{"agents": 200, "infected": 2, "spread": 0.3, "recover": 0.1, "steps": 300},
		},
		"spread-sweep": {
			Model: "virus", Iterations: 10, Workers: 4,
			Parameters: map[string]any{"agents": 200, "infected": 2, "recover": 0.1, "steps": 300},
			Sweeps:     map[string]Sweep{"spread": {Min: 0.1, Max: 0.9, N: 9}},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil if the model or
// preset is unknown. Callers may mutate the result freely.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	return names
}
