package config

import "sort"

var Presets = map[string]*Config{
	"tower": DefaultConfig(),
	"tower-fine": {
		Name: "baseball", Dt: 0.001, Duration: 50.0,
		Mass: DefaultMass, Drag: DefaultDrag, Gravity: DefaultGravity, Height: DefaultHeight,
		Policy: "independent-report", Impact: DefaultImpact,
	},
	"vacuum": {
		Name: "baseball-vacuum", Dt: DefaultDt, Duration: DefaultDuration,
		Mass: DefaultMass, Drag: 0, Gravity: DefaultGravity, Height: DefaultHeight,
		Policy: DefaultPolicy, Impact: DefaultImpact,
	},
	"ground": {
		Name: "baseball-ground", Dt: DefaultDt, Duration: DefaultDuration,
		Mass: DefaultMass, Drag: DefaultDrag, Gravity: DefaultGravity, Height: 0,
		Policy: DefaultPolicy, Impact: DefaultImpact,
	},
	"heavy": {
		Name: "shot-put", Dt: DefaultDt, Duration: DefaultDuration,
		Mass: 7.26, Drag: 2.2e-3, Gravity: DefaultGravity, Height: DefaultHeight,
		Policy: DefaultPolicy, Impact: DefaultImpact,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
