package config

import (
	"sort"

	"github.com/florianHoidn/rl-drone-env/internal/env"
)

func preset(name, controller string, duration float64, init InitStateConfig, target float64) *Config {
	cfg := DefaultConfig()
	cfg.Name = name
	cfg.Controller = controller
	cfg.Duration = duration
	cfg.InitState = init
	cfg.ControllerParams.TargetZ = target
	return cfg
}

var Presets = map[string]*Config{
	"hover": preset("hover", "hover", 10,
		InitStateConfig{Position: [3]float64{0, 0, 1}}, 1),
	"drop": func() *Config {
		cfg := preset("drop", "none", 1.5,
			InitStateConfig{Position: [3]float64{0, 0, 10}}, 10)
		cfg.Bounds = env.Bounds{Floor: 0}
		return cfg
	}(),
	"tilt": preset("tilt", "altitude_hold", 5,
		InitStateConfig{Position: [3]float64{0, 0, 1}, Axis: [3]float64{1, 1, 0}, AngleDeg: 20}, 1),
	"spin": preset("spin", "altitude_hold", 5,
		InitStateConfig{Position: [3]float64{0, 0, 1}, AngularVelocity: [3]float64{0, 0, 6}}, 1),
	"climb": preset("climb", "altitude_hold", 8,
		InitStateConfig{}, 2),
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
