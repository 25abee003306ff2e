package config

import "sort"

// Preset adjusts a scene's default configuration.
type Preset func(*Config)

var Presets = map[string]map[string]Preset{
	"falling": {
		"rain": func(c *Config) {
			c.Bodies.Count = 200
		},
		"moon": func(c *Config) {
			c.World.Gravity = [3]float64{0, -1.62, 0}
			c.Duration = 10
		},
		"floor": func(c *Config) {
			c.World.Ground.Enabled = true
			c.World.Broadphase = "grid"
		},
	},
	"gravity_playground": {
		"sideways": func(c *Config) {
			c.World.Gravity = [3]float64{4, -2, 0}
		},
		"zero_g": func(c *Config) {
			c.World.Gravity = [3]float64{}
		},
		"crowd": func(c *Config) {
			c.Bodies.Count = 400
			c.World.Broadphase = "sap"
		},
	},
	"collision_spheres": {
		"deep": func(c *Config) {
			c.Bodies.Radius = 0.8
		},
		"heavy": func(c *Config) {
			c.Bodies.Mass = 10
		},
	},
	"stacking": {
		"bouncy": func(c *Config) {
			c.Bodies.Restitution = 0.8
		},
		"rough": func(c *Config) {
			c.Bodies.Friction = 0.8
		},
		"tall": func(c *Config) {
			c.Bodies.Count = 10
			c.World.Solver.Iterations = 16
		},
		"no_sleep": func(c *Config) {
			c.World.Sleep.Enabled = false
		},
	},
}

// GetPreset returns the scene defaults with the named preset applied, or
// nil if either name is unknown.
func GetPreset(scene, preset string) *Config {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	apply, ok := scenePresets[preset]
	if !ok {
		return nil
	}
	cfg := ForScene(scene)
	apply(cfg)
	return cfg
}

func ListPresets(scene string) []string {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenePresets))
	for name := range scenePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
