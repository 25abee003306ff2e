package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/rigidsim/internal/dynamo"
)

// params maps tunable parameter names to setters. Integer parameters are
// truncated.
var params = map[string]func(c *Config, v float64){
	"dt":            func(c *Config, v float64) { c.Dt = v },
	"duration":      func(c *Config, v float64) { c.Duration = v },
	"substeps":      func(c *Config, v float64) { c.Substeps = int(v) },
	"count":         func(c *Config, v float64) { c.Bodies.Count = int(v) },
	"mass":          func(c *Config, v float64) { c.Bodies.Mass = v },
	"radius":        func(c *Config, v float64) { c.Bodies.Radius = v },
	"friction":      func(c *Config, v float64) { c.Bodies.Friction = v },
	"restitution":   func(c *Config, v float64) { c.Bodies.Restitution = v },
	"gravity_x":     func(c *Config, v float64) { c.World.Gravity[0] = v },
	"gravity_y":     func(c *Config, v float64) { c.World.Gravity[1] = v },
	"gravity_z":     func(c *Config, v float64) { c.World.Gravity[2] = v },
	"damping":       func(c *Config, v float64) { c.World.Damping = v },
	"ground_height": func(c *Config, v float64) { c.World.Ground.Height = v },
	"iterations":    func(c *Config, v float64) { c.World.Solver.Iterations = int(v) },
	"position_iterations": func(c *Config, v float64) {
		c.World.Solver.PositionIterations = int(v)
	},
	"baumgarte":  func(c *Config, v float64) { c.World.Solver.Baumgarte = v },
	"slop":       func(c *Config, v float64) { c.World.Solver.Slop = v },
	"sleep_time": func(c *Config, v float64) { c.World.Sleep.Time = v },
}

// SetParam sets a named numeric parameter. The result is not validated.
func (c *Config) SetParam(name string, v float64) error {
	set, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter: %s", dynamo.ErrInvalidParameter, name)
	}
	if !dynamo.Finite(v) {
		return dynamo.Invalid("%s = %v", name, v)
	}
	set(c, v)
	return nil
}

// SetParams applies every entry of values in name order.
func (c *Config) SetParams(values map[string]float64) error {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if err := c.SetParam(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

func ParamNames() []string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
