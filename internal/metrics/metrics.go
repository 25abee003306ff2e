// Package metrics measures energy, momentum, speed and overlap of a world.
package metrics

import "github.com/san-kum/rigidsim/internal/sim"

// Default returns the metrics recorded by the run and verify commands.
func Default() []sim.Metric {
	return []sim.Metric{
		NewEnergy(),
		NewEnergyDrift(),
		NewMomentum(),
		NewPenetration(),
		NewStability(0.01),
		NewRestTime(0.01),
	}
}

var registry = map[string]func() sim.Metric{
	"energy":          func() sim.Metric { return NewEnergy() },
	"energy_drift":    func() sim.Metric { return NewEnergyDrift() },
	"momentum":        func() sim.Metric { return NewMomentum() },
	"max_penetration": func() sim.Metric { return NewPenetration() },
	"stability":       func() sim.Metric { return NewStability(0.01) },
	"rest_time":       func() sim.Metric { return NewRestTime(0.01) },
}

// ByName returns a fresh metric, or nil if the name is unknown.
func ByName(name string) sim.Metric {
	fn, ok := registry[name]
	if !ok {
		return nil
	}
	return fn()
}
