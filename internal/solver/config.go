package solver

import "github.com/san-kum/rigidsim/internal/dynamo"

// Config tunes the contact resolver.
type Config struct {
	// Iterations is the number of velocity passes over the contact list.
	Iterations int `yaml:"iterations"`
	// PositionIterations is the number of penetration correction passes.
	PositionIterations int `yaml:"position_iterations"`
	// Slop is the penetration left uncorrected to keep contacts alive.
	Slop float64 `yaml:"slop"`
	// Baumgarte is the fraction of penetration removed per pass.
	Baumgarte float64 `yaml:"baumgarte"`
	// RestitutionThreshold is the approach speed along gravity below which
	// bounces are ignored, so resting contacts settle.
	RestitutionThreshold float64 `yaml:"restitution_threshold"`
	// ShockPropagation enables the final bottom-up pass along gravity.
	ShockPropagation bool `yaml:"shock_propagation"`
}

func DefaultConfig() Config {
	return Config{
		Iterations:           8,
		PositionIterations:   4,
		Slop:                 0.005,
		Baumgarte:            0.8,
		RestitutionThreshold: 0.5,
		ShockPropagation:     true,
	}
}

func (c Config) Validate() error {
	if c.Iterations < 1 {
		return dynamo.Invalid("solver iterations %d", c.Iterations)
	}
	if c.PositionIterations < 0 {
		return dynamo.Invalid("position iterations %d", c.PositionIterations)
	}
	if !dynamo.Finite(c.Slop) || c.Slop < 0 {
		return dynamo.Invalid("slop %v", c.Slop)
	}
	if !dynamo.Finite(c.Baumgarte) || c.Baumgarte < 0 || c.Baumgarte > 1 {
		return dynamo.Invalid("baumgarte factor %v", c.Baumgarte)
	}
	if !dynamo.Finite(c.RestitutionThreshold) || c.RestitutionThreshold < 0 {
		return dynamo.Invalid("restitution threshold %v", c.RestitutionThreshold)
	}
	return nil
}
