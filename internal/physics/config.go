package physics

import (
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/integrators"
	"github.com/san-kum/rigidsim/internal/solver"
)

// GroundConfig describes the optional horizontal ground plane.
type GroundConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Height      float64 `yaml:"height"`
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
}

// SleepConfig controls island sleeping.
type SleepConfig struct {
	Enabled bool    `yaml:"enabled"`
	Speed   float64 `yaml:"speed"`
	Time    float64 `yaml:"time"`
}

// Config holds everything a world is built from.
type Config struct {
	Gravity      dynamo.Vec3
	Ground       GroundConfig
	Integrator   string
	Damping      float64
	Broadphase   string
	GridCellSize float64
	Solver       solver.Config
	Sleep        SleepConfig
	MaxBodies    int
}

// DefaultConfig returns standard gravity, no ground, semi-implicit Euler,
// the naive broadphase and sleeping enabled. The default ground material
// lets each body's own friction and restitution decide the contact.
func DefaultConfig() Config {
	return Config{
		Gravity: dynamo.DefaultGravity,
		Ground: GroundConfig{
			Enabled:     false,
			Friction:    1,
			Restitution: 1,
		},
		Integrator: "symplectic",
		Broadphase: "naive",
		Solver:     solver.DefaultConfig(),
		Sleep: SleepConfig{
			Enabled: true,
			Speed:   0.01,
			Time:    0.5,
		},
	}
}

func (c Config) Validate() error {
	if !dynamo.IsFinite(c.Gravity) {
		return dynamo.Invalid("gravity %v", c.Gravity)
	}
	if c.Ground.Enabled {
		g := c.Ground
		if !dynamo.Finite(g.Height) || !dynamo.Finite(g.Friction) || g.Friction < 0 || g.Friction > 1 ||
			!dynamo.Finite(g.Restitution) || g.Restitution < 0 || g.Restitution > 1 {
			return dynamo.Invalid("ground %+v", g)
		}
	}
	if c.Sleep.Enabled && (!dynamo.Finite(c.Sleep.Speed) || c.Sleep.Speed < 0 || !dynamo.Finite(c.Sleep.Time) || c.Sleep.Time < 0) {
		return dynamo.Invalid("sleep %+v", c.Sleep)
	}
	if c.MaxBodies < 0 {
		return dynamo.Invalid("max bodies %d", c.MaxBodies)
	}
	if _, _, err := c.build(); err != nil {
		return err
	}
	return c.Solver.Validate()
}

func (c Config) plane() *collision.Plane {
	if !c.Ground.Enabled {
		return nil
	}
	return &collision.Plane{
		Height:      c.Ground.Height,
		Friction:    c.Ground.Friction,
		Restitution: c.Ground.Restitution,
	}
}

func (c Config) build() (integrators.Integrator, collision.Broadphase, error) {
	integ, err := integrators.New(c.Integrator, c.Damping)
	if err != nil {
		return nil, nil, err
	}
	bp, err := collision.NewBroadphase(c.Broadphase, c.GridCellSize)
	if err != nil {
		return nil, nil, err
	}
	return integ, bp, nil
}
