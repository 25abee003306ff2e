package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/solver"
)

const (
	DefaultScene       = "stacking"
	DefaultDt          = 1.0 / 60.0
	DefaultDuration    = 10.0
	DefaultSubsteps    = 2
	DefaultRecordEvery = 1
	DefaultSeed        = 1
)

type Config struct {
	Scene       string      `yaml:"scene"`
	Dt          float64     `yaml:"dt"`
	Duration    float64     `yaml:"duration"`
	Substeps    int         `yaml:"substeps"`
	Seed        int64       `yaml:"seed"`
	RecordEvery int         `yaml:"record_every"`
	World       WorldConfig `yaml:"world"`
	Bodies      BodyConfig  `yaml:"bodies"`
}

type WorldConfig struct {
	Gravity      [3]float64           `yaml:"gravity,flow"`
	Ground       physics.GroundConfig `yaml:"ground"`
	Integrator   string               `yaml:"integrator"`
	Damping      float64              `yaml:"damping"`
	Broadphase   string               `yaml:"broadphase"`
	GridCellSize float64              `yaml:"grid_cell_size"`
	Solver       solver.Config        `yaml:"solver"`
	Sleep        physics.SleepConfig  `yaml:"sleep"`
	MaxBodies    int                  `yaml:"max_bodies"`
}

// BodyConfig parameterizes the bodies a scene spawns.
type BodyConfig struct {
	Count       int     `yaml:"count"`
	Mass        float64 `yaml:"mass"`
	Radius      float64 `yaml:"radius"`
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
}

func defaultWorld() WorldConfig {
	p := physics.DefaultConfig()
	return WorldConfig{
		Gravity:      p.Gravity,
		Ground:       p.Ground,
		Integrator:   p.Integrator,
		Damping:      p.Damping,
		Broadphase:   p.Broadphase,
		GridCellSize: p.GridCellSize,
		Solver:       p.Solver,
		Sleep:        p.Sleep,
	}
}

func DefaultConfig() *Config {
	return ForScene(DefaultScene)
}

// ForScene returns the defaults for a named scene. Unknown names get the
// generic defaults with the name filled in.
func ForScene(scene string) *Config {
	cfg := &Config{
		Scene:       scene,
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Substeps:    DefaultSubsteps,
		Seed:        DefaultSeed,
		RecordEvery: DefaultRecordEvery,
		World:       defaultWorld(),
		Bodies: BodyConfig{
			Count:  1,
			Mass:   1,
			Radius: 0.5,
		},
	}

	switch scene {
	case "falling":
		cfg.Bodies.Count = 50
		cfg.Bodies.Radius = 0.1
		cfg.Duration = 5
	case "gravity_playground":
		cfg.Bodies.Count = 100
		cfg.Bodies.Radius = 0.25
	case "collision_spheres":
		cfg.Bodies.Count = 2
		cfg.Substeps = 1
		cfg.Duration = 2
		cfg.World.Gravity = [3]float64{}
	case "stacking":
		cfg.Bodies.Count = 5
		cfg.Substeps = 1
		cfg.World.Ground.Enabled = true
	}
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var head struct {
		Scene string `yaml:"scene"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if head.Scene != "" {
		cfg = ForScene(head.Scene)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if !dynamo.Finite(c.Dt) || c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrInvalidParameter, c.Dt)
	}
	if !dynamo.Finite(c.Duration) || c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrInvalidParameter, c.Duration)
	}
	if c.Substeps < 1 {
		return fmt.Errorf("%w: substeps must be at least 1, got %d", dynamo.ErrInvalidParameter, c.Substeps)
	}
	if c.RecordEvery < 0 {
		return fmt.Errorf("%w: record_every must not be negative", dynamo.ErrInvalidParameter)
	}
	if c.Bodies.Count < 0 {
		return fmt.Errorf("%w: body count must not be negative", dynamo.ErrInvalidParameter)
	}
	b := c.Bodies
	d := body.Desc{Mass: b.Mass, Radius: b.Radius, Friction: b.Friction, Restitution: b.Restitution}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("bodies: %w", err)
	}
	return c.PhysicsConfig().Validate()
}

// PhysicsConfig converts the world section into a physics configuration.
func (c *Config) PhysicsConfig() physics.Config {
	w := c.World
	return physics.Config{
		Gravity:      dynamo.Vec3(w.Gravity),
		Ground:       w.Ground,
		Integrator:   w.Integrator,
		Damping:      w.Damping,
		Broadphase:   w.Broadphase,
		GridCellSize: w.GridCellSize,
		Solver:       w.Solver,
		Sleep:        w.Sleep,
		MaxBodies:    w.MaxBodies,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
