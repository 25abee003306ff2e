package sim

import (
	"log/slog"
	"math/rand"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/scene"
)

// Driver owns one world and advances it in frames. Each frame is clamped to
// the configured dt and split into equal substeps.
type Driver struct {
	cfg     *config.Config
	logger  *slog.Logger
	world   *physics.World
	handles []body.Handle
	rng     *rand.Rand

	running bool
	time    float64
	steps   int
}

func NewDriver(cfg *config.Config, logger *slog.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Driver{cfg: cfg.Clone(), logger: logger, running: true}
	if err := d.Reset(); err != nil {
		return nil, err
	}
	return d, nil
}

// Reset rebuilds the scene from the configuration.
func (d *Driver) Reset() error {
	w, handles, err := scene.Build(d.cfg)
	if err != nil {
		return err
	}
	d.world = w
	d.handles = handles
	d.rng = rand.New(rand.NewSource(d.cfg.Seed + 1))
	d.time = 0
	d.steps = 0
	d.logger.Debug("scene built", "scene", d.cfg.Scene, "bodies", w.BodyCount(), "seed", d.cfg.Seed)
	return nil
}

// Frame advances by min(elapsed, dt) when running. Non-positive elapsed
// times are ignored.
func (d *Driver) Frame(elapsed float64) error {
	if !d.running || !dynamo.Finite(elapsed) || elapsed <= 0 {
		return nil
	}
	return d.Advance(min(elapsed, d.cfg.Dt))
}

// Advance steps the world by dt in Substeps equal steps, whether or not the
// driver is paused.
func (d *Driver) Advance(dt float64) error {
	sub := dt / float64(d.cfg.Substeps)
	for i := 0; i < d.cfg.Substeps; i++ {
		if err := d.world.Step(sub); err != nil {
			return &dynamo.StepError{Step: d.steps, Time: d.time, Wrapped: err}
		}
		d.steps++
		d.time += sub
	}
	return nil
}

func (d *Driver) Toggle() bool {
	d.running = !d.running
	d.logger.Debug("toggled", "running", d.running)
	return d.running
}

func (d *Driver) Running() bool          { return d.running }
func (d *Driver) World() *physics.World  { return d.world }
func (d *Driver) Handles() []body.Handle { return d.handles }
func (d *Driver) Time() float64          { return d.time }
func (d *Driver) Steps() int             { return d.steps }
func (d *Driver) Config() *config.Config { return d.cfg }

func (d *Driver) SetGravity(g dynamo.Vec3) error {
	if err := d.world.SetGravity(g); err != nil {
		return err
	}
	d.cfg.World.Gravity = g
	return nil
}

// Spawn adds n bodies scattered over the playground volume.
func (d *Driver) Spawn(n int) error {
	hs, err := scene.Spawn(d.world, d.cfg.Bodies, n, d.rng)
	d.handles = append(d.handles, hs...)
	if err != nil {
		d.logger.Warn("spawn stopped early", "requested", n, "created", len(hs), "err", err)
		return err
	}
	return nil
}

// Clear destroys every body.
func (d *Driver) Clear() {
	for _, h := range d.world.Handles() {
		d.world.DestroyRigidBody(h)
	}
	d.handles = d.handles[:0]
}

// Separation returns the distance between the first two bodies, or zero.
func (d *Driver) Separation() float64 {
	if len(d.handles) < 2 {
		return 0
	}
	a, errA := d.world.Position(d.handles[0])
	b, errB := d.world.Position(d.handles[1])
	if errA != nil || errB != nil {
		return 0
	}
	return b.Sub(a).Len()
}
