package physics

import (
	"fmt"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/integrators"
	"github.com/san-kum/rigidsim/internal/solver"
)

// Stats describes the most recent step.
type Stats struct {
	Steps    int
	Time     float64
	Bodies   int
	Pairs    int
	Contacts int
	Sleeping int
}

// BodyView is a copy of the drawable state of one body.
type BodyView struct {
	Handle   body.Handle
	Position dynamo.Vec3
	Velocity dynamo.Vec3
	Mass     float64
	Radius   float64
	Static   bool
	Sleeping bool
}

// wakeMargin widens the box of a destroyed body when looking for sleeping
// bodies that rested on it.
const wakeMargin = 0.05

// World owns a body store and advances it one step at a time. A World is
// not safe for concurrent use.
type World struct {
	cfg        Config
	gravity    dynamo.Vec3
	bodies     *body.Store
	integrator integrators.Integrator
	detector   *collision.Detector
	resolver   *solver.Resolver
	islands    islands
	stats      Stats
}

// New builds a world from cfg.
func New(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	integ, bp, err := cfg.build()
	if err != nil {
		return nil, err
	}
	return &World{
		cfg:        cfg,
		gravity:    cfg.Gravity,
		bodies:     body.NewStore(cfg.MaxBodies),
		integrator: integ,
		detector:   collision.NewDetector(bp, cfg.plane()),
		resolver:   solver.New(cfg.Solver),
	}, nil
}

// NewDefault returns a world built from DefaultConfig.
func NewDefault() *World {
	w, err := New(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("physics: default config rejected: %v", err))
	}
	return w
}

func (w *World) Config() Config { return w.cfg }

func (w *World) CreateRigidBody(d body.Desc) (body.Handle, error) {
	return w.bodies.Create(d)
}

// DestroyRigidBody removes a body and wakes any sleeping body that was
// resting against it.
func (w *World) DestroyRigidBody(h body.Handle) error {
	idx, err := w.bodies.Lookup(h)
	if err != nil {
		return err
	}
	gone := collision.SphereAABB(w.bodies.At(idx).Position, w.bodies.At(idx).Radius+wakeMargin)
	if err := w.bodies.Destroy(h); err != nil {
		return err
	}
	w.bodies.Each(func(_ body.Handle, b *body.Body) {
		if b.Sleeping && collision.SphereAABB(b.Position, b.Radius).Overlaps(gone) {
			b.Wake()
		}
	})
	return nil
}

func (w *World) Gravity() dynamo.Vec3 { return w.gravity }

// SetGravity takes effect on the next step and wakes every sleeping body.
func (w *World) SetGravity(g dynamo.Vec3) error {
	if !dynamo.IsFinite(g) {
		return dynamo.Invalid("gravity %v", g)
	}
	w.gravity = g
	w.wakeAll()
	return nil
}

func (w *World) wakeAll() {
	w.bodies.Each(func(_ body.Handle, b *body.Body) { b.Wake() })
}

func (w *World) lookup(h body.Handle) (*body.Body, error) {
	idx, err := w.bodies.Lookup(h)
	if err != nil {
		return nil, err
	}
	return w.bodies.At(idx), nil
}

func (w *World) Position(h body.Handle) (dynamo.Vec3, error) {
	b, err := w.lookup(h)
	if err != nil {
		return dynamo.Zero, err
	}
	return b.Position, nil
}

func (w *World) Velocity(h body.Handle) (dynamo.Vec3, error) {
	b, err := w.lookup(h)
	if err != nil {
		return dynamo.Zero, err
	}
	return b.Velocity, nil
}

// Body returns a copy of the full state of h.
func (w *World) Body(h body.Handle) (body.Desc, error) {
	return w.bodies.Get(h)
}

// SetBody replaces the state of h and wakes it.
func (w *World) SetBody(h body.Handle, d body.Desc) error {
	return w.bodies.Set(h, d)
}

func (w *World) SetVelocity(h body.Handle, v dynamo.Vec3) error {
	b, err := w.lookup(h)
	if err != nil {
		return err
	}
	if !dynamo.IsFinite(v) {
		return dynamo.Invalid("velocity %v", v)
	}
	if b.Static() {
		return nil
	}
	b.Velocity = v
	b.Wake()
	return nil
}

// ApplyForce accumulates f on h for the next step only.
func (w *World) ApplyForce(h body.Handle, f dynamo.Vec3) error {
	b, err := w.lookup(h)
	if err != nil {
		return err
	}
	if !dynamo.IsFinite(f) {
		return dynamo.Invalid("force %v", f)
	}
	if b.Static() {
		return nil
	}
	b.Force = b.Force.Add(f)
	b.Wake()
	return nil
}

func (w *World) IsAlive(h body.Handle) bool { return w.bodies.Alive(h) }
func (w *World) IsSleeping(h body.Handle) bool {
	b, err := w.lookup(h)
	return err == nil && b.Sleeping
}

func (w *World) BodyCount() int           { return w.bodies.Len() }
func (w *World) Handles() []body.Handle   { return w.bodies.Handles() }
func (w *World) Stats() Stats             { return w.stats }
func (w *World) Ground() *collision.Plane { return w.detector.Ground() }

// Snapshot copies the drawable state of every live body in slot order.
func (w *World) Snapshot() []BodyView {
	out := make([]BodyView, 0, w.bodies.Len())
	w.bodies.Each(func(h body.Handle, b *body.Body) {
		out = append(out, BodyView{
			Handle:   h,
			Position: b.Position,
			Velocity: b.Velocity,
			Mass:     b.Mass,
			Radius:   b.Radius,
			Static:   b.Static(),
			Sleeping: b.Sleeping,
		})
	})
	return out
}

// Step advances the world by dt: integrate, detect, resolve, then clear
// forces and update sleep state. A rejected dt leaves the world untouched.
func (w *World) Step(dt float64) error {
	if !dynamo.Finite(dt) || dt <= 0 {
		return dynamo.Invalid("time step %v", dt)
	}

	w.integrator.Integrate(w.bodies, w.gravity, dt)

	contacts := w.detector.Detect(w.bodies)
	contacts = w.wakeTouching(contacts)

	w.resolver.Resolve(w.bodies, contacts, w.gravity)

	w.bodies.ClearForces()
	sleeping := 0
	if w.cfg.Sleep.Enabled {
		sleeping = w.islands.update(w.bodies, contacts, dt, w.cfg.Sleep)
	}

	w.stats.Steps++
	w.stats.Time += dt
	w.stats.Bodies = w.bodies.Len()
	w.stats.Pairs = w.detector.PairCount()
	w.stats.Contacts = len(contacts)
	w.stats.Sleeping = sleeping
	return nil
}

// wakeTouching wakes sleeping bodies in contact with awake dynamic bodies,
// repeating until no more wake, then drops contacts where neither side can
// move.
func (w *World) wakeTouching(contacts []collision.Contact) []collision.Contact {
	awake := func(i int) bool {
		return i != collision.Ground && w.bodies.At(i).Dynamic()
	}
	asleep := func(i int) bool {
		return i != collision.Ground && w.bodies.At(i).Sleeping
	}

	for changed := true; changed; {
		changed = false
		for _, c := range contacts {
			if asleep(c.A) && awake(c.B) {
				w.bodies.At(c.A).Wake()
				changed = true
			}
			if asleep(c.B) && awake(c.A) {
				w.bodies.At(c.B).Wake()
				changed = true
			}
		}
	}

	kept := contacts[:0]
	for _, c := range contacts {
		if awake(c.A) || awake(c.B) {
			kept = append(kept, c)
		}
	}
	return kept
}
