// Package scene builds the demo worlds: falling bodies, a gravity
// playground, two overlapping spheres and a five sphere stack.
package scene

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

// Populator adds a scene's bodies to w.
type Populator func(w *physics.World, p config.BodyConfig, rng *rand.Rand) ([]body.Handle, error)

type Scene struct {
	Name        string
	Description string
	Populate    Populator
}

var registry = map[string]Scene{
	"falling": {
		Name:        "falling",
		Description: "bodies dropped from random heights with no ground",
		Populate:    populateFalling,
	},
	"gravity_playground": {
		Name:        "gravity_playground",
		Description: "a cloud of bodies under an adjustable gravity vector",
		Populate:    populatePlayground,
	},
	"collision_spheres": {
		Name:        "collision_spheres",
		Description: "two overlapping spheres pushed apart by the solver",
		Populate:    populateCollision,
	},
	"stacking": {
		Name:        "stacking",
		Description: "a vertical stack of spheres resting on the ground",
		Populate:    populateStacking,
	},
}

func Get(name string) (Scene, error) {
	s, ok := registry[name]
	if !ok {
		return Scene{}, fmt.Errorf("unknown scene: %s", name)
	}
	return s, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build creates a world from cfg and populates it with the configured
// scene. The same config always yields the same world.
func Build(cfg *config.Config) (*physics.World, []body.Handle, error) {
	s, err := Get(cfg.Scene)
	if err != nil {
		return nil, nil, err
	}
	w, err := physics.New(cfg.PhysicsConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("scene %s: %w", s.Name, err)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	handles, err := s.Populate(w, cfg.Bodies, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("scene %s: %w", s.Name, err)
	}
	return w, handles, nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func desc(p config.BodyConfig, pos dynamo.Vec3) body.Desc {
	d := body.NewDesc(pos, dynamo.Zero)
	d.Mass = p.Mass
	d.Radius = p.Radius
	d.Friction = p.Friction
	d.Restitution = p.Restitution
	return d
}

func spawn(w *physics.World, p config.BodyConfig, n int, at func(i int) dynamo.Vec3) ([]body.Handle, error) {
	handles := make([]body.Handle, 0, n)
	for i := 0; i < n; i++ {
		h, err := w.CreateRigidBody(desc(p, at(i)))
		if err != nil {
			return handles, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func populateFalling(w *physics.World, p config.BodyConfig, rng *rand.Rand) ([]body.Handle, error) {
	return spawn(w, p, p.Count, func(int) dynamo.Vec3 {
		return dynamo.V(uniform(rng, -5, 5), uniform(rng, 2, 20), 0)
	})
}

// Spawn adds n playground bodies to a running world.
func Spawn(w *physics.World, p config.BodyConfig, n int, rng *rand.Rand) ([]body.Handle, error) {
	return spawn(w, p, n, func(int) dynamo.Vec3 {
		return dynamo.V(uniform(rng, -5, 5), uniform(rng, -1, 5), uniform(rng, -5, 5))
	})
}

func populatePlayground(w *physics.World, p config.BodyConfig, rng *rand.Rand) ([]body.Handle, error) {
	return Spawn(w, p, p.Count, rng)
}

func populateCollision(w *physics.World, p config.BodyConfig, _ *rand.Rand) ([]body.Handle, error) {
	return spawn(w, p, 2, func(i int) dynamo.Vec3 {
		return dynamo.V(-0.3+0.6*float64(i), 0, 0)
	})
}

func populateStacking(w *physics.World, p config.BodyConfig, _ *rand.Rand) ([]body.Handle, error) {
	base := w.Config().Ground.Height
	return spawn(w, p, p.Count, func(i int) dynamo.Vec3 {
		return dynamo.V(0, base+p.Radius*(1+2*float64(i)), 0)
	})
}
