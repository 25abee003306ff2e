// Package integrators advances body positions and velocities over a time step.
package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// parallelThreshold is the live body count above which integration is
// split across goroutines. Bodies are independent so the result does not
// depend on the split.
const parallelThreshold = 4096

// Integrator advances every awake dynamic body in the store by dt under
// gravity plus the accumulated per-body force. Static and sleeping bodies
// are left untouched.
type Integrator interface {
	Name() string
	Integrate(s *body.Store, gravity dynamo.Vec3, dt float64)
}

type stepFunc func(b *body.Body, acc dynamo.Vec3, dt float64)

// base holds the traversal shared by every scheme.
type base struct {
	Damping float64
	indices []int
}

func (g *base) integrate(s *body.Store, gravity dynamo.Vec3, dt float64, step stepFunc) {
	g.indices = s.Indices(g.indices)
	idx := g.indices
	damp := 1.0
	if g.Damping > 0 {
		damp = 1 / (1 + g.Damping*dt)
	}

	run := func(start, end int) {
		for _, i := range idx[start:end] {
			b := s.At(i)
			if !b.Dynamic() {
				continue
			}
			acc := gravity
			if b.Force != dynamo.Zero {
				acc = acc.Add(b.Force.Mul(b.InvMass))
			}
			step(b, acc, dt)
			if damp != 1 {
				b.Velocity = b.Velocity.Mul(damp)
			}
		}
	}

	if len(idx) < parallelThreshold {
		run(0, len(idx))
		return
	}
	dynamo.ParallelFor(len(idx), parallelThreshold/4, run)
}

var registry = map[string]func(damping float64) Integrator{
	"symplectic": func(d float64) Integrator { return NewSymplecticEuler(d) },
	"euler":      func(d float64) Integrator { return NewEuler(d) },
	"verlet":     func(d float64) Integrator { return NewVerlet(d) },
}

// New returns the integrator registered under name.
func New(name string, damping float64) (Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integrator: %s", dynamo.ErrInvalidParameter, name)
	}
	if damping < 0 || !dynamo.Finite(damping) {
		return nil, dynamo.Invalid("damping %v", damping)
	}
	return fn(damping), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
