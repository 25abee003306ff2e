package integrators

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// SymplecticEuler updates velocity first and moves the body with the new
// velocity. This is the default scheme.
type SymplecticEuler struct{ base }

func NewSymplecticEuler(damping float64) *SymplecticEuler {
	return &SymplecticEuler{base{Damping: damping}}
}

func (e *SymplecticEuler) Name() string { return "symplectic" }

func (e *SymplecticEuler) Integrate(s *body.Store, gravity dynamo.Vec3, dt float64) {
	e.integrate(s, gravity, dt, func(b *body.Body, acc dynamo.Vec3, dt float64) {
		b.Velocity = b.Velocity.Add(acc.Mul(dt))
		b.Position = b.Position.Add(b.Velocity.Mul(dt))
	})
}

// Euler moves the body with the old velocity, then updates velocity.
type Euler struct{ base }

func NewEuler(damping float64) *Euler {
	return &Euler{base{Damping: damping}}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Integrate(s *body.Store, gravity dynamo.Vec3, dt float64) {
	e.integrate(s, gravity, dt, func(b *body.Body, acc dynamo.Vec3, dt float64) {
		b.Position = b.Position.Add(b.Velocity.Mul(dt))
		b.Velocity = b.Velocity.Add(acc.Mul(dt))
	})
}
