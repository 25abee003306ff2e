package integrators

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Verlet is velocity Verlet under an acceleration held constant across the
// step, which makes free flight exact.
type Verlet struct{ base }

func NewVerlet(damping float64) *Verlet {
	return &Verlet{base{Damping: damping}}
}

func (v *Verlet) Name() string { return "verlet" }

func (v *Verlet) Integrate(s *body.Store, gravity dynamo.Vec3, dt float64) {
	halfDt2 := 0.5 * dt * dt
	v.integrate(s, gravity, dt, func(b *body.Body, acc dynamo.Vec3, dt float64) {
		b.Position = b.Position.Add(b.Velocity.Mul(dt)).Add(acc.Mul(halfDt2))
		b.Velocity = b.Velocity.Add(acc.Mul(dt))
	})
}
