package body

import (
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Defaults applied by NewDesc and by codecs that omit optional fields.
const (
	DefaultMass        = 1.0
	DefaultRadius      = 0.5
	DefaultFriction    = 0.0
	DefaultRestitution = 0.0
)

// Desc describes a body to create.
// A Mass of zero or below makes the body static.
type Desc struct {
	Position    dynamo.Vec3
	Velocity    dynamo.Vec3
	Mass        float64
	Radius      float64
	Friction    float64
	Restitution float64
}

// NewDesc returns a descriptor with default mass, radius and material.
func NewDesc(position, velocity dynamo.Vec3) Desc {
	return Desc{
		Position:    position,
		Velocity:    velocity,
		Mass:        DefaultMass,
		Radius:      DefaultRadius,
		Friction:    DefaultFriction,
		Restitution: DefaultRestitution,
	}
}

// Static returns a copy of d with zero mass.
func (d Desc) Static() Desc {
	d.Mass = 0
	d.Velocity = dynamo.Zero
	return d
}

func (d Desc) Validate() error {
	if !dynamo.IsFinite(d.Position) || !dynamo.IsFinite(d.Velocity) {
		return dynamo.Invalid("non-finite position or velocity")
	}
	if !dynamo.Finite(d.Mass) {
		return dynamo.Invalid("mass %v", d.Mass)
	}
	if !dynamo.Finite(d.Radius) || d.Radius < 0 {
		return dynamo.Invalid("radius %v", d.Radius)
	}
	if !dynamo.Finite(d.Friction) || d.Friction < 0 || d.Friction > 1 {
		return dynamo.Invalid("friction %v", d.Friction)
	}
	if !dynamo.Finite(d.Restitution) || d.Restitution < 0 || d.Restitution > 1 {
		return dynamo.Invalid("restitution %v", d.Restitution)
	}
	return nil
}

// Body is the record kept for each live slot. Packages that advance the
// simulation mutate it in place through Store.At.
type Body struct {
	Position    dynamo.Vec3
	Velocity    dynamo.Vec3
	Force       dynamo.Vec3
	Mass        float64
	InvMass     float64
	Radius      float64
	Friction    float64
	Restitution float64

	Sleeping   bool
	SleepTimer float64
}

func fromDesc(d Desc) Body {
	b := Body{
		Position:    d.Position,
		Velocity:    d.Velocity,
		Mass:        d.Mass,
		Radius:      d.Radius,
		Friction:    d.Friction,
		Restitution: d.Restitution,
	}
	if d.Mass > 0 {
		b.InvMass = 1 / d.Mass
	} else {
		b.Velocity = dynamo.Zero
	}
	return b
}

func (b *Body) Static() bool { return b.InvMass == 0 }

// Dynamic reports whether the body takes part in integration and impulses.
func (b *Body) Dynamic() bool { return b.InvMass > 0 && !b.Sleeping }

func (b *Body) Wake() {
	b.Sleeping = false
	b.SleepTimer = 0
}

// Desc returns the externally visible state of the body.
func (b *Body) Desc() Desc {
	return Desc{
		Position:    b.Position,
		Velocity:    b.Velocity,
		Mass:        b.Mass,
		Radius:      b.Radius,
		Friction:    b.Friction,
		Restitution: b.Restitution,
	}
}
