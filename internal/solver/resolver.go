// Package solver resolves contacts with sequential impulses.
//
// Each step runs Config.Iterations velocity passes in contact order. A pass
// applies a normal impulse whose running total is clamped at zero, so
// separating contacts never pull, then a friction impulse whose running
// total is bounded by the Coulomb cone. An optional shock propagation pass
// follows, after which penetration is removed with Baumgarte-style
// positional correction.
package solver

import (
	"math"
	"sort"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

type constraint struct {
	c       collision.Contact
	bias    float64
	pn      float64
	pt      dynamo.Vec3
	reach   float64
	skipped bool
}

// Resolver is reusable across steps and keeps its scratch buffers.
type Resolver struct {
	cfg Config

	cons    []constraint
	order   []int
	heights []float64
}

func New(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

func (r *Resolver) Config() Config { return r.cfg }

func invMass(s *body.Store, i int) float64 {
	if i == collision.Ground {
		return 0
	}
	b := s.At(i)
	if b.Sleeping {
		return 0
	}
	return b.InvMass
}

func velocity(s *body.Store, i int) dynamo.Vec3 {
	if i == collision.Ground {
		return dynamo.Zero
	}
	return s.At(i).Velocity
}

func position(s *body.Store, i int) dynamo.Vec3 {
	if i == collision.Ground {
		return dynamo.Zero
	}
	return s.At(i).Position
}

func applyImpulse(s *body.Store, k *constraint, ia, ib float64, p dynamo.Vec3) {
	if ia > 0 {
		a := s.At(k.c.A)
		a.Velocity = a.Velocity.Sub(p.Mul(ia))
	}
	if ib > 0 {
		b := s.At(k.c.B)
		b.Velocity = b.Velocity.Add(p.Mul(ib))
	}
}

// Resolve applies impulses and position corrections for contacts. Contacts
// are processed in the order given.
func (r *Resolver) Resolve(s *body.Store, contacts []collision.Contact, gravity dynamo.Vec3) {
	r.prepare(s, contacts, gravity)
	if len(r.cons) == 0 {
		return
	}

	for it := 0; it < r.cfg.Iterations; it++ {
		for i := range r.cons {
			r.solveVelocity(s, &r.cons[i])
		}
	}

	if r.cfg.ShockPropagation && gravity != dynamo.Zero {
		r.propagateShock(s, gravity)
	}

	for it := 0; it < r.cfg.PositionIterations; it++ {
		for i := range r.cons {
			r.solvePosition(s, &r.cons[i])
		}
	}
}

// restitutionThreshold scales the configured threshold by how much of the
// contact normal lies along gravity. Without gravity, or for contacts
// perpendicular to it, every approach bounces.
func (r *Resolver) restitutionThreshold(down, n dynamo.Vec3) float64 {
	return r.cfg.RestitutionThreshold * math.Abs(down.Dot(n))
}

func (r *Resolver) prepare(s *body.Store, contacts []collision.Contact, gravity dynamo.Vec3) {
	r.cons = r.cons[:0]
	down, _ := dynamo.SafeNormalize(gravity, dynamo.Zero, 1e-12)
	for _, c := range contacts {
		k := constraint{c: c}
		if invMass(s, c.A)+invMass(s, c.B) == 0 || !dynamo.IsFinite(c.Normal) || !dynamo.Finite(c.Penetration) {
			k.skipped = true
		}
		vn := velocity(s, c.B).Sub(velocity(s, c.A)).Dot(c.Normal)
		if -vn > r.restitutionThreshold(down, c.Normal) {
			k.bias = -c.Restitution * vn
		}
		k.reach = c.Penetration + position(s, c.B).Sub(position(s, c.A)).Dot(c.Normal)
		r.cons = append(r.cons, k)
	}
}

// normalImpulse applies the clamped normal impulse toward target velocity
// bias and returns false when the contact has no mobile participant.
func (r *Resolver) normalImpulse(s *body.Store, k *constraint, ia, ib float64) bool {
	m := ia + ib
	if m == 0 {
		return false
	}
	n := k.c.Normal
	vn := velocity(s, k.c.B).Sub(velocity(s, k.c.A)).Dot(n)
	lambda := -(vn - k.bias) / m
	if !dynamo.Finite(lambda) {
		return false
	}
	total := math.Max(k.pn+lambda, 0)
	lambda = total - k.pn
	k.pn = total
	applyImpulse(s, k, ia, ib, n.Mul(lambda))
	return true
}

func (r *Resolver) solveVelocity(s *body.Store, k *constraint) {
	if k.skipped {
		return
	}
	ia, ib := invMass(s, k.c.A), invMass(s, k.c.B)
	if !r.normalImpulse(s, k, ia, ib) {
		return
	}

	if k.c.Friction <= 0 {
		return
	}
	rv := velocity(s, k.c.B).Sub(velocity(s, k.c.A))
	vt := dynamo.Tangent(rv, k.c.Normal)
	total := k.pt.Add(vt.Mul(-1 / (ia + ib)))
	limit := k.c.Friction * k.pn
	if l := total.Len(); l > limit {
		if l > 0 {
			total = total.Mul(limit / l)
		}
	}
	delta := total.Sub(k.pt)
	k.pt = total
	applyImpulse(s, k, ia, ib, delta)
}

// propagateShock runs one normal pass ordered from the bottom of the scene
// upward along gravity. The lower participant of each contact is treated as
// immovable so support reaches the top of a stack in a single pass.
func (r *Resolver) propagateShock(s *body.Store, gravity dynamo.Vec3) {
	up := gravity.Mul(-1 / gravity.Len())
	height := func(i int) float64 {
		if i == collision.Ground {
			return math.Inf(-1)
		}
		return s.At(i).Position.Dot(up)
	}

	r.order = r.order[:0]
	r.heights = r.heights[:0]
	for i, k := range r.cons {
		r.order = append(r.order, i)
		r.heights = append(r.heights, math.Min(height(k.c.A), height(k.c.B)))
	}
	sort.SliceStable(r.order, func(i, j int) bool {
		return r.heights[r.order[i]] < r.heights[r.order[j]]
	})

	for _, i := range r.order {
		k := &r.cons[i]
		if k.skipped {
			continue
		}
		ia, ib := invMass(s, k.c.A), invMass(s, k.c.B)
		ha, hb := height(k.c.A), height(k.c.B)
		if ha < hb {
			ia = 0
		} else if hb < ha {
			ib = 0
		}
		r.normalImpulse(s, k, ia, ib)
	}
}

func (r *Resolver) solvePosition(s *body.Store, k *constraint) {
	if k.skipped {
		return
	}
	ia, ib := invMass(s, k.c.A), invMass(s, k.c.B)
	m := ia + ib
	if m == 0 {
		return
	}
	n := k.c.Normal
	pen := k.reach - position(s, k.c.B).Sub(position(s, k.c.A)).Dot(n)
	corr := math.Max(pen-r.cfg.Slop, 0) * r.cfg.Baumgarte / m
	if corr <= 0 || !dynamo.Finite(corr) {
		return
	}
	if ia > 0 {
		a := s.At(k.c.A)
		a.Position = a.Position.Sub(n.Mul(corr * ia))
	}
	if ib > 0 {
		b := s.At(k.c.B)
		b.Position = b.Position.Add(n.Mul(corr * ib))
	}
}
