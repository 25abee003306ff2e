package collision

import (
	"github.com/san-kum/rigidsim/internal/body"
)

// Detector produces the contact list for a store.
type Detector struct {
	broadphase Broadphase
	ground     *Plane

	ids      []int
	boxes    []AABB
	pairs    []Pair
	contacts []Contact
}

// NewDetector returns a detector using bp. A nil ground disables the plane.
func NewDetector(bp Broadphase, ground *Plane) *Detector {
	if bp == nil {
		bp = NewNaive()
	}
	return &Detector{broadphase: bp, ground: ground}
}

func (d *Detector) Broadphase() Broadphase { return d.broadphase }
func (d *Detector) Ground() *Plane         { return d.ground }

func (d *Detector) SetGround(p *Plane) { d.ground = p }

// PairCount returns the number of broadphase pairs found by the last call
// to Detect.
func (d *Detector) PairCount() int { return len(d.pairs) }

// Detect returns the contacts of every live body. Pairs of two static bodies
// are skipped. The returned slice is reused by the next call.
func (d *Detector) Detect(s *body.Store) []Contact {
	d.ids = s.Indices(d.ids)
	d.boxes = d.boxes[:0]
	for _, i := range d.ids {
		b := s.At(i)
		d.boxes = append(d.boxes, SphereAABB(b.Position, b.Radius))
	}
	d.pairs = d.broadphase.Pairs(d.ids, d.boxes, d.pairs)

	d.contacts = d.contacts[:0]
	next := 0
	for _, i := range d.ids {
		a := s.At(i)
		if d.ground != nil && !a.Static() {
			if n, pen, ok := SpherePlane(a.Position, a.Radius, *d.ground); ok {
				d.contacts = append(d.contacts, Contact{
					A:           Ground,
					B:           i,
					Normal:      n,
					Penetration: pen,
					Friction:    CombineFriction(d.ground.Friction, a.Friction),
					Restitution: CombineRestitution(d.ground.Restitution, a.Restitution),
				})
			}
		}

		for ; next < len(d.pairs) && d.pairs[next].A == i; next++ {
			p := d.pairs[next]
			b := s.At(p.B)
			if a.Static() && b.Static() {
				continue
			}
			n, pen, ok := SphereSphere(a.Position, a.Radius, b.Position, b.Radius)
			if !ok {
				continue
			}
			d.contacts = append(d.contacts, Contact{
				A:           p.A,
				B:           p.B,
				Normal:      n,
				Penetration: pen,
				Friction:    CombineFriction(a.Friction, b.Friction),
				Restitution: CombineRestitution(a.Restitution, b.Restitution),
			})
		}
	}
	return d.contacts
}
