package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/physics"
)

// MaxSpeed returns the largest body speed in the world.
func MaxSpeed(w *physics.World) float64 {
	m := 0.0
	for _, b := range w.Snapshot() {
		m = math.Max(m, b.Velocity.Len())
	}
	return m
}

// MaxPenetration returns the deepest overlap between two spheres or between
// a sphere and the ground.
func MaxPenetration(w *physics.World) float64 {
	bodies := w.Snapshot()
	ground := w.Ground()
	deepest := 0.0
	for i, a := range bodies {
		if ground != nil && !a.Static {
			deepest = math.Max(deepest, ground.Height-(a.Position[1]-a.Radius))
		}
		for _, b := range bodies[i+1:] {
			pen := a.Radius + b.Radius - b.Position.Sub(a.Position).Len()
			deepest = math.Max(deepest, pen)
		}
	}
	return deepest
}

// Penetration tracks the deepest overlap seen during a run.
type Penetration struct {
	name    string
	deepest float64
}

func NewPenetration() *Penetration {
	return &Penetration{name: "max_penetration"}
}

func (p *Penetration) Name() string { return p.name }

func (p *Penetration) Observe(w *physics.World, t float64) {
	p.deepest = math.Max(p.deepest, MaxPenetration(w))
}

func (p *Penetration) Value() float64 { return p.deepest }
func (p *Penetration) Reset()         { p.deepest = 0 }

// Stability reports the fraction of samples in which some body moved faster
// than threshold. A settled scene scores zero.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string { return s.name }

func (s *Stability) Observe(w *physics.World, t float64) {
	s.samples++
	if MaxSpeed(w) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.violations) / float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// RestTime reports the first time at which every body moved slower than
// threshold, or -1 if that never happened.
type RestTime struct {
	threshold float64
	at        float64
}

func NewRestTime(threshold float64) *RestTime {
	return &RestTime{threshold: threshold, at: -1}
}

func (r *RestTime) Name() string { return "rest_time" }

func (r *RestTime) Observe(w *physics.World, t float64) {
	if r.at < 0 && MaxSpeed(w) < r.threshold {
		r.at = t
	}
}

func (r *RestTime) Value() float64 { return r.at }
func (r *RestTime) Reset()         { r.at = -1 }
