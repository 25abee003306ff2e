package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

// Kinetic returns the total kinetic energy of the dynamic bodies.
func Kinetic(w *physics.World) float64 {
	ke := 0.0
	for _, b := range w.Snapshot() {
		if b.Static {
			continue
		}
		ke += 0.5 * b.Mass * dynamo.LenSq(b.Velocity)
	}
	return ke
}

// Potential returns the gravitational potential energy of the dynamic
// bodies relative to the origin.
func Potential(w *physics.World) float64 {
	g := w.Gravity()
	pe := 0.0
	for _, b := range w.Snapshot() {
		if b.Static {
			continue
		}
		pe -= b.Mass * g.Dot(b.Position)
	}
	return pe
}

// Momentum returns the total linear momentum of the dynamic bodies.
func Momentum(w *physics.World) dynamo.Vec3 {
	var p dynamo.Vec3
	for _, b := range w.Snapshot() {
		if b.Static {
			continue
		}
		p = p.Add(b.Velocity.Mul(b.Mass))
	}
	return p
}

// Energy reports the mean total mechanical energy over a run.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
	last        float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(w *physics.World, t float64) {
	e.last = Kinetic(w) + Potential(w)
	e.totalEnergy += e.last
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

// Last returns the most recent sample.
func (e *Energy) Last() float64 { return e.last }

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
	e.last = 0
}

// EnergyDrift reports the largest relative change of total energy from the
// first sample. Contacts dissipate energy, so this measures loss in
// colliding scenes and integration error in free flight.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(w *physics.World, t float64) {
	energy := Kinetic(w) + Potential(w)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumMagnitude reports the magnitude of total momentum at the last sample.
type MomentumMagnitude struct {
	value float64
}

func NewMomentum() *MomentumMagnitude { return &MomentumMagnitude{} }

func (m *MomentumMagnitude) Name() string { return "momentum" }
func (m *MomentumMagnitude) Observe(w *physics.World, t float64) {
	m.value = Momentum(w).Len()
}
func (m *MomentumMagnitude) Value() float64 { return m.value }
func (m *MomentumMagnitude) Reset()         { m.value = 0 }
