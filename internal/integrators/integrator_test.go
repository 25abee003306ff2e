package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

func newStore(t *testing.T, descs ...body.Desc) (*body.Store, []body.Handle) {
	t.Helper()
	s := body.NewStore(0)
	hs := make([]body.Handle, len(descs))
	for i, d := range descs {
		h, err := s.Create(d)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		hs[i] = h
	}
	return s, hs
}

func TestSymplecticEulerOneStep(t *testing.T) {
	s, hs := newStore(t, body.NewDesc(dynamo.V(0, 10, 0), dynamo.V(0, 1, 0)))
	g := dynamo.V(0, -9.80665, 0)
	dt := 1.0 / 60.0

	NewSymplecticEuler(0).Integrate(s, g, dt)

	d, _ := s.Get(hs[0])
	wantV := 1 + g[1]*dt
	wantY := 10 + wantV*dt
	if d.Velocity[1] != wantV {
		t.Errorf("vy = %v, want %v", d.Velocity[1], wantV)
	}
	if d.Position[1] != wantY {
		t.Errorf("y = %v, want %v", d.Position[1], wantY)
	}
}

func TestEulerUsesOldVelocity(t *testing.T) {
	s, hs := newStore(t, body.NewDesc(dynamo.V(0, 10, 0), dynamo.Zero))
	NewEuler(0).Integrate(s, dynamo.V(0, -10, 0), 0.1)

	d, _ := s.Get(hs[0])
	if d.Position[1] != 10 {
		t.Errorf("explicit Euler moved with new velocity: y=%v", d.Position[1])
	}
	if math.Abs(d.Velocity[1]+1) > 1e-12 {
		t.Errorf("vy = %v, want -1", d.Velocity[1])
	}
}

func TestVerletFreeFlightExact(t *testing.T) {
	s, hs := newStore(t, body.NewDesc(dynamo.Zero, dynamo.V(2, 0, 0)))
	g := dynamo.V(0, -10, 0)
	integ := NewVerlet(0)
	dt := 0.01
	for i := 0; i < 100; i++ {
		integ.Integrate(s, g, dt)
	}

	d, _ := s.Get(hs[0])
	if math.Abs(d.Position[0]-2) > 1e-9 {
		t.Errorf("x = %v, want 2", d.Position[0])
	}
	if math.Abs(d.Position[1]+5) > 1e-9 {
		t.Errorf("y = %v, want -5", d.Position[1])
	}
}

func TestStaticAndSleepingUntouched(t *testing.T) {
	static := body.NewDesc(dynamo.V(1, 1, 1), dynamo.Zero).Static()
	s, hs := newStore(t, static, body.NewDesc(dynamo.V(0, 3, 0), dynamo.Zero))
	idx, _ := s.Lookup(hs[1])
	s.At(idx).Sleeping = true

	NewSymplecticEuler(0).Integrate(s, dynamo.V(0, -9.8, 0), 0.1)

	for _, h := range hs {
		d, _ := s.Get(h)
		if d.Velocity != dynamo.Zero {
			t.Errorf("%s gained velocity %v", h, d.Velocity)
		}
	}
	d, _ := s.Get(hs[0])
	if d.Position != dynamo.V(1, 1, 1) {
		t.Errorf("static body moved to %v", d.Position)
	}
}

func TestForceAccumulator(t *testing.T) {
	desc := body.NewDesc(dynamo.Zero, dynamo.Zero)
	desc.Mass = 2
	s, hs := newStore(t, desc)
	idx, _ := s.Lookup(hs[0])
	s.At(idx).Force = dynamo.V(4, 0, 0)

	NewSymplecticEuler(0).Integrate(s, dynamo.Zero, 0.5)

	d, _ := s.Get(hs[0])
	if math.Abs(d.Velocity[0]-1) > 1e-12 {
		t.Errorf("vx = %v, want 1", d.Velocity[0])
	}
}

func TestDampingReducesSpeed(t *testing.T) {
	s, hs := newStore(t, body.NewDesc(dynamo.Zero, dynamo.V(1, 0, 0)))
	NewSymplecticEuler(1).Integrate(s, dynamo.Zero, 0.1)

	d, _ := s.Get(hs[0])
	want := 1 / 1.1
	if math.Abs(d.Velocity[0]-want) > 1e-12 {
		t.Errorf("vx = %v, want %v", d.Velocity[0], want)
	}
}

func TestZeroGravityLeavesBodiesUnchanged(t *testing.T) {
	s, hs := newStore(t,
		body.NewDesc(dynamo.V(1, 2, 3), dynamo.Zero),
		body.NewDesc(dynamo.V(-4, 0, 2), dynamo.Zero),
	)
	integ := NewSymplecticEuler(0)
	for i := 0; i < 50; i++ {
		integ.Integrate(s, dynamo.Zero, 1.0/60.0)
	}
	want := []dynamo.Vec3{dynamo.V(1, 2, 3), dynamo.V(-4, 0, 2)}
	for i, h := range hs {
		d, _ := s.Get(h)
		if d.Position != want[i] {
			t.Errorf("body %d moved to %v", i, d.Position)
		}
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	n := parallelThreshold + 100
	serial := body.NewStore(0)
	parallel := body.NewStore(0)
	for i := 0; i < n; i++ {
		d := body.NewDesc(dynamo.V(float64(i), float64(i%7), 0), dynamo.V(0, float64(i%3), 0))
		serial.Create(d)
		parallel.Create(d)
	}

	g := dynamo.V(0, -9.8, 0)
	NewSymplecticEuler(0).Integrate(parallel, g, 0.01)

	idx := serial.Indices(nil)
	for _, i := range idx {
		b := serial.At(i)
		b.Velocity = b.Velocity.Add(g.Mul(0.01))
		b.Position = b.Position.Add(b.Velocity.Mul(0.01))
	}

	for _, i := range idx {
		if serial.At(i).Position != parallel.At(i).Position {
			t.Fatalf("body %d differs: %v vs %v", i, serial.At(i).Position, parallel.At(i).Position)
		}
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range Names() {
		integ, err := New(name, 0)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if integ.Name() != name {
			t.Errorf("Name() = %q, want %q", integ.Name(), name)
		}
	}

	if _, err := New("rk4", 0); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("unknown integrator: %v", err)
	}
	if _, err := New("symplectic", -1); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("negative damping: %v", err)
	}
}
