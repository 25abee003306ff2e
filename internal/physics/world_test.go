package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

func mustCreate(w *physics.World, d body.Desc) body.Handle {
	h, err := w.CreateRigidBody(d)
	Expect(err).NotTo(HaveOccurred())
	return h
}

func stepN(w *physics.World, n int, dt float64) {
	for i := 0; i < n; i++ {
		Expect(w.Step(dt)).To(Succeed())
	}
}

func stackWorld(cfg physics.Config) (*physics.World, []body.Handle) {
	cfg.Ground.Enabled = true
	w, err := physics.New(cfg)
	Expect(err).NotTo(HaveOccurred())
	var hs []body.Handle
	for i := 0; i < 5; i++ {
		hs = append(hs, mustCreate(w, body.NewDesc(dynamo.V(0, 0.5+float64(i), 0), dynamo.Zero)))
	}
	return w, hs
}

func maxSpeed(w *physics.World) float64 {
	m := 0.0
	for _, v := range w.Snapshot() {
		m = math.Max(m, v.Velocity.Len())
	}
	return m
}

var _ = Describe("World", func() {
	var w *physics.World

	BeforeEach(func() {
		w = physics.NewDefault()
	})

	Describe("body lifecycle", func() {
		It("creates bodies with default mass and radius", func() {
			h := mustCreate(w, body.NewDesc(dynamo.V(1, 2, 3), dynamo.Zero))
			d, err := w.Body(h)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Mass).To(Equal(1.0))
			Expect(d.Radius).To(Equal(0.5))
			Expect(w.BodyCount()).To(Equal(1))
			Expect(w.IsAlive(h)).To(BeTrue())
		})

		It("rejects destroyed handles", func() {
			h := mustCreate(w, body.NewDesc(dynamo.Zero, dynamo.Zero))
			Expect(w.DestroyRigidBody(h)).To(Succeed())
			Expect(w.IsAlive(h)).To(BeFalse())
			Expect(w.BodyCount()).To(Equal(0))

			_, err := w.Position(h)
			Expect(err).To(MatchError(dynamo.ErrInvalidHandle))
			Expect(w.DestroyRigidBody(h)).To(MatchError(dynamo.ErrInvalidHandle))
			Expect(w.SetVelocity(h, dynamo.V(1, 0, 0))).To(MatchError(dynamo.ErrInvalidHandle))
		})

		It("never resolves a stale handle after slot reuse", func() {
			h := mustCreate(w, body.NewDesc(dynamo.Zero, dynamo.Zero))
			Expect(w.DestroyRigidBody(h)).To(Succeed())
			h2 := mustCreate(w, body.NewDesc(dynamo.V(5, 5, 5), dynamo.Zero))
			Expect(h2).NotTo(Equal(h))
			_, err := w.Position(h)
			Expect(err).To(MatchError(dynamo.ErrInvalidHandle))
		})

		It("rejects invalid descriptors", func() {
			d := body.NewDesc(dynamo.Zero, dynamo.Zero)
			d.Radius = -1
			_, err := w.CreateRigidBody(d)
			Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
		})

		It("reports allocation failure past the body limit", func() {
			cfg := physics.DefaultConfig()
			cfg.MaxBodies = 3
			limited, err := physics.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 3; i++ {
				mustCreate(limited, body.NewDesc(dynamo.V(float64(i)*2, 0, 0), dynamo.Zero))
			}
			_, err = limited.CreateRigidBody(body.NewDesc(dynamo.Zero, dynamo.Zero))
			Expect(err).To(MatchError(dynamo.ErrAllocationFailure))
		})

		It("returns snapshots that do not alias internal state", func() {
			h := mustCreate(w, body.NewDesc(dynamo.V(0, 1, 0), dynamo.Zero))
			snap := w.Snapshot()
			Expect(snap).To(HaveLen(1))
			snap[0].Position = dynamo.V(9, 9, 9)
			p, _ := w.Position(h)
			Expect(p).To(Equal(dynamo.V(0, 1, 0)))
		})
	})

	Describe("stepping", func() {
		It("rejects non-positive and non-finite time steps", func() {
			h := mustCreate(w, body.NewDesc(dynamo.V(0, 10, 0), dynamo.Zero))
			for _, dt := range []float64{0, -0.01, math.NaN(), math.Inf(1)} {
				Expect(w.Step(dt)).To(MatchError(dynamo.ErrInvalidParameter))
			}
			p, _ := w.Position(h)
			Expect(p).To(Equal(dynamo.V(0, 10, 0)))
			Expect(w.Stats().Steps).To(Equal(0))
		})

		It("applies one semi-implicit Euler step under gravity", func() {
			h := mustCreate(w, body.NewDesc(dynamo.V(0, 10, 0), dynamo.V(0, 2, 0)))
			dt := 1.0 / 60.0
			Expect(w.Step(dt)).To(Succeed())

			v, _ := w.Velocity(h)
			p, _ := w.Position(h)
			wantV := 2 + dynamo.DefaultGravity[1]*dt
			Expect(v[1]).To(Equal(wantV))
			Expect(p[1]).To(Equal(10 + wantV*dt))
		})

		It("leaves separated bodies in place without gravity", func() {
			Expect(w.SetGravity(dynamo.Zero)).To(Succeed())
			a := mustCreate(w, body.NewDesc(dynamo.V(-3, 1, 0), dynamo.Zero))
			b := mustCreate(w, body.NewDesc(dynamo.V(3, 1, 0), dynamo.Zero))
			stepN(w, 120, 1.0/60.0)

			pa, _ := w.Position(a)
			pb, _ := w.Position(b)
			Expect(pa).To(Equal(dynamo.V(-3, 1, 0)))
			Expect(pb).To(Equal(dynamo.V(3, 1, 0)))
		})

		It("uses the new gravity on the next step", func() {
			h := mustCreate(w, body.NewDesc(dynamo.Zero, dynamo.Zero))
			Expect(w.SetGravity(dynamo.V(1, 0, 0))).To(Succeed())
			Expect(w.Gravity()).To(Equal(dynamo.V(1, 0, 0)))
			Expect(w.Step(0.5)).To(Succeed())
			v, _ := w.Velocity(h)
			Expect(v).To(Equal(dynamo.V(0.5, 0, 0)))

			Expect(w.SetGravity(dynamo.V(math.NaN(), 0, 0))).To(MatchError(dynamo.ErrInvalidParameter))
		})

		It("clears applied forces after one step", func() {
			Expect(w.SetGravity(dynamo.Zero)).To(Succeed())
			h := mustCreate(w, body.NewDesc(dynamo.Zero, dynamo.Zero))
			Expect(w.ApplyForce(h, dynamo.V(2, 0, 0))).To(Succeed())
			Expect(w.Step(0.5)).To(Succeed())
			Expect(w.Step(0.5)).To(Succeed())
			v, _ := w.Velocity(h)
			Expect(v).To(Equal(dynamo.V(1, 0, 0)))
		})

		It("never moves static bodies", func() {
			s := mustCreate(w, body.NewDesc(dynamo.V(0, 0, 0), dynamo.Zero).Static())
			mustCreate(w, body.NewDesc(dynamo.V(0, 1.5, 0), dynamo.V(0, -4, 0)))
			stepN(w, 240, 1.0/120.0)
			p, _ := w.Position(s)
			v, _ := w.Velocity(s)
			Expect(p).To(Equal(dynamo.Zero))
			Expect(v).To(Equal(dynamo.Zero))
		})
	})

	Describe("collisions", func() {
		headOn := func(e, speed float64) (body.Handle, body.Handle) {
			Expect(w.SetGravity(dynamo.Zero)).To(Succeed())
			a := body.NewDesc(dynamo.V(-1, 0, 0), dynamo.V(speed, 0, 0))
			b := body.NewDesc(dynamo.V(1, 0, 0), dynamo.V(-speed, 0, 0))
			a.Restitution, b.Restitution = e, e
			return mustCreate(w, a), mustCreate(w, b)
		}

		It("exchanges velocities in an elastic head-on collision", func() {
			a, b := headOn(1, 1)
			stepN(w, 120, 1.0/120.0)
			va, _ := w.Velocity(a)
			vb, _ := w.Velocity(b)
			Expect(va[0]).To(BeNumerically("~", -1, 1e-9))
			Expect(vb[0]).To(BeNumerically("~", 1, 1e-9))
		})

		It("exchanges velocities in a slow elastic collision", func() {
			for _, speed := range []float64{0.1, 0.2, 0.24} {
				w = physics.NewDefault()
				a, b := headOn(1, speed)
				stepN(w, 2000, 1.0/120.0)
				va, _ := w.Velocity(a)
				vb, _ := w.Velocity(b)
				Expect(va[0]).To(BeNumerically("~", -speed, 1e-9), "speed %v", speed)
				Expect(vb[0]).To(BeNumerically("~", speed, 1e-9), "speed %v", speed)
			}
		})

		It("stops both bodies in a perfectly inelastic collision", func() {
			a, b := headOn(0, 1)
			stepN(w, 120, 1.0/120.0)
			va, _ := w.Velocity(a)
			vb, _ := w.Velocity(b)
			Expect(va.Len()).To(BeNumerically("<", 1e-9))
			Expect(vb.Len()).To(BeNumerically("<", 1e-9))
		})

		It("separates overlapping spheres", func() {
			Expect(w.SetGravity(dynamo.Zero)).To(Succeed())
			a := mustCreate(w, body.NewDesc(dynamo.V(-0.3, 0, 0), dynamo.Zero))
			b := mustCreate(w, body.NewDesc(dynamo.V(0.3, 0, 0), dynamo.Zero))
			stepN(w, 60, 1.0/60.0)
			pa, _ := w.Position(a)
			pb, _ := w.Position(b)
			Expect(pb.Sub(pa).Len()).To(BeNumerically(">", 0.98))
		})

		It("produces identical results for every broadphase", func() {
			run := func(bp string) []physics.BodyView {
				cfg := physics.DefaultConfig()
				cfg.Broadphase = bp
				cfg.Ground.Enabled = true
				world, err := physics.New(cfg)
				Expect(err).NotTo(HaveOccurred())
				for i := 0; i < 30; i++ {
					x := float64(i%5) * 0.7
					z := float64(i/5%3) * 0.7
					mustCreate(world, body.NewDesc(dynamo.V(x, 1+float64(i/15)*1.1, z), dynamo.Zero))
				}
				stepN(world, 120, 1.0/60.0)
				return world.Snapshot()
			}
			want := run("naive")
			Expect(run("sap")).To(Equal(want))
			Expect(run("grid")).To(Equal(want))
		})
	})

	Describe("stacking", func() {
		It("brings a five sphere stack to rest", func() {
			sw, hs := stackWorld(physics.DefaultConfig())
			stepN(sw, 500, 1.0/60.0)

			Expect(maxSpeed(sw)).To(BeNumerically("<", 0.01))
			prev := math.Inf(-1)
			for i, h := range hs {
				p, _ := sw.Position(h)
				Expect(p[1]).To(BeNumerically(">", prev))
				Expect(math.Abs(p[0])).To(BeNumerically("<", 1e-6))
				Expect(p[1]).To(BeNumerically("~", 0.5+float64(i), 0.02*float64(i+1)))
				prev = p[1]
			}
			p0, _ := sw.Position(hs[0])
			Expect(0.5 - p0[1]).To(BeNumerically("<", 0.02))
		})

		It("rests without sleeping enabled", func() {
			cfg := physics.DefaultConfig()
			cfg.Sleep.Enabled = false
			sw, _ := stackWorld(cfg)
			stepN(sw, 500, 1.0/60.0)
			Expect(maxSpeed(sw)).To(BeNumerically("<", 0.01))
		})

		It("puts the resting stack to sleep and wakes it on impact", func() {
			sw, hs := stackWorld(physics.DefaultConfig())
			stepN(sw, 300, 1.0/60.0)
			for _, h := range hs {
				Expect(sw.IsSleeping(h)).To(BeTrue())
			}
			Expect(sw.Stats().Sleeping).To(Equal(5))

			ball := mustCreate(sw, body.NewDesc(dynamo.V(0, 6.5, 0), dynamo.V(0, -3, 0)))
			woke := false
			for i := 0; i < 60 && !woke; i++ {
				Expect(sw.Step(1.0 / 60.0)).To(Succeed())
				woke = !sw.IsSleeping(hs[4])
			}
			Expect(woke).To(BeTrue())

			stepN(sw, 600, 1.0/60.0)
			p, _ := sw.Position(ball)
			Expect(p[1]).To(BeNumerically(">", 5))
			Expect(maxSpeed(sw)).To(BeNumerically("<", 0.01))
		})

		It("wakes sleeping bodies when gravity changes", func() {
			sw, hs := stackWorld(physics.DefaultConfig())
			stepN(sw, 300, 1.0/60.0)
			Expect(sw.IsSleeping(hs[0])).To(BeTrue())
			Expect(sw.SetGravity(dynamo.V(0, 9.8, 0))).To(Succeed())
			Expect(sw.IsSleeping(hs[0])).To(BeFalse())
			Expect(sw.Step(1.0 / 60.0)).To(Succeed())
			v, _ := sw.Velocity(hs[4])
			Expect(v[1]).To(BeNumerically(">", 0))
		})

		It("wakes bodies resting on a destroyed body", func() {
			sw, hs := stackWorld(physics.DefaultConfig())
			stepN(sw, 300, 1.0/60.0)
			Expect(sw.DestroyRigidBody(hs[0])).To(Succeed())
			Expect(sw.IsSleeping(hs[1])).To(BeFalse())
		})
	})

	Describe("sleeping", func() {
		It("puts a slow body to sleep with zero velocity", func() {
			Expect(w.SetGravity(dynamo.Zero)).To(Succeed())
			h := mustCreate(w, body.NewDesc(dynamo.Zero, dynamo.V(0.005, 0, 0)))
			stepN(w, 120, 1.0/120.0)
			Expect(w.IsSleeping(h)).To(BeTrue())
			v, _ := w.Velocity(h)
			Expect(v).To(Equal(dynamo.Zero))
		})

		It("wakes a body when its velocity is set", func() {
			Expect(w.SetGravity(dynamo.Zero)).To(Succeed())
			h := mustCreate(w, body.NewDesc(dynamo.Zero, dynamo.Zero))
			stepN(w, 120, 1.0/120.0)
			Expect(w.IsSleeping(h)).To(BeTrue())
			Expect(w.SetVelocity(h, dynamo.V(1, 0, 0))).To(Succeed())
			Expect(w.IsSleeping(h)).To(BeFalse())
			Expect(w.Step(0.5)).To(Succeed())
			p, _ := w.Position(h)
			Expect(p[0]).To(Equal(0.5))
		})

		It("keeps fast bodies awake", func() {
			Expect(w.SetGravity(dynamo.Zero)).To(Succeed())
			h := mustCreate(w, body.NewDesc(dynamo.Zero, dynamo.V(0, 0, 1)))
			stepN(w, 240, 1.0/120.0)
			Expect(w.IsSleeping(h)).To(BeFalse())
		})
	})

	Describe("determinism", func() {
		It("produces bit-identical trajectories for identical inputs", func() {
			run := func() []physics.BodyView {
				sw, _ := stackWorld(physics.DefaultConfig())
				mustCreate(sw, body.NewDesc(dynamo.V(0.2, 8, 0.1), dynamo.V(0, -1, 0)))
				stepN(sw, 240, 1.0/120.0)
				return sw.Snapshot()
			}
			Expect(run()).To(Equal(run()))
		})
	})

	Describe("configuration", func() {
		It("rejects unknown integrators and broadphases", func() {
			cfg := physics.DefaultConfig()
			cfg.Integrator = "rk4"
			_, err := physics.New(cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidParameter))

			cfg = physics.DefaultConfig()
			cfg.Broadphase = "bvh"
			_, err = physics.New(cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
		})

		It("rejects invalid solver settings", func() {
			cfg := physics.DefaultConfig()
			cfg.Solver.Iterations = 0
			_, err := physics.New(cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
		})

		It("tracks step statistics", func() {
			sw, _ := stackWorld(physics.DefaultConfig())
			Expect(sw.Step(1.0 / 60.0)).To(Succeed())
			st := sw.Stats()
			Expect(st.Steps).To(Equal(1))
			Expect(st.Bodies).To(Equal(5))
			Expect(st.Contacts).To(BeNumerically(">=", 1))
			Expect(st.Time).To(Equal(1.0 / 60.0))
		})
	})
})
