// Package physics provides the rigid body world.
//
// A [World] owns every body and advances them with fixed, caller-chosen
// time steps. Each call to [World.Step] runs exactly one pass of:
//
//   - integration of awake dynamic bodies under gravity and applied forces
//   - collision detection against other spheres and the optional ground
//   - contact resolution with impulses and positional correction
//   - force clearing and island sleep bookkeeping
//
// Bodies are addressed by [body.Handle]. Handles of destroyed bodies stop
// resolving immediately, even after their slot is reused.
//
// # Example
//
//	w := physics.NewDefault()
//	h, _ := w.CreateRigidBody(body.NewDesc(dynamo.V(0, 10, 0), dynamo.Zero))
//	for i := 0; i < 60; i++ {
//	    w.Step(1.0 / 60.0)
//	}
//	p, _ := w.Position(h)
//
// # Thread Safety
//
// A World is NOT thread-safe. Run independent worlds on separate goroutines
// instead, as sim.Ensemble does.
package physics
