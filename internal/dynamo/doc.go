// Package dynamo provides the core primitives shared by the rigid body packages.
//
// It defines the vector type used for positions, velocities and forces,
// the error taxonomy returned by the world, and a small data-parallel helper:
//
//   - [Vec3]: three-component float64 vector (an alias of mgl64.Vec3)
//   - [ErrInvalidHandle], [ErrInvalidParameter], [ErrAllocationFailure]
//   - [StepError]: wraps a failure with the step it happened on
//   - [ParallelFor]: splits an index range across worker goroutines
//
// # Example
//
//	p := dynamo.V(0, 10, 0)
//	v := dynamo.V(1, 0, 0)
//	p = p.Add(v.Mul(dt))
//
// # Thread Safety
//
// Vectors are values and safe to copy. Nothing in this package holds state.
package dynamo
