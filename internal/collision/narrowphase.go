package collision

import "github.com/san-kum/rigidsim/internal/dynamo"

const normalEpsilon = 1e-12

// SphereSphere tests two spheres. The returned normal points from a to b.
// Coincident centres use +y as the normal.
func SphereSphere(pa dynamo.Vec3, ra float64, pb dynamo.Vec3, rb float64) (dynamo.Vec3, float64, bool) {
	d := pb.Sub(pa)
	rsum := ra + rb
	distSq := dynamo.LenSq(d)
	if distSq >= rsum*rsum {
		return dynamo.Zero, 0, false
	}
	n, dist := dynamo.SafeNormalize(d, dynamo.Up, normalEpsilon)
	return n, rsum - dist, true
}

// SpherePlane tests a sphere against the ground plane.
func SpherePlane(p dynamo.Vec3, r float64, pl Plane) (dynamo.Vec3, float64, bool) {
	pen := pl.Height - (p[1] - r)
	if pen <= 0 {
		return dynamo.Zero, 0, false
	}
	return dynamo.Up, pen, true
}
