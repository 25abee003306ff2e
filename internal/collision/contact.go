package collision

import (
	"math"

	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Ground is the participant index used for the ground plane.
const Ground = -1

// Contact is a single touching pair. The normal is unit length and points
// from A to B. For ground contacts A is Ground and the normal is +y.
type Contact struct {
	A, B        int
	Normal      dynamo.Vec3
	Penetration float64
	Friction    float64
	Restitution float64
}

func (c Contact) IsGround() bool { return c.A == Ground }

// Plane is a horizontal ground plane with normal +y at Height.
type Plane struct {
	Height      float64
	Friction    float64
	Restitution float64
}

// CombineFriction mixes two friction coefficients as their geometric mean.
func CombineFriction(a, b float64) float64 {
	return math.Sqrt(a * b)
}

// CombineRestitution keeps the less bouncy of two coefficients.
func CombineRestitution(a, b float64) float64 {
	return math.Min(a, b)
}
