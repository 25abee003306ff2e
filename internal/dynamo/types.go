package dynamo

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is the vector type for every position, velocity, force and normal.
type Vec3 = mgl64.Vec3

var (
	Zero = Vec3{}
	Up   = Vec3{0, 1, 0}
)

// DefaultGravity is standard gravity pointing down the y axis.
var DefaultGravity = Vec3{0, -9.80665, 0}

func V(x, y, z float64) Vec3 { return Vec3{x, y, z} }

func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// IsFinite reports whether no component is NaN or infinite.
func IsFinite(v Vec3) bool {
	return Finite(v[0]) && Finite(v[1]) && Finite(v[2])
}

func LenSq(v Vec3) float64 { return v.Dot(v) }

// SafeNormalize returns v scaled to unit length together with its original
// length. Vectors shorter than eps yield fallback and a length of zero.
func SafeNormalize(v Vec3, fallback Vec3, eps float64) (Vec3, float64) {
	l := v.Len()
	if l <= eps || !Finite(l) {
		return fallback, 0
	}
	return v.Mul(1 / l), l
}

// Tangent removes the component of v along the unit normal n.
func Tangent(v, n Vec3) Vec3 {
	return v.Sub(n.Mul(v.Dot(n)))
}

func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func FormatVec(v Vec3) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v[0], v[1], v[2])
}
