package collision

import "github.com/san-kum/rigidsim/internal/dynamo"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max dynamo.Vec3
}

func SphereAABB(center dynamo.Vec3, radius float64) AABB {
	r := dynamo.V(radius, radius, radius)
	return AABB{Min: center.Sub(r), Max: center.Add(r)}
}

// Overlaps reports whether a and b intersect. Touching boxes overlap.
func (a AABB) Overlaps(b AABB) bool {
	return a.Min[0] <= b.Max[0] && a.Max[0] >= b.Min[0] &&
		a.Min[1] <= b.Max[1] && a.Max[1] >= b.Min[1] &&
		a.Min[2] <= b.Max[2] && a.Max[2] >= b.Min[2]
}

func (a AABB) Union(b AABB) AABB {
	var out AABB
	for i := 0; i < 3; i++ {
		out.Min[i] = min(a.Min[i], b.Min[i])
		out.Max[i] = max(a.Max[i], b.Max[i])
	}
	return out
}
