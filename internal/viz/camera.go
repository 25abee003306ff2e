package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Camera orbits the scene origin and projects world points onto the canvas.
type Camera struct {
	Target   dynamo.Vec3
	Distance float64
	Yaw      float64
	Pitch    float64
	Zoom     float64
	Scale    float64
}

func NewCamera() *Camera {
	return &Camera{Target: dynamo.V(0, 3, 0), Distance: 40, Pitch: 0.25, Zoom: 1, Scale: 4}
}

func (c *Camera) Rotate(dyaw, dpitch float64) {
	c.Yaw += dyaw
	c.Pitch = dynamo.Clamp(c.Pitch+dpitch, -math.Pi/2+0.05, math.Pi/2-0.05)
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotation() mgl64.Mat3 {
	return mgl64.Rotate3DX(c.Pitch).Mul3(mgl64.Rotate3DY(-c.Yaw))
}

// Project maps p to dot coordinates on a sw x sh canvas. It returns the view
// depth, the screen-space scale at that depth and whether p is in front of
// the camera.
func (c *Camera) Project(p dynamo.Vec3, sw, sh int) (x, y int, depth, scale float64, ok bool) {
	v := c.rotation().Mul3x1(p.Sub(c.Target))
	dist := c.Distance - v[2]
	if dist <= 0.1 {
		return 0, 0, 0, 0, false
	}
	scale = c.Scale * c.Zoom * c.Distance / dist * float64(min(sw, sh/2)) / 40
	x = int(math.Round(v[0]*scale)) + sw/2
	y = int(math.Round(-v[1]*scale/2)) + sh/2
	return x, y, dist, scale, true
}

// Edge is a world-space segment; Start == End draws a dot.
type Edge struct {
	Start, End dynamo.Vec3
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe                { return &Wireframe{} }
func (w *Wireframe) AddEdge(s, e dynamo.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) Clear()                   { w.Edges = w.Edges[:0] }

// GroundGrid returns a square grid of the given half extent at height h.
func GroundGrid(h, extent float64, lines int) *Wireframe {
	w := NewWireframe()
	if lines < 2 {
		lines = 2
	}
	step := 2 * extent / float64(lines-1)
	for i := 0; i < lines; i++ {
		o := -extent + float64(i)*step
		w.AddEdge(dynamo.V(o, h, -extent), dynamo.V(o, h, extent))
		w.AddEdge(dynamo.V(-extent, h, o), dynamo.V(extent, h, o))
	}
	return w
}

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render draws the wireframe far to near.
func Render(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw, ch := c.SubWidth(), c.SubHeight()
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, _, v1 := cam.Project(e.Start, cw, ch)
		x2, y2, d2, _, v2 := cam.Project(e.End, cw, ch)
		if v1 && v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth > proj[j].depth })
	for _, e := range proj {
		c.DrawLine(e.x1, e.y1, e.x2, e.y2)
	}
}
