package viz

import (
	"math"
	"strings"

	"github.com/san-kum/rigidsim/internal/dynamo"
)

// blank is the empty braille cell; dots are OR-ed onto it.
const blank rune = 0x2800

// dotBits holds the braille bit for each dot of a cell, indexed [row][col].
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a Width x Height grid of braille cells, giving a drawing surface
// of SubWidth x SubHeight dots with the origin at the top left.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) SubWidth() int  { return c.Width * 2 }
func (c *Canvas) SubHeight() int { return c.Height * 4 }

// cell returns the cell holding dot (x, y) and the dot's bit.
func (c *Canvas) cell(x, y int) (*rune, rune, bool) {
	if x < 0 || y < 0 || x >= c.SubWidth() || y >= c.SubHeight() {
		return nil, 0, false
	}
	return &c.Grid[y/4][x/2], dotBits[y%4][x%2], true
}

// Set lights dot (x, y). Dots off the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if p, bit, ok := c.cell(x, y); ok {
		*p |= bit
	}
}

func (c *Canvas) Unset(x, y int) {
	if p, bit, ok := c.cell(x, y); ok {
		*p &^= bit
	}
}

func (c *Canvas) Lit(x, y int) bool {
	p, bit, ok := c.cell(x, y)
	return ok && *p&bit != 0
}

func (c *Canvas) Clear() {
	for _, row := range c.Grid {
		for j := range row {
			row[j] = blank
		}
	}
}

// DrawLine lights the dots nearest to the segment, one per step along its
// longer axis.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := x1-x0, y1-y0
	n := max(abs(dx), abs(dy))
	if n == 0 {
		c.Set(x0, y0)
		return
	}
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		c.Set(x0+int(math.Round(t*float64(dx))), y0+int(math.Round(t*float64(dy))))
	}
}

// span returns the half width of the disc of radius r at row offset dy.
func span(r, dy int) int {
	return int(math.Sqrt(float64(r*r - dy*dy)))
}

func inDisc(dx, dy, r int) bool { return dx*dx+dy*dy <= r*r }

// FillCircle lights every dot within r of (cx, cy), row by row.
func (c *Canvas) FillCircle(cx, cy, r int) {
	for dy := -r; dy <= r; dy++ {
		h := span(r, dy)
		for dx := -h; dx <= h; dx++ {
			c.Set(cx+dx, cy+dy)
		}
	}
}

// DrawCircle lights the dots of the disc that have a neighbour outside it.
// A radius of zero draws a single dot.
func (c *Canvas) DrawCircle(cx, cy, r int) {
	for dy := -r; dy <= r; dy++ {
		h := span(r, dy)
		for dx := -h; dx <= h; dx++ {
			if !inDisc(dx+1, dy, r) || !inDisc(dx-1, dy, r) || !inDisc(dx, dy+1, r) || !inDisc(dx, dy-1, r) {
				c.Set(cx+dx, cy+dy)
			}
		}
	}
}

// DrawSphere projects a sphere through cam and draws it filled or as an
// outline. It reports false when the centre is behind the camera.
func (c *Canvas) DrawSphere(cam *Camera, centre dynamo.Vec3, radius float64, filled bool) bool {
	x, y, _, scale, ok := cam.Project(centre, c.SubWidth(), c.SubHeight())
	if !ok {
		return false
	}
	r := int(radius * scale)
	if filled {
		c.FillCircle(x, y, r)
	} else {
		c.DrawCircle(x, y, r)
	}
	return true
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Height * (c.Width*3 + 1))
	for _, row := range c.Grid {
		for _, r := range row {
			b.WriteRune(r)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
