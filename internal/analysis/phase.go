package analysis

import (
	"math"
	"strings"
)

type Point struct{ X, Y float64 }

// PhasePortrait pairs a body's height with its vertical velocity.
type PhasePortrait struct {
	Points []Point
}

// Velocity differentiates samples against times: central differences inside,
// one-sided at the ends.
func Velocity(samples, times []float64) []float64 {
	n := min(len(samples), len(times))
	v := make([]float64, n)
	if n < 2 {
		return v
	}
	for i := 0; i < n; i++ {
		lo, hi := max(i-1, 0), min(i+1, n-1)
		if dt := times[hi] - times[lo]; dt > 0 {
			v[i] = (samples[hi] - samples[lo]) / dt
		}
	}
	return v
}

func HeightPhase(heights, times []float64) *PhasePortrait {
	v := Velocity(heights, times)
	p := &PhasePortrait{Points: make([]Point, len(v))}
	for i := range v {
		p.Points[i] = Point{X: heights[i], Y: v[i]}
	}
	return p
}

// Bounces returns the interpolated times at which the vertical velocity
// turns from falling to rising.
func Bounces(heights, times []float64) []float64 {
	v := Velocity(heights, times)
	var out []float64
	for i := 1; i < len(v); i++ {
		if v[i-1] < 0 && v[i] >= 0 {
			frac := -v[i-1] / (v[i] - v[i-1])
			if math.IsNaN(frac) || math.IsInf(frac, 0) {
				frac = 0.5
			}
			out = append(out, times[i-1]+frac*(times[i]-times[i-1]))
		}
	}
	return out
}

// SettleTime returns the first time after which samples stay within tol of
// their final value, or -1 for an empty series.
func SettleTime(samples, times []float64, tol float64) float64 {
	n := min(len(samples), len(times))
	if n == 0 {
		return -1
	}
	final := samples[n-1]
	at := times[n-1]
	for i := n - 1; i >= 0; i-- {
		if math.Abs(samples[i]-final) > tol {
			break
		}
		at = times[i]
	}
	return at
}

// bounds returns the padded extent of the points.
func bounds(points []Point) (minX, maxX, minY, maxY float64) {
	minX, maxX = points[0].X, points[0].X
	minY, maxY = points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return minX - rangeX*0.1, maxX + rangeX*0.1, minY - rangeY*0.1, maxY + rangeY*0.1
}

// ToASCII plots the portrait with axes where they cross the view.
func (p *PhasePortrait) ToASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX, minY, maxY := bounds(p.Points)
	rangeX := maxX - minX
	rangeY := maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, pt := range p.Points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
