package sim

import (
	"time"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/physics"
)

// Metric accumulates a scalar over a run. Observe is called after every frame.
type Metric interface {
	Name() string
	Observe(w *physics.World, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(w *physics.World, t float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(w *physics.World, t float64)

func (f ObserverFunc) OnStep(w *physics.World, t float64) { f(w, t) }

// Frame is a recorded snapshot.
type Frame struct {
	Time   float64
	Bodies []physics.BodyView
}

type Result struct {
	Scene      string
	Seed       int64
	Handles    []body.Handle
	Frames     []Frame
	Metrics    map[string]float64
	StepsTaken int
	Stats      physics.Stats
	Elapsed    time.Duration
}

// Final returns the last recorded frame.
func (r *Result) Final() Frame {
	if len(r.Frames) == 0 {
		return Frame{}
	}
	return r.Frames[len(r.Frames)-1]
}

// Identical reports whether two runs recorded bit-identical frames.
func (r *Result) Identical(o *Result) bool {
	if len(r.Frames) != len(o.Frames) {
		return false
	}
	for i := range r.Frames {
		a, b := r.Frames[i], o.Frames[i]
		if a.Time != b.Time || len(a.Bodies) != len(b.Bodies) {
			return false
		}
		for j := range a.Bodies {
			if a.Bodies[j] != b.Bodies[j] {
				return false
			}
		}
	}
	return true
}
