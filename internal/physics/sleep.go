package physics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// islands groups touching dynamic bodies with a union-find so a stack falls
// asleep, and wakes, as a unit.
type islands struct {
	parent  []int
	minTime []float64
}

func (is *islands) find(x int) int {
	for is.parent[x] != x {
		is.parent[x] = is.parent[is.parent[x]]
		x = is.parent[x]
	}
	return x
}

func (is *islands) union(a, b int) {
	ra, rb := is.find(a), is.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		is.parent[rb] = ra
	} else {
		is.parent[ra] = rb
	}
}

// update advances sleep timers and puts to sleep every island whose bodies
// have all been slow for cfg.Time. It returns the number of sleeping bodies.
func (is *islands) update(s *body.Store, contacts []collision.Contact, dt float64, cfg SleepConfig) int {
	n := s.Cap()
	is.parent = is.parent[:0]
	is.minTime = is.minTime[:0]
	for i := 0; i < n; i++ {
		is.parent = append(is.parent, i)
		is.minTime = append(is.minTime, math.Inf(1))
	}

	for _, c := range contacts {
		if c.IsGround() || !s.At(c.A).Dynamic() || !s.At(c.B).Dynamic() {
			continue
		}
		is.union(c.A, c.B)
	}

	for i := 0; i < n; i++ {
		if !s.Live(i) {
			continue
		}
		b := s.At(i)
		if !b.Dynamic() {
			continue
		}
		if b.Velocity.Len() < cfg.Speed {
			b.SleepTimer += dt
		} else {
			b.SleepTimer = 0
		}
		r := is.find(i)
		is.minTime[r] = math.Min(is.minTime[r], b.SleepTimer)
	}

	sleeping := 0
	for i := 0; i < n; i++ {
		if !s.Live(i) {
			continue
		}
		b := s.At(i)
		if b.Dynamic() && is.minTime[is.find(i)] >= cfg.Time {
			b.Sleeping = true
			b.Velocity = dynamo.Zero
		}
		if b.Sleeping {
			sleeping++
		}
	}
	return sleeping
}
