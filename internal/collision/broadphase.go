package collision

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Pair is a candidate pair of slot indices with A < B.
type Pair struct {
	A, B int
}

func makePair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Broadphase returns every pair of ids whose boxes overlap. ids[i] is the
// slot index owning boxes[i] and ids is ascending. The result is appended
// to out and sorted by (A, B).
type Broadphase interface {
	Name() string
	Pairs(ids []int, boxes []AABB, out []Pair) []Pair
}

func sortPairs(p []Pair) {
	sort.Slice(p, func(i, j int) bool {
		if p[i].A != p[j].A {
			return p[i].A < p[j].A
		}
		return p[i].B < p[j].B
	})
}

// Naive tests every pair.
type Naive struct{}

func NewNaive() *Naive { return &Naive{} }

func (n *Naive) Name() string { return "naive" }

func (n *Naive) Pairs(ids []int, boxes []AABB, out []Pair) []Pair {
	out = out[:0]
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			if boxes[i].Overlaps(boxes[j]) {
				out = append(out, Pair{A: ids[i], B: ids[j]})
			}
		}
	}
	return out
}

// SweepAndPrune sorts boxes along x and only tests boxes whose x intervals
// overlap.
type SweepAndPrune struct {
	order []int
}

func NewSweepAndPrune() *SweepAndPrune { return &SweepAndPrune{} }

func (s *SweepAndPrune) Name() string { return "sap" }

func (s *SweepAndPrune) Pairs(ids []int, boxes []AABB, out []Pair) []Pair {
	out = out[:0]
	s.order = s.order[:0]
	for i := range ids {
		s.order = append(s.order, i)
	}
	sort.SliceStable(s.order, func(i, j int) bool {
		return boxes[s.order[i]].Min[0] < boxes[s.order[j]].Min[0]
	})

	for i, a := range s.order {
		maxX := boxes[a].Max[0]
		for _, b := range s.order[i+1:] {
			if boxes[b].Min[0] > maxX {
				break
			}
			if boxes[a].Overlaps(boxes[b]) {
				out = append(out, makePair(ids[a], ids[b]))
			}
		}
	}
	sortPairs(out)
	return out
}

type cellKey struct {
	x, y, z int64
}

// Grid hashes boxes into uniform cells. Cells are never smaller than the
// largest box, so a CellSize of zero sizes them to it.
type Grid struct {
	CellSize float64
	cells    map[cellKey][]int
	seen     map[Pair]struct{}
}

func NewGrid(cellSize float64) *Grid {
	return &Grid{
		CellSize: cellSize,
		cells:    make(map[cellKey][]int),
		seen:     make(map[Pair]struct{}),
	}
}

func (g *Grid) Name() string { return "grid" }

func (g *Grid) cellSize(boxes []AABB) float64 {
	size := g.CellSize
	for _, b := range boxes {
		for k := 0; k < 3; k++ {
			size = max(size, b.Max[k]-b.Min[k])
		}
	}
	if size <= 0 {
		return 1
	}
	return size
}

func (g *Grid) Pairs(ids []int, boxes []AABB, out []Pair) []Pair {
	out = out[:0]
	clear(g.cells)
	clear(g.seen)
	size := g.cellSize(boxes)
	inv := 1 / size

	cell := func(x float64) int64 { return int64(math.Floor(x * inv)) }

	for i, b := range boxes {
		x0, x1 := cell(b.Min[0]), cell(b.Max[0])
		y0, y1 := cell(b.Min[1]), cell(b.Max[1])
		z0, z1 := cell(b.Min[2]), cell(b.Max[2])
		for x := x0; x <= x1; x++ {
			for y := y0; y <= y1; y++ {
				for z := z0; z <= z1; z++ {
					k := cellKey{x, y, z}
					for _, j := range g.cells[k] {
						p := makePair(ids[j], ids[i])
						if _, dup := g.seen[p]; dup {
							continue
						}
						g.seen[p] = struct{}{}
						if boxes[i].Overlaps(boxes[j]) {
							out = append(out, p)
						}
					}
					g.cells[k] = append(g.cells[k], i)
				}
			}
		}
	}
	sortPairs(out)
	return out
}

var broadphases = map[string]func(cellSize float64) Broadphase{
	"naive": func(float64) Broadphase { return NewNaive() },
	"sap":   func(float64) Broadphase { return NewSweepAndPrune() },
	"grid":  func(c float64) Broadphase { return NewGrid(c) },
}

// NewBroadphase returns the broadphase registered under name.
func NewBroadphase(name string, cellSize float64) (Broadphase, error) {
	fn, ok := broadphases[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown broadphase: %s", dynamo.ErrInvalidParameter, name)
	}
	if cellSize < 0 || !dynamo.Finite(cellSize) {
		return nil, dynamo.Invalid("grid cell size %v", cellSize)
	}
	return fn(cellSize), nil
}

func BroadphaseNames() []string {
	names := make([]string, 0, len(broadphases))
	for n := range broadphases {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
