package body

import (
	"fmt"

	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Store owns every body of a world. Slots are recycled through a free list
// and each reuse bumps the slot generation so stale handles stop resolving.
type Store struct {
	slots []Body
	gens  []uint16
	alive []bool
	free  []int
	live  int
	limit int
}

// NewStore returns a store holding at most limit live bodies.
// A limit of zero or above MaxBodies means MaxBodies.
func NewStore(limit int) *Store {
	if limit <= 0 || limit > MaxBodies {
		limit = MaxBodies
	}
	return &Store{limit: limit}
}

func (s *Store) Create(d Desc) (Handle, error) {
	if err := d.Validate(); err != nil {
		return InvalidHandle, err
	}
	if s.live >= s.limit {
		return InvalidHandle, fmt.Errorf("%w: store holds %d bodies", dynamo.ErrAllocationFailure, s.live)
	}

	var idx int
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = len(s.slots)
		s.slots = append(s.slots, Body{})
		s.gens = append(s.gens, 0)
		s.alive = append(s.alive, false)
	}

	s.slots[idx] = fromDesc(d)
	s.alive[idx] = true
	s.live++
	return makeHandle(idx, s.gens[idx]), nil
}

func (s *Store) resolve(h Handle) (int, bool) {
	if h == InvalidHandle {
		return 0, false
	}
	idx := h.Index()
	if idx >= len(s.slots) || !s.alive[idx] || s.gens[idx] != h.Generation() {
		return 0, false
	}
	return idx, true
}

func (s *Store) Alive(h Handle) bool {
	_, ok := s.resolve(h)
	return ok
}

func (s *Store) Get(h Handle) (Desc, error) {
	idx, ok := s.resolve(h)
	if !ok {
		return Desc{}, fmt.Errorf("%w: %s", dynamo.ErrInvalidHandle, h)
	}
	return s.slots[idx].Desc(), nil
}

// Set replaces the state of a live body and wakes it.
func (s *Store) Set(h Handle, d Desc) error {
	idx, ok := s.resolve(h)
	if !ok {
		return fmt.Errorf("%w: %s", dynamo.ErrInvalidHandle, h)
	}
	if err := d.Validate(); err != nil {
		return err
	}
	s.slots[idx] = fromDesc(d)
	return nil
}

// Lookup returns the slot index of a live handle.
func (s *Store) Lookup(h Handle) (int, error) {
	idx, ok := s.resolve(h)
	if !ok {
		return 0, fmt.Errorf("%w: %s", dynamo.ErrInvalidHandle, h)
	}
	return idx, nil
}

func (s *Store) Destroy(h Handle) error {
	idx, ok := s.resolve(h)
	if !ok {
		return fmt.Errorf("%w: %s", dynamo.ErrInvalidHandle, h)
	}
	s.alive[idx] = false
	s.gens[idx]++
	s.slots[idx] = Body{}
	s.free = append(s.free, idx)
	s.live--
	return nil
}

func (s *Store) Len() int   { return s.live }
func (s *Store) Cap() int   { return len(s.slots) }
func (s *Store) Limit() int { return s.limit }

// At returns the body in slot i. The pointer is valid until the next Create.
func (s *Store) At(i int) *Body { return &s.slots[i] }

func (s *Store) Live(i int) bool { return i >= 0 && i < len(s.alive) && s.alive[i] }

// HandleAt returns the handle of the live body in slot i.
func (s *Store) HandleAt(i int) Handle {
	if !s.Live(i) {
		return InvalidHandle
	}
	return makeHandle(i, s.gens[i])
}

// Indices appends the slot indices of live bodies to dst in ascending order.
func (s *Store) Indices(dst []int) []int {
	dst = dst[:0]
	for i, ok := range s.alive {
		if ok {
			dst = append(dst, i)
		}
	}
	return dst
}

// Handles returns the handles of live bodies in ascending slot order.
func (s *Store) Handles() []Handle {
	out := make([]Handle, 0, s.live)
	for i, ok := range s.alive {
		if ok {
			out = append(out, makeHandle(i, s.gens[i]))
		}
	}
	return out
}

// Each calls fn for every live body in ascending slot order.
func (s *Store) Each(fn func(h Handle, b *Body)) {
	for i, ok := range s.alive {
		if ok {
			fn(makeHandle(i, s.gens[i]), &s.slots[i])
		}
	}
}

func (s *Store) ClearForces() {
	for i, ok := range s.alive {
		if ok {
			s.slots[i].Force = dynamo.Zero
		}
	}
}
