package abi

import (
	"log/slog"
	"math"
	"sort"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)

// InvalidHandle is returned when a body cannot be created.
const InvalidHandle uint32 = math.MaxUint32

// WorldID names a world owned by a Table. Zero is never issued.
type WorldID uint32

// Table owns worlds on behalf of a foreign caller. Calls never fail loudly;
// bad arguments return InvalidHandle, zero or write zeros, and the reason is
// logged at debug level. A Table is not safe for concurrent use.
type Table struct {
	worlds map[WorldID]*physics.World
	next   WorldID
	cfg    physics.Config
	logger *slog.Logger
}

// NewTable returns a table that creates worlds from cfg.
func NewTable(cfg physics.Config, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Table{
		worlds: make(map[WorldID]*physics.World),
		cfg:    cfg,
		logger: logger,
	}
}

func Version() (major, minor, patch uint32) {
	return VersionMajor, VersionMinor, VersionPatch
}

// WorldCreate returns a new world, or zero if the configuration is rejected.
func (t *Table) WorldCreate() WorldID {
	w, err := physics.New(t.cfg)
	if err != nil {
		t.logger.Debug("world create failed", "err", err)
		return 0
	}
	t.next++
	t.worlds[t.next] = w
	return t.next
}

// WorldDestroy releases a world. Unknown ids are ignored.
func (t *Table) WorldDestroy(id WorldID) {
	delete(t.worlds, id)
}

// Worlds lists live world ids in ascending order.
func (t *Table) Worlds() []WorldID {
	ids := make([]WorldID, 0, len(t.worlds))
	for id := range t.worlds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// World returns the world behind id, or nil.
func (t *Table) World(id WorldID) *physics.World {
	return t.worlds[id]
}

// CreateRigidBodyP creates a body from a packed descriptor.
func (t *Table) CreateRigidBodyP(id WorldID, desc []byte) uint32 {
	w := t.worlds[id]
	if w == nil {
		return InvalidHandle
	}
	d, err := DecodeDesc(desc)
	if err != nil {
		t.logger.Debug("bad descriptor", "world", id, "err", err)
		return InvalidHandle
	}
	h, err := w.CreateRigidBody(d)
	if err != nil {
		t.logger.Debug("create failed", "world", id, "err", err)
		return InvalidHandle
	}
	return uint32(h)
}

func (t *Table) DestroyRigidBodyP(id WorldID, h uint32) {
	if w := t.worlds[id]; w != nil {
		if err := w.DestroyRigidBody(body.Handle(h)); err != nil {
			t.logger.Debug("destroy failed", "world", id, "handle", h, "err", err)
		}
	}
}

// WorldStep advances a world. Invalid time steps are ignored.
func (t *Table) WorldStep(id WorldID, dt float32) {
	if w := t.worlds[id]; w != nil {
		if err := w.Step(float64(dt)); err != nil {
			t.logger.Debug("step rejected", "world", id, "dt", dt, "err", err)
		}
	}
}

// GetPositionOut writes the position of h into out, or zeros if h is not
// a live body.
func (t *Table) GetPositionOut(id WorldID, h uint32, out []byte) {
	if len(out) < Vec3Size {
		return
	}
	PutVec3(out, Narrow(t.position(id, h)))
}

func (t *Table) position(id WorldID, h uint32) dynamo.Vec3 {
	w := t.worlds[id]
	if w == nil {
		return dynamo.Zero
	}
	p, err := w.Position(body.Handle(h))
	if err != nil {
		return dynamo.Zero
	}
	return p
}

// SetGravityP reads gravity from a packed vec3. Non-finite values are ignored.
func (t *Table) SetGravityP(id WorldID, g []byte) {
	w := t.worlds[id]
	if w == nil {
		return
	}
	v, err := DecodeVec3(g)
	if err != nil {
		t.logger.Debug("bad gravity", "world", id, "err", err)
		return
	}
	if err := w.SetGravity(v); err != nil {
		t.logger.Debug("gravity rejected", "world", id, "err", err)
	}
}

func (t *Table) GetGravityOut(id WorldID, out []byte) {
	if len(out) < Vec3Size {
		return
	}
	g := dynamo.Zero
	if w := t.worlds[id]; w != nil {
		g = w.Gravity()
	}
	PutVec3(out, Narrow(g))
}

// IsAlive returns 1 for a live body and 0 otherwise.
func (t *Table) IsAlive(id WorldID, h uint32) uint32 {
	if w := t.worlds[id]; w != nil && w.IsAlive(body.Handle(h)) {
		return 1
	}
	return 0
}

func (t *Table) BodyCount(id WorldID) uint32 {
	if w := t.worlds[id]; w != nil {
		return uint32(w.BodyCount())
	}
	return 0
}
