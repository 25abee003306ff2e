package main

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/rigidsim/internal/abi"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/scene"
)

// abiDeviation replays a scene through the packed descriptor table with
// float32 time steps next to a float64 world built from the same decoded
// descriptors, and returns the largest position difference at the end.
func abiDeviation(ctx context.Context, cfg *config.Config) (float64, error) {
	src, handles, err := scene.Build(cfg)
	if err != nil {
		return 0, err
	}

	ref, err := physics.New(cfg.PhysicsConfig())
	if err != nil {
		return 0, err
	}
	table := abi.NewTable(cfg.PhysicsConfig(), nil)
	id := table.WorldCreate()
	if id == 0 {
		return 0, fmt.Errorf("abi world create failed")
	}
	defer table.WorldDestroy(id)

	refHandles := make([]body.Handle, 0, len(handles))
	packed := make([]uint32, 0, len(handles))
	for _, h := range handles {
		d, err := src.Body(h)
		if err != nil {
			return 0, err
		}
		buf := abi.EncodeDesc(d, true)
		decoded, err := abi.DecodeDesc(buf)
		if err != nil {
			return 0, err
		}
		rh, err := ref.CreateRigidBody(decoded)
		if err != nil {
			return 0, err
		}
		ph := table.CreateRigidBodyP(id, buf)
		if ph == abi.InvalidHandle {
			return 0, fmt.Errorf("abi create rejected body %s", h)
		}
		refHandles = append(refHandles, rh)
		packed = append(packed, ph)
	}

	frames := int(math.Round(cfg.Duration / cfg.Dt))
	sub := cfg.Dt / float64(cfg.Substeps)
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		for k := 0; k < cfg.Substeps; k++ {
			if err := ref.Step(sub); err != nil {
				return 0, err
			}
			table.WorldStep(id, float32(sub))
		}
	}

	worst := 0.0
	out := make([]byte, abi.Vec3Size)
	for i, rh := range refHandles {
		want, err := ref.Position(rh)
		if err != nil {
			return 0, err
		}
		table.GetPositionOut(id, packed[i], out)
		got := abi.Widen(abi.Vec3At(out))
		worst = max(worst, got.Sub(want).Len())
	}
	return worst, nil
}
