// Package abi exposes the world through a flat function table operating on
// little-endian float32 buffers, matching the layout used by the C binding.
package abi

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Buffer layout.
const (
	Vec3Size = 12

	PositionOffset = 0
	VelocityOffset = 12
	MassOffset     = 24
	RadiusOffset   = 28

	// DescSize is the descriptor without radius. DescSizeWithRadius adds it.
	DescSize           = 28
	DescSizeWithRadius = 32
)

var le = binary.LittleEndian

func putFloat(b []byte, f float32) { le.PutUint32(b, math.Float32bits(f)) }
func float(b []byte) float32       { return math.Float32frombits(le.Uint32(b)) }

func PutVec3(b []byte, v mgl32.Vec3) {
	putFloat(b[0:], v[0])
	putFloat(b[4:], v[1])
	putFloat(b[8:], v[2])
}

func Vec3At(b []byte) mgl32.Vec3 {
	return mgl32.Vec3{float(b[0:]), float(b[4:]), float(b[8:])}
}

func finite32(f float32) bool { return !math32.IsNaN(f) && !math32.IsInf(f, 0) }

func finiteVec(v mgl32.Vec3) bool {
	return finite32(v[0]) && finite32(v[1]) && finite32(v[2])
}

// Widen converts a float32 vector to the world's vector type.
func Widen(v mgl32.Vec3) dynamo.Vec3 {
	return dynamo.V(float64(v[0]), float64(v[1]), float64(v[2]))
}

// Narrow converts a world vector to float32.
func Narrow(v dynamo.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// DecodeVec3 reads a vector and rejects NaN or infinite components.
func DecodeVec3(b []byte) (dynamo.Vec3, error) {
	if len(b) < Vec3Size {
		return dynamo.Zero, dynamo.Invalid("vec3 buffer of %d bytes", len(b))
	}
	v := Vec3At(b)
	if !finiteVec(v) {
		return dynamo.Zero, dynamo.Invalid("non-finite vec3 %v", v)
	}
	return Widen(v), nil
}

// EncodeDesc writes d using the short layout, or the long one with radius.
func EncodeDesc(d body.Desc, withRadius bool) []byte {
	size := DescSize
	if withRadius {
		size = DescSizeWithRadius
	}
	b := make([]byte, size)
	PutVec3(b[PositionOffset:], Narrow(d.Position))
	PutVec3(b[VelocityOffset:], Narrow(d.Velocity))
	putFloat(b[MassOffset:], float32(d.Mass))
	if withRadius {
		putFloat(b[RadiusOffset:], float32(d.Radius))
	}
	return b
}

// DecodeDesc reads a descriptor. Buffers shorter than DescSizeWithRadius,
// or carrying a radius of zero or below, get the default radius.
func DecodeDesc(b []byte) (body.Desc, error) {
	if len(b) < DescSize {
		return body.Desc{}, fmt.Errorf("%w: descriptor of %d bytes, need %d", dynamo.ErrInvalidParameter, len(b), DescSize)
	}
	pos, vel := Vec3At(b[PositionOffset:]), Vec3At(b[VelocityOffset:])
	mass := float(b[MassOffset:])
	if !finiteVec(pos) || !finiteVec(vel) || !finite32(mass) {
		return body.Desc{}, dynamo.Invalid("non-finite descriptor")
	}

	d := body.NewDesc(Widen(pos), Widen(vel))
	d.Mass = float64(mass)
	if len(b) >= DescSizeWithRadius {
		r := float(b[RadiusOffset:])
		if !finite32(r) {
			return body.Desc{}, dynamo.Invalid("non-finite radius")
		}
		if r > 0 {
			d.Radius = float64(r)
		}
	}
	return d, nil
}
