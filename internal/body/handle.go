package body

import (
	"fmt"
	"math"
)

// Handle identifies a body. The low 16 bits hold the slot index and the
// high 16 bits the slot generation at creation time.
type Handle uint32

// InvalidHandle is never issued by a Store.
const InvalidHandle Handle = math.MaxUint32

const (
	indexBits = 16
	indexMask = 1<<indexBits - 1

	// MaxBodies is the largest number of live bodies a store can hold.
	// Index 0xFFFF is reserved so no issued handle equals InvalidHandle.
	MaxBodies = indexMask
)

func makeHandle(index int, gen uint16) Handle {
	return Handle(uint32(gen)<<indexBits | uint32(index))
}

func (h Handle) Index() int         { return int(uint32(h) & indexMask) }
func (h Handle) Generation() uint16 { return uint16(uint32(h) >> indexBits) }

func (h Handle) String() string {
	if h == InvalidHandle {
		return "body(invalid)"
	}
	return fmt.Sprintf("body(%d:%d)", h.Index(), h.Generation())
}
