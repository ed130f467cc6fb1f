package memory

//go:generate mockgen -destination=mocks/mock_allocator.go -package=mocks github.com/agbru/ctwide/internal/memory Allocator

import "runtime"

// LimbBytes is the size in bytes of one 32-bit limb.
const LimbBytes = 4

// Allocator owns the lifetime of limb buffers.
//
// Alloc returns a zero-filled buffer of exactly limbs elements (nil for 0).
// Realloc returns a buffer of the new length holding the old prefix, with
// new limbs zeroed; the old buffer is erased when it is not reused.
// Free erases buf and releases it. Free(nil) is a no-op.
type Allocator interface {
	Alloc(limbs int) ([]uint32, error)
	Realloc(buf []uint32, limbs int) ([]uint32, error)
	Free(buf []uint32)
}

// Eraser overwrites memory that held secret data.
type Eraser interface {
	Erase(buf []uint32)
	EraseBytes(buf []byte)
}

// Wipe zeroes buf. The KeepAlive keeps the compiler from treating the stores
// as dead when buf is about to become unreachable.
func Wipe(buf []uint32) {
	clear(buf)
	runtime.KeepAlive(buf)
}

// WipeBytes zeroes buf; see Wipe.
func WipeBytes(buf []byte) {
	clear(buf)
	runtime.KeepAlive(buf)
}

type zeroEraser struct{}

func (zeroEraser) Erase(buf []uint32)    { Wipe(buf) }
func (zeroEraser) EraseBytes(buf []byte) { WipeBytes(buf) }

// ZeroEraser is the default Eraser: it overwrites with zeros.
var ZeroEraser Eraser = zeroEraser{}
