package wide

import (
	"encoding/binary"
	"math/big"

	"github.com/agbru/ctwide/internal/memory"
)

// Limb is one 32-bit digit of a wide integer.
type Limb = uint32

const (
	limbBytes = memory.LimbBytes
	limbBits  = 8 * limbBytes
)

// Int is an unsigned integer of Width() limbs, least-significant first.
//
// Width is a capacity: high limbs may be zero. The zero value is a valid
// width-0 integer using the default allocator.
type Int struct {
	limbs []Limb
	alloc memory.Allocator
}

// Option configures a newly created Int.
type Option func(*Int)

// WithAllocator makes the Int obtain and release its buffer through a.
func WithAllocator(a memory.Allocator) Option {
	return func(x *Int) { x.alloc = a }
}

func (x *Int) allocator() memory.Allocator {
	if x.alloc == nil {
		return memory.Default()
	}
	return x.alloc
}

// limbsForBytes returns ⌈n/4⌉.
func limbsForBytes(n int) int { return (n + limbBytes - 1) / limbBytes }

// Width returns the number of limbs.
func (x *Int) Width() int { return len(x.limbs) }

// ByteWidth returns 4·Width().
func (x *Int) ByteWidth() int { return len(x.limbs) * limbBytes }

// Limb returns limb i, or 0 when i is outside [0, Width()).
func (x *Int) Limb(i int) Limb {
	if i < 0 || i >= len(x.limbs) {
		return 0
	}
	return x.limbs[i]
}

// Bytes returns the little-endian flattened form of x, ByteWidth() bytes long.
func (x *Int) Bytes() []byte {
	out := make([]byte, x.ByteWidth())
	putLimbs(out, x.limbs)
	return out
}

// FillBytes writes the low min(len(dst), ByteWidth()) bytes of x into dst
// and returns how many were written. Bytes of dst past that are untouched.
func (x *Int) FillBytes(dst []byte) int {
	n := min(len(dst), x.ByteWidth())
	for j := 0; j < n; j++ {
		dst[j] = limbByte(x.limbs, j)
	}
	return n
}

// Big converts x to a big.Int. Variable-time; intended for tests and
// debugging of public values.
func (x *Int) Big() *big.Int {
	be := make([]byte, x.ByteWidth())
	for j := range be {
		be[len(be)-1-j] = limbByte(x.limbs, j)
	}
	return new(big.Int).SetBytes(be)
}

// String returns x in decimal. Variable-time.
func (x *Int) String() string { return x.Big().String() }

// limbByte returns byte j of the flattened limbs, 0 past the end.
func limbByte(limbs []Limb, j int) byte {
	if j >= len(limbs)*limbBytes {
		return 0
	}
	return byte(limbs[j/limbBytes] >> (8 * (j % limbBytes)))
}

// putLimbs writes limbs little-endian into dst, which must hold 4·len(limbs) bytes.
func putLimbs(dst []byte, limbs []Limb) {
	for i, l := range limbs {
		binary.LittleEndian.PutUint32(dst[i*limbBytes:], l)
	}
}

// loadLimbs overwrites every limb from little-endian src; missing bytes read as 0.
func loadLimbs(limbs []Limb, src []byte) {
	for i := range limbs {
		off := i * limbBytes
		switch {
		case off+limbBytes <= len(src):
			limbs[i] = binary.LittleEndian.Uint32(src[off:])
		case off < len(src):
			var w [limbBytes]byte
			copy(w[:], src[off:])
			limbs[i] = binary.LittleEndian.Uint32(w[:])
			memory.WipeBytes(w[:])
		default:
			limbs[i] = 0
		}
	}
}
