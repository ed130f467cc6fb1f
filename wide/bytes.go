package wide

import "github.com/agbru/ctwide/internal/ct"

// Byte-granular arithmetic. These routines work on little-endian byte
// slices of public length and are what the multiplier is built from. Each
// reads position i of its sources before writing dst[i], so dst may alias
// a or b (for the offset adds, only at the same starting address).

func addSubBytes(dst, a, b []byte, op uint8) uint8 {
	mask := uint8(ct.Mask32(uint32(op)))
	carry := uint16(op)
	for i := range dst {
		var x, y byte
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		z := uint16(x) + uint16(y^mask) + carry
		dst[i] = byte(z)
		carry = z >> 8
	}
	return uint8(carry)
}

// AddBytes sets dst = a + b over len(dst) bytes and returns the carry out.
func AddBytes(dst, a, b []byte) uint8 { return addSubBytes(dst, a, b, uint8(opAdd)) }

// SubBytes sets dst = a − b over len(dst) bytes and returns 1 when no
// borrow occurred.
func SubBytes(dst, a, b []byte) uint8 { return addSubBytes(dst, a, b, uint8(opSub)) }

// NegBytes sets dst = −src modulo 2^(8·len(dst)), i.e. ^src + 1.
func NegBytes(dst, src []byte) { addSubBytes(dst, nil, src, uint8(opSub)) }

// AddBytesAtByteOffset sets dst = a + b·2^(8·byteOffset) over len(dst)
// bytes. byteOffset must be a public position.
func AddBytesAtByteOffset(dst, a, b []byte, byteOffset int) {
	var carry uint16
	for i := range dst {
		var x, y byte
		if i < len(a) {
			x = a[i]
		}
		if j := i - byteOffset; j >= 0 && j < len(b) {
			y = b[j]
		}
		z := uint16(x) + uint16(y) + carry
		dst[i] = byte(z)
		carry = z >> 8
	}
}

// AddBytesAtBitOffset sets dst = a + b·2^bitOffset over len(dst) bytes.
// Each shifted byte of b spans two destination bytes: the high byte of the
// 16-bit accumulator holds both the bits shifted out and the carry, and is
// added into the next position.
func AddBytesAtBitOffset(dst, a, b []byte, bitOffset uint) {
	byteOffset := int(bitOffset / 8)
	shift := bitOffset % 8
	var carry uint16
	for i := range dst {
		var x byte
		var y uint16
		if i < len(a) {
			x = a[i]
		}
		if j := i - byteOffset; j >= 0 && j < len(b) {
			y = uint16(b[j]) << shift
		}
		z := uint16(x) + y + carry
		dst[i] = byte(z)
		carry = z >> 8
	}
}

// AddInto adds src into the little-endian buffer dst, modulo 2^(8·len(dst)).
func AddInto(dst []byte, src *Int) {
	var carry uint16
	for i := range dst {
		z := uint16(dst[i]) + uint16(limbByte(src.limbs, i)) + carry
		dst[i] = byte(z)
		carry = z >> 8
	}
}
