package wide

import (
	"encoding/binary"

	apperrors "github.com/agbru/ctwide/internal/errors"
	"github.com/agbru/ctwide/internal/memory"
)

// mulStep identifies which branch of the byte multiplier ran.
type mulStep uint8

const (
	stepEmpty    mulStep = iota // an operand has no bytes
	stepByteByte                // 1 byte × 1 byte
	stepByteRow                 // 1 byte × n bytes
	stepSplit                   // four half-size products
)

// mulTracer observes every multiplier call in pre-order. Tests use it to
// show that the recursion depends on operand lengths only.
type mulTracer func(step mulStep, lenA, lenB int)

// MulBytes sets dst = a·b for little-endian byte operands.
// len(dst) must equal len(a)+len(b); dst may alias a or b.
//
// The split into four half-size products is chosen from the lengths
// alone, so two calls with equal lengths run the same steps.
func MulBytes(dst, a, b []byte) {
	if len(dst) != len(a)+len(b) {
		panic("wide: MulBytes destination length must be len(a)+len(b)")
	}
	mulBytes(dst, a, b, nil)
}

func mulBytes(dst, a, b []byte, trace mulTracer) {
	switch {
	case len(a) == 0 || len(b) == 0:
		trace.record(stepEmpty, len(a), len(b))
		clear(dst)
		return
	case len(a) == 1 && len(b) == 1:
		trace.record(stepByteByte, 1, 1)
		p := uint16(a[0]) * uint16(b[0])
		dst[0], dst[1] = byte(p), byte(p>>8)
		return
	case len(a) == 1:
		trace.record(stepByteRow, 1, len(b))
		mulRowByte(dst, b, a[0])
		return
	case len(b) == 1:
		trace.record(stepByteRow, len(a), 1)
		mulRowByte(dst, a, b[0])
		return
	}
	trace.record(stepSplit, len(a), len(b))

	n, m := len(a)/2, len(b)/2
	a0, a1 := a[:n], a[n:]
	b0, b1 := b[:m], b[m:]

	// The partial products total 2·len(dst) bytes.
	scratch := memory.AcquireScratch(2 * len(dst))
	defer memory.ReleaseScratch(scratch)
	x1y1, rest := scratch[:len(a1)+len(b1)], scratch[len(a1)+len(b1):]
	x1y0, rest := rest[:len(a1)+len(b0)], rest[len(a1)+len(b0):]
	x0y1, x0y0 := rest[:len(a0)+len(b1)], rest[len(a0)+len(b1):]

	mulBytes(x1y1, a1, b1, trace)
	mulBytes(x1y0, a1, b0, trace)
	mulBytes(x0y1, a0, b1, trace)
	mulBytes(x0y0, a0, b0, trace)

	// dst may alias a or b: it is only written once every product is done.
	clear(dst)
	AddBytesAtByteOffset(dst, x0y0, x0y1, m)
	AddBytesAtByteOffset(dst, dst, x1y0, n)
	AddBytesAtByteOffset(dst, dst, x1y1, n+m)
}

func (t mulTracer) record(step mulStep, lenA, lenB int) {
	if t != nil {
		t(step, lenA, lenB)
	}
}

// mulRowByte sets dst[:len(a)+1] = a·k with one 16-bit accumulator.
// dst[i] is written after a[i] is read, so dst may alias a.
func mulRowByte(dst, a []byte, k byte) {
	var acc uint16
	for i := range a {
		acc += uint16(a[i]) * uint16(k)
		dst[i] = byte(acc)
		acc >>= 8
	}
	dst[len(a)] = byte(acc)
}

// Multiply sets dst = a·b with dst.Width() = a.Width() + b.Width().
// Constant-time in the operand values; dst may alias a or b.
func Multiply(dst, a, b *Int) error {
	w := a.Width() + b.Width()
	ab := memory.AcquireScratch(a.ByteWidth())
	defer memory.ReleaseScratch(ab)
	bb := memory.AcquireScratch(b.ByteWidth())
	defer memory.ReleaseScratch(bb)
	putLimbs(ab, a.limbs)
	putLimbs(bb, b.limbs)

	prod := memory.AcquireScratch(w * limbBytes)
	defer memory.ReleaseScratch(prod)
	MulBytes(prod, ab, bb)

	if err := dst.resize(w); err != nil {
		return apperrors.OperationError{Op: "multiply", Cause: err}
	}
	loadLimbs(dst.limbs, prod)
	return nil
}

// uint64Bytes returns the n low little-endian bytes of k in scratch.
func uint64Bytes(k uint64, n int) []byte {
	var full [8]byte
	binary.LittleEndian.PutUint64(full[:], k)
	s := memory.AcquireScratch(n)
	copy(s, full[:n])
	memory.WipeBytes(full[:])
	return s
}

// MultiplyUint64 sets dst = a·k. k is sized to its minimal byte length,
// rounded up to limbs, so the result width reveals the magnitude of k. For
// a secret k use FromUint64Fixed and Multiply.
func MultiplyUint64(dst, a *Int, k uint64) error {
	kLimbs := limbsForBytes(int(MinByteLen(k)))
	kb := uint64Bytes(k, kLimbs*limbBytes)
	defer memory.ReleaseScratch(kb)
	ab := memory.AcquireScratch(a.ByteWidth())
	defer memory.ReleaseScratch(ab)
	putLimbs(ab, a.limbs)

	w := a.Width() + kLimbs
	prod := memory.AcquireScratch(w * limbBytes)
	defer memory.ReleaseScratch(prod)
	MulBytes(prod, ab, kb)

	if err := dst.resize(w); err != nil {
		return apperrors.OperationError{Op: "multiply_uint64", Cause: err}
	}
	loadLimbs(dst.limbs, prod)
	return nil
}

// MultiplyUint64s sets dst = k0·k1, sized to ⌈(bytes(k0)+bytes(k1))/4⌉ limbs.
// Not constant-time in k0 or k1.
func MultiplyUint64s(dst *Int, k0, k1 uint64) error {
	n0, n1 := int(MinByteLen(k0)), int(MinByteLen(k1))
	b0 := uint64Bytes(k0, n0)
	defer memory.ReleaseScratch(b0)
	b1 := uint64Bytes(k1, n1)
	defer memory.ReleaseScratch(b1)

	prod := memory.AcquireScratch(n0 + n1)
	defer memory.ReleaseScratch(prod)
	MulBytes(prod, b0, b1)

	if err := dst.resize(limbsForBytes(n0 + n1)); err != nil {
		return apperrors.OperationError{Op: "multiply_uint64s", Cause: err}
	}
	loadLimbs(dst.limbs, prod)
	return nil
}

// MulBytesUint64 writes a·k into dst[:len(a)+MinByteLen(k)] and returns that
// length. Not constant-time in k. Panics if dst is too short.
func MulBytesUint64(dst, a []byte, k uint64) int {
	n := len(a) + int(MinByteLen(k))
	if len(dst) < n {
		panic("wide: MulBytesUint64 destination too short")
	}
	kb := uint64Bytes(k, n-len(a))
	defer memory.ReleaseScratch(kb)
	mulBytes(dst[:n], a, kb, nil)
	return n
}
