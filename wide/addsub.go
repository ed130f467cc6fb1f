package wide

import (
	"github.com/agbru/ctwide/internal/ct"
	apperrors "github.com/agbru/ctwide/internal/errors"
)

// Operation flags for the shared add/subtract loop. Subtraction is
// a + ^b + 1: b is XORed with an all-ones mask and the carry starts at 1.
const (
	opAdd uint32 = 0
	opSub uint32 = 1
)

// addSubLimbs computes dst = a ± b over len(dst) limbs and returns the final
// carry (for subtraction, 1 means no borrow). Limbs past the end of a or b
// read as 0; the bounds checks depend only on widths.
func addSubLimbs(dst, a, b []Limb, op uint32) uint32 {
	mask := ct.Mask32(op)
	carry := uint64(op)
	for i := range dst {
		var x, y Limb
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		z := uint64(x) + uint64(y^mask) + carry
		dst[i] = Limb(z)
		carry = z >> limbBits
	}
	return uint32(carry)
}

// scalarLimb returns 32-bit section i of k; sections past the second are 0.
func scalarLimb(k uint64, i int) Limb {
	switch i {
	case 0:
		return Limb(k)
	case 1:
		return Limb(k >> limbBits)
	}
	return 0
}

func addSubUint64(dst, a []Limb, k uint64, op uint32) uint32 {
	mask := ct.Mask32(op)
	carry := uint64(op)
	for i := range dst {
		var x Limb
		if i < len(a) {
			x = a[i]
		}
		z := uint64(x) + uint64(scalarLimb(k, i)^mask) + carry
		dst[i] = Limb(z)
		carry = z >> limbBits
	}
	return uint32(carry)
}

// scalarLimbs is the width of a uint64 in limbs.
const scalarLimbs = 8 / limbBytes

// Add sets dst = a + b modulo 2^(32·dst.Width()). Constant-time.
func Add(dst, a, b *Int) { addSubLimbs(dst.limbs, a.limbs, b.limbs, opAdd) }

// Sub sets dst = a − b modulo 2^(32·dst.Width()). Constant-time.
func Sub(dst, a, b *Int) { addSubLimbs(dst.limbs, a.limbs, b.limbs, opSub) }

// AddUint64 sets dst = a + k modulo 2^(32·dst.Width()). Constant-time.
func AddUint64(dst, a *Int, k uint64) { addSubUint64(dst.limbs, a.limbs, k, opAdd) }

// SubUint64 sets dst = a − k modulo 2^(32·dst.Width()). Constant-time.
func SubUint64(dst, a *Int, k uint64) { addSubUint64(dst.limbs, a.limbs, k, opSub) }

// AddResize sets dst = a + b exactly. dst is widened to the wider operand
// and by one more limb if the sum carries out. Not constant-time.
func AddResize(dst, a, b *Int) error {
	if err := dst.grow(max(a.Width(), b.Width())); err != nil {
		return apperrors.OperationError{Op: "add_resize", Cause: err}
	}
	carry := addSubLimbs(dst.limbs, a.limbs, b.limbs, opAdd)
	return dst.absorbCarry("add_resize", carry)
}

// SubResize sets dst = a − b after widening dst to the wider operand. A
// borrow wraps modulo 2^(32·dst.Width()); dst does not grow further.
// Not constant-time.
func SubResize(dst, a, b *Int) error {
	if err := dst.grow(max(a.Width(), b.Width())); err != nil {
		return apperrors.OperationError{Op: "sub_resize", Cause: err}
	}
	addSubLimbs(dst.limbs, a.limbs, b.limbs, opSub)
	return nil
}

// AddUint64Resize is AddResize with a scalar second operand of two limbs.
func AddUint64Resize(dst, a *Int, k uint64) error {
	if err := dst.grow(max(a.Width(), scalarLimbs)); err != nil {
		return apperrors.OperationError{Op: "add_uint64_resize", Cause: err}
	}
	carry := addSubUint64(dst.limbs, a.limbs, k, opAdd)
	return dst.absorbCarry("add_uint64_resize", carry)
}

// SubUint64Resize is SubResize with a scalar second operand of two limbs.
func SubUint64Resize(dst, a *Int, k uint64) error {
	if err := dst.grow(max(a.Width(), scalarLimbs)); err != nil {
		return apperrors.OperationError{Op: "sub_uint64_resize", Cause: err}
	}
	addSubUint64(dst.limbs, a.limbs, k, opSub)
	return nil
}

func (x *Int) absorbCarry(op string, carry uint32) error {
	if carry == 0 {
		return nil
	}
	w := x.Width()
	if err := x.resize(w + 1); err != nil {
		return apperrors.OperationError{Op: op, Cause: err}
	}
	x.limbs[w] = carry
	return nil
}
