package wide

import apperrors "github.com/agbru/ctwide/internal/errors"

// Helpers composed from Multiply and the resizing adds. Temporaries use the
// destination's allocator and are destroyed before returning.

func (x *Int) temp() *Int { return &Int{alloc: x.alloc} }

// snapshot returns src, or a copy of it when src is dst, so that dst can be
// overwritten while src is still being read. done destroys the copy.
func snapshot(dst, src *Int) (s *Int, done func(), err error) {
	if src != dst {
		return src, func() {}, nil
	}
	c, err := src.Copy()
	if err != nil {
		return nil, nil, err
	}
	return c, func() { c.Destroy(false) }, nil
}

// Square sets dst = x². Constant-time.
func Square(dst, x *Int) error { return Multiply(dst, x, x) }

// SquareUint64 sets dst = k². Not constant-time in k.
func SquareUint64(dst *Int, k uint64) error { return MultiplyUint64s(dst, k, k) }

// MulAddUint64 sets dst += src·k, growing dst as needed. A width-0 src
// leaves dst untouched.
func MulAddUint64(dst, src *Int, k uint64) error {
	if src.Width() == 0 {
		return nil
	}
	product := dst.temp()
	defer product.Destroy(false)
	if err := MultiplyUint64(product, src, k); err != nil {
		return apperrors.OperationError{Op: "mul_add_uint64", Cause: err}
	}
	return AddResize(dst, dst, product)
}

// MulAdd sets dst += x·y, growing dst as needed.
func MulAdd(dst, x, y *Int) error {
	product := dst.temp()
	defer product.Destroy(false)
	if err := Multiply(product, x, y); err != nil {
		return apperrors.OperationError{Op: "mul_add", Cause: err}
	}
	return AddResize(dst, dst, product)
}

// AddMul sets dst = (dst + x)·y.
func AddMul(dst, x, y *Int) error {
	y, done, err := snapshot(dst, y)
	if err != nil {
		return apperrors.OperationError{Op: "add_mul", Cause: err}
	}
	defer done()
	if err := AddResize(dst, dst, x); err != nil {
		return err
	}
	return Multiply(dst, dst, y)
}

// MulByPower sets dst = dst·base^exponent using exponent successive
// multiplications. The result width is dst.Width() + exponent·base.Width().
func MulByPower(dst, base *Int, exponent uint64) error {
	base, done, err := snapshot(dst, base)
	if err != nil {
		return apperrors.OperationError{Op: "mul_by_power", Cause: err}
	}
	defer done()
	for i := uint64(0); i < exponent; i++ {
		if err := Multiply(dst, dst, base); err != nil {
			return apperrors.OperationError{Op: "mul_by_power", Cause: err}
		}
	}
	return nil
}

// Pow sets dst = base^exponent, starting from a one-limb 1.
func Pow(dst, base *Int, exponent uint64) error {
	base, done, err := snapshot(dst, base)
	if err != nil {
		return apperrors.OperationError{Op: "pow", Cause: err}
	}
	defer done()
	if err := dst.resize(1); err != nil {
		return apperrors.OperationError{Op: "pow", Cause: err}
	}
	dst.limbs[0] = 1
	return MulByPower(dst, base, exponent)
}

// MulByPowerUint64 sets dst = dst·k^exponent. Not constant-time in k.
func MulByPowerUint64(dst *Int, k, exponent uint64) error {
	for i := uint64(0); i < exponent; i++ {
		if err := MultiplyUint64(dst, dst, k); err != nil {
			return apperrors.OperationError{Op: "mul_by_power_uint64", Cause: err}
		}
	}
	return nil
}

// TriangularNumber sets dst = n(n+1)/2. Not constant-time.
func TriangularNumber(dst *Int, n uint64) error {
	if err := SquareUint64(dst, n); err != nil {
		return err
	}
	if err := AddUint64Resize(dst, dst, n); err != nil {
		return err
	}
	ShiftRight(dst, dst, 1)
	return nil
}
