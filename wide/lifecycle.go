package wide

import (
	"sync"

	apperrors "github.com/agbru/ctwide/internal/errors"
	"github.com/agbru/ctwide/internal/memory"
)

var intPool = sync.Pool{New: func() any { return new(Int) }}

// Acquire returns an empty (width 0) Int from the container pool. Pair it
// with Destroy(true).
func Acquire() *Int { return intPool.Get().(*Int) }

func newInt(opts []Option) *Int {
	x := &Int{}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// New returns a zero-filled Int of ⌈widthBytes/4⌉ limbs.
func New(widthBytes int, opts ...Option) (*Int, error) {
	if widthBytes < 0 {
		return nil, apperrors.ValidationError{Field: "widthBytes", Message: "must be non-negative"}
	}
	x := newInt(opts)
	if err := x.resize(limbsForBytes(widthBytes)); err != nil {
		return nil, apperrors.WrapError(err, "wide: allocate %d bytes", widthBytes)
	}
	return x, nil
}

// FromBytes returns an Int holding the little-endian value in buf. The
// width is ⌈len(buf)/4⌉ limbs; bytes past len(buf) in the top limb are zero.
func FromBytes(buf []byte, opts ...Option) (*Int, error) {
	x, err := New(len(buf), opts...)
	if err != nil {
		return nil, err
	}
	loadLimbs(x.limbs, buf)
	return x, nil
}

// FromUint64 returns an Int of the minimal width that holds k (width 0 for
// k == 0). The width reveals the magnitude of k: use FromUint64Fixed for
// secret scalars.
func FromUint64(k uint64, opts ...Option) (*Int, error) {
	x, err := New(int(MinByteLen(k)), opts...)
	if err != nil {
		return nil, err
	}
	x.setUint64(k)
	return x, nil
}

// FromUint64Fixed returns a two-limb Int holding k, whatever its value.
func FromUint64Fixed(k uint64, opts ...Option) (*Int, error) {
	x, err := New(8, opts...)
	if err != nil {
		return nil, err
	}
	x.setUint64(k)
	return x, nil
}

func (x *Int) setUint64(k uint64) {
	for i := range x.limbs {
		x.limbs[i] = scalarLimb(k, i)
	}
}

// Copy returns an independent clone of x using the same allocator.
func (x *Int) Copy() (*Int, error) {
	c := &Int{alloc: x.alloc}
	if err := CopyInto(c, x); err != nil {
		return nil, err
	}
	return c, nil
}

// CopyInto makes dst a clone of src. dst keeps its own allocator.
func CopyInto(dst, src *Int) error {
	if dst == src {
		return nil
	}
	if err := dst.resize(src.Width()); err != nil {
		return apperrors.WrapError(err, "wide: copy %d limbs", src.Width())
	}
	copy(dst.limbs, src.limbs)
	return nil
}

// Move transfers src's buffer and allocator to dst, releasing whatever dst
// held. src is left with width 0. dst and src must be different.
func Move(dst, src *Int) {
	if dst == src {
		panic("wide: Move with identical source and destination")
	}
	dst.free()
	dst.limbs, dst.alloc = src.limbs, src.alloc
	src.limbs = nil
}

// Destroy erases and frees x's buffer, leaving width 0. With release, x
// itself goes back to the container pool and must not be used again.
func (x *Int) Destroy(release bool) {
	x.free()
	if release {
		*x = Int{}
		intPool.Put(x)
	}
}

// free erases before handing the buffer back, so the guarantee holds for
// allocators that do not erase themselves.
func (x *Int) free() {
	if x.limbs != nil {
		memory.Wipe(x.limbs)
		x.allocator().Free(x.limbs)
		x.limbs = nil
	}
}

// resize sets the width to limbs, keeping the low limbs and zero-filling
// new ones.
func (x *Int) resize(limbs int) error {
	if limbs == len(x.limbs) {
		return nil
	}
	buf, err := x.allocator().Realloc(x.limbs, limbs)
	if err != nil {
		return err
	}
	if limbs == 0 {
		buf = nil
	}
	x.limbs = buf
	return nil
}

// grow widens x to at least limbs.
func (x *Int) grow(limbs int) error {
	if len(x.limbs) >= limbs {
		return nil
	}
	return x.resize(limbs)
}
