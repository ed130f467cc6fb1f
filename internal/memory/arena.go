package memory

import "unsafe"

// Arena pre-allocates one contiguous block of limbs and hands out
// sub-slices with a bump pointer. It suits a batch of short-lived
// temporaries that die together: Reset erases every limb handed out and
// rewinds the pointer in O(1) bookkeeping.
//
// When the block is exhausted, requests fall through to the fallback
// allocator. The arena remembers those spilled buffers and erases and frees
// any still outstanding on Reset. Free on the most recent arena allocation rewinds the pointer;
// Free on any other arena slice only erases it.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	buf      []uint32
	offset   int
	fallback Allocator
	eraser   Eraser
	spilled  [][]uint32
}

// NewArena creates an arena of capacity limbs backed by fallback for
// overflow. A nil fallback selects Default().
func NewArena(capacity int, fallback Allocator) (*Arena, error) {
	if err := validLimbs(capacity); err != nil {
		return nil, err
	}
	if fallback == nil {
		fallback = Default()
	}
	a := &Arena{fallback: fallback, eraser: ZeroEraser}
	if capacity > 0 {
		buf, err := fallback.Alloc(capacity)
		if err != nil {
			return nil, err
		}
		a.buf = buf
	}
	return a, nil
}

// owns reports whether buf lies inside the arena block and returns its
// starting index.
func (a *Arena) owns(buf []uint32) (int, bool) {
	if len(buf) == 0 || len(a.buf) == 0 {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.buf)))
	p := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	if p < base || p >= base+uintptr(len(a.buf))*LimbBytes {
		return 0, false
	}
	return int((p - base) / LimbBytes), true
}

// Alloc implements Allocator.
func (a *Arena) Alloc(limbs int) ([]uint32, error) {
	if err := validLimbs(limbs); err != nil {
		return nil, err
	}
	if limbs == 0 {
		return nil, nil
	}
	if a.offset+limbs > len(a.buf) {
		buf, err := a.fallback.Alloc(limbs)
		if err != nil {
			return nil, err
		}
		a.spilled = append(a.spilled, buf)
		return buf, nil
	}
	s := a.buf[a.offset : a.offset+limbs : a.offset+limbs]
	a.offset += limbs
	clear(s)
	return s, nil
}

// Realloc implements Allocator. The most recent arena allocation is resized
// in place when the block has room.
func (a *Arena) Realloc(buf []uint32, limbs int) ([]uint32, error) {
	if err := validLimbs(limbs); err != nil {
		return nil, err
	}
	if limbs == len(buf) {
		return buf, nil
	}
	if start, ok := a.owns(buf); ok && start+len(buf) == a.offset && start+limbs <= len(a.buf) {
		if limbs < len(buf) {
			a.eraser.Erase(buf[limbs:])
		} else {
			clear(a.buf[a.offset : start+limbs])
		}
		a.offset = start + limbs
		if limbs == 0 {
			return nil, nil
		}
		return a.buf[start : start+limbs : start+limbs], nil
	}
	next, err := a.Alloc(limbs)
	if err != nil {
		return buf, err
	}
	copy(next, buf)
	a.Free(buf)
	return next, nil
}

// Free implements Allocator.
func (a *Arena) Free(buf []uint32) {
	if len(buf) == 0 {
		return
	}
	start, ok := a.owns(buf)
	if !ok {
		a.forget(buf)
		a.eraser.Erase(buf)
		a.fallback.Free(buf)
		return
	}
	a.eraser.Erase(buf)
	if start+len(buf) == a.offset {
		a.offset = start
	}
}

// forget drops buf from the spilled list, if present.
func (a *Arena) forget(buf []uint32) {
	p := unsafe.SliceData(buf)
	for i, s := range a.spilled {
		if unsafe.SliceData(s) == p {
			last := len(a.spilled) - 1
			a.spilled[i] = a.spilled[last]
			a.spilled[last] = nil
			a.spilled = a.spilled[:last]
			return
		}
	}
}

// Reset erases everything handed out since the last Reset, frees spilled
// buffers still outstanding and rewinds the arena. Slices obtained before
// Reset must not be used afterwards.
func (a *Arena) Reset() {
	a.eraser.Erase(a.buf[:a.offset])
	a.offset = 0
	for i, s := range a.spilled {
		a.eraser.Erase(s)
		a.fallback.Free(s)
		a.spilled[i] = nil
	}
	a.spilled = a.spilled[:0]
}

// Release resets the arena and returns its block to the fallback allocator.
func (a *Arena) Release() {
	a.Reset()
	a.fallback.Free(a.buf)
	a.buf = nil
}

// UsedLimbs returns the number of limbs currently allocated from the block.
func (a *Arena) UsedLimbs() int { return a.offset }

// SpilledBuffers returns the number of live buffers obtained from the
// fallback allocator.
func (a *Arena) SpilledBuffers() int { return len(a.spilled) }

// CapacityLimbs returns the size of the block in limbs.
func (a *Arena) CapacityLimbs() int { return len(a.buf) }
