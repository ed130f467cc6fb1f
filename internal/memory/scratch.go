// This file provides pooled byte scratch for multiplication temporaries.

package memory

import (
	"math/bits"
	"sync"
	"sync/atomic"
)

// scratchPools pools []byte buffers by size class: powers of 4 from 64 B to 1 MiB.
var scratchPools = [...]sync.Pool{
	{New: func() any { return make([]byte, 64) }},
	{New: func() any { return make([]byte, 256) }},
	{New: func() any { return make([]byte, 1024) }},
	{New: func() any { return make([]byte, 4096) }},
	{New: func() any { return make([]byte, 16384) }},
	{New: func() any { return make([]byte, 65536) }},
	{New: func() any { return make([]byte, 262144) }},
	{New: func() any { return make([]byte, 1048576) }},
}

// scratchSizes defines the size classes for scratch pools.
var scratchSizes = [...]int{64, 256, 1024, 4096, 16384, 65536, 262144, 1048576}

var scratchPooling atomic.Bool

func init() { scratchPooling.Store(true) }

// SetScratchPooling turns pooling on or off. With pooling off every scratch
// buffer is a fresh allocation; release still erases it.
func SetScratchPooling(enabled bool) { scratchPooling.Store(enabled) }

// ScratchPooling reports whether scratch buffers are pooled.
func ScratchPooling() bool { return scratchPooling.Load() }

// scratchPoolIndex returns the pool index for a given size, or -1 if the
// size is too large for pooling.
//
// scratchSizes are 4^(i+3), so bits.Len(size-1) maps directly to the index.
func scratchPoolIndex(size int) int {
	if size <= 0 {
		return 0
	}
	if size > scratchSizes[len(scratchSizes)-1] {
		return -1
	}
	idx := (bits.Len(uint(size-1)) - 5) / 2
	if idx < 0 {
		idx = 0
	}
	return idx
}

// AcquireScratch returns a zeroed byte slice of length size. Release it
// with ReleaseScratch, preferably with defer:
//
//	s := AcquireScratch(n)
//	defer ReleaseScratch(s)
func AcquireScratch(size int) []byte {
	if size == 0 {
		return nil
	}
	idx := scratchPoolIndex(size)
	if idx < 0 || !scratchPooling.Load() {
		return make([]byte, size)
	}
	s := scratchPools[idx].Get().([]byte)
	// Pooled buffers are erased on release; clear again in case a caller
	// wrote past its length.
	clear(s)
	return s[:size]
}

// ReleaseScratch erases s and returns it to its pool when it came from one.
// Safe to call with nil.
func ReleaseScratch(s []byte) {
	if s == nil {
		return
	}
	c := cap(s)
	WipeBytes(s[:c])
	idx := scratchPoolIndex(c)
	if idx >= 0 && scratchSizes[idx] == c && scratchPooling.Load() {
		scratchPools[idx].Put(s[:c])
	}
}

var scratchWarmed atomic.Bool

// WarmScratch pre-allocates count buffers in every size class up to
// maxBytes. Only the first call has an effect.
func WarmScratch(maxBytes, count int) {
	if !scratchWarmed.CompareAndSwap(false, true) {
		return
	}
	top := scratchPoolIndex(maxBytes)
	if top < 0 {
		top = len(scratchSizes) - 1
	}
	for i := 0; i <= top; i++ {
		for j := 0; j < count; j++ {
			scratchPools[i].Put(make([]byte, scratchSizes[i]))
		}
	}
}
