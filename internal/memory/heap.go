package memory

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/agbru/ctwide/internal/config"
	apperrors "github.com/agbru/ctwide/internal/errors"
	"github.com/agbru/ctwide/internal/logging"
)

// HeapAllocator allocates limb buffers on the Go heap.
//
// With a non-zero limit, the total bytes outstanding never exceed it and
// requests past the budget fail with apperrors.MemoryError.
//
// With page locking enabled, each buffer lives in its own anonymous mapping
// of whole pages, mlocked so secrets are not written to swap. No two
// buffers share a page, so Free unlocks only the pages of the buffer it
// releases. Locked buffers cost at least one page each and must not be
// touched after Free. If mapping or locking
// fails, the failure is logged once and the buffer comes from the Go heap.
//
// HeapAllocator is safe for concurrent use.
type HeapAllocator struct {
	limit     uint64
	used      atomic.Uint64
	lockPages bool
	eraser    Eraser
	logger    logging.Logger

	lockFailure sync.Once
	locked      sync.Map // *uint32 -> struct{}, buffers from mapLocked
}

// NewHeapAllocator builds an allocator from the memory fields of cfg.
// A nil logger discards output.
func NewHeapAllocator(cfg config.EngineConfig, logger logging.Logger) *HeapAllocator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HeapAllocator{
		limit:     cfg.MemoryLimit,
		lockPages: cfg.LockPages && pageLockingSupported,
		eraser:    ZeroEraser,
		logger:    logger,
	}
}

// SetEraser replaces the eraser used by Free and Realloc.
func (h *HeapAllocator) SetEraser(e Eraser) { h.eraser = e }

// InUse returns the bytes currently handed out.
func (h *HeapAllocator) InUse() uint64 { return h.used.Load() }

// Limit returns the configured budget in bytes; 0 means unlimited.
func (h *HeapAllocator) Limit() uint64 { return h.limit }

func (h *HeapAllocator) reserve(n uint64) error {
	for {
		used := h.used.Load()
		if h.limit != 0 && (n > h.limit || used > h.limit-n) {
			h.logger.Debug("allocation rejected by budget",
				logging.Uint64("requested", n),
				logging.Uint64("in_use", used),
				logging.Uint64("limit", h.limit))
			return apperrors.MemoryError{Requested: n, Available: h.limit - used, Limit: h.limit}
		}
		if h.used.CompareAndSwap(used, used+n) {
			return nil
		}
	}
}

func (h *HeapAllocator) release(n uint64) { h.used.Add(^(n - 1)) }

func validLimbs(limbs int) error {
	if limbs < 0 {
		return apperrors.ValidationError{Field: "limbs", Message: "must be non-negative"}
	}
	return nil
}

// Alloc implements Allocator.
func (h *HeapAllocator) Alloc(limbs int) ([]uint32, error) {
	if err := validLimbs(limbs); err != nil {
		return nil, err
	}
	if limbs == 0 {
		return nil, nil
	}
	if err := h.reserve(uint64(limbs) * LimbBytes); err != nil {
		return nil, err
	}
	if h.lockPages {
		buf, err := mapLocked(limbs)
		if err == nil {
			h.locked.Store(unsafe.SliceData(buf), struct{}{})
			return buf, nil
		}
		h.lockFailure.Do(func() {
			h.logger.Error("page locking failed; continuing unlocked", err, logging.Int("limbs", limbs))
		})
	}
	return make([]uint32, limbs), nil
}

// Realloc implements Allocator. Shrinking or growing always moves to a new
// buffer so the old one can be erased as a whole.
func (h *HeapAllocator) Realloc(buf []uint32, limbs int) ([]uint32, error) {
	if err := validLimbs(limbs); err != nil {
		return nil, err
	}
	if limbs == len(buf) {
		return buf, nil
	}
	next, err := h.Alloc(limbs)
	if err != nil {
		return buf, err
	}
	copy(next, buf)
	h.Free(buf)
	return next, nil
}

// Free implements Allocator. buf must be the slice Alloc or Realloc
// returned, not a sub-slice of it.
func (h *HeapAllocator) Free(buf []uint32) {
	if len(buf) == 0 {
		return
	}
	h.eraser.Erase(buf)
	if _, ok := h.locked.LoadAndDelete(unsafe.SliceData(buf)); ok {
		if err := unmapLocked(buf); err != nil {
			h.logger.Error("releasing locked buffer failed", err, logging.Int("limbs", len(buf)))
		}
	}
	h.release(uint64(len(buf)) * LimbBytes)
}

var (
	defaultOnce      sync.Once
	defaultAllocator *HeapAllocator
)

// Default returns the process-wide allocator: unlimited, no page locking,
// silent.
func Default() *HeapAllocator {
	defaultOnce.Do(func() {
		defaultAllocator = NewHeapAllocator(config.DefaultConfig(), nil)
	})
	return defaultAllocator
}
