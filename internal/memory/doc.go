// Package memory supplies the allocation boundary of the wide-integer engine.
//
// Every limb buffer that holds a secret value is obtained from an Allocator
// and handed back through Allocator.Free, which erases the contents before
// the memory is released. Three implementations are provided:
//
//   - HeapAllocator: Go heap with an optional byte budget and optional page
//     locking (mlock) on platforms that support it.
//   - Arena: bump allocation over one pre-sized block, erased on Reset.
//   - the Prometheus decorator in internal/metrics.
//
// Short-lived byte scratch used inside multiplication comes from size-class
// pools (AcquireScratch / ReleaseScratch) and is erased before it is pooled.
package memory
