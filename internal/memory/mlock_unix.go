//go:build linux || darwin || freebsd

package memory

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const pageLockingSupported = true

// lockedRegion returns the whole-page byte view of a buffer made by
// mapLocked.
func lockedRegion(buf []uint32) []byte {
	size := len(buf) * LimbBytes
	page := unix.Getpagesize()
	size = (size + page - 1) / page * page
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(buf))), size)
}

// mapLocked returns limbs backed by a private anonymous mapping, locked in
// RAM. The mapping covers whole pages that nothing else uses, so unlocking
// it never unlocks memory still backing another buffer.
func mapLocked(limbs int) ([]uint32, error) {
	page := unix.Getpagesize()
	size := (limbs*LimbBytes + page - 1) / page * page
	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	if err := unix.Mlock(region); err != nil {
		_ = unix.Munmap(region)
		return nil, err
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&region[0])), limbs), nil
}

// unmapLocked unlocks and unmaps a buffer made by mapLocked. buf must be
// the full slice mapLocked returned.
func unmapLocked(buf []uint32) error {
	region := lockedRegion(buf)
	if err := unix.Munlock(region); err != nil {
		return err
	}
	return unix.Munmap(region)
}
