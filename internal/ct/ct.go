// Package ct provides branch-free, table-free primitives for code whose
// control flow and memory accesses must not depend on secret values.
//
// Every function here compiles to straight-line arithmetic on the target
// architectures: no conditional jumps on the inputs and no indexed loads.
package ct

import "math/bits"

// Mask32 returns 0xFFFFFFFF when bit is 1 and 0 when bit is 0.
// bit must be 0 or 1.
func Mask32(bit uint32) uint32 { return -bit }

// Mask64 returns all ones when bit is 1 and 0 when bit is 0.
// bit must be 0 or 1.
func Mask64(bit uint64) uint64 { return -bit }

// Select32 returns x when c is 1 and y when c is 0.
func Select32(c, x, y uint32) uint32 {
	m := Mask32(c)
	return (x & m) | (y &^ m)
}

// Select64 returns x when c is 1 and y when c is 0.
func Select64(c, x, y uint64) uint64 {
	m := Mask64(c)
	return (x & m) | (y &^ m)
}

// IsZero64 returns 1 if x == 0 and 0 otherwise.
// Only the all-ones complement has a population count of 64.
func IsZero64(x uint64) uint64 {
	return uint64(bits.OnesCount64(^x)) >> 6
}

// IsNonZero64 returns 1 if x != 0 and 0 otherwise.
func IsNonZero64(x uint64) uint64 { return 1 ^ IsZero64(x) }

// IsZero8 returns 1 if b == 0 and 0 otherwise.
func IsZero8(b uint8) uint8 {
	// (b - 1) borrows into bit 8 only for b == 0.
	return uint8((uint16(b) - 1) >> 8 & 1)
}

// smear64 sets every bit below the highest set bit of x.
func smear64(x uint64) uint64 {
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	return x
}

// LeadingZeros64 returns the number of leading zero bits in x; 64 for x == 0.
//
// math/bits.LeadingZeros64 falls back to a lookup table on architectures
// without a count-leading-zeros instruction, so it is not used here.
func LeadingZeros64(x uint64) int {
	return 64 - bits.OnesCount64(smear64(x))
}

// BitLen8 returns the minimum number of bits needed to represent b; 0 for 0.
func BitLen8(b uint8) uint64 {
	x := uint64(b)
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	return uint64(bits.OnesCount64(x))
}
