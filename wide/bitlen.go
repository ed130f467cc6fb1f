package wide

import "github.com/agbru/ctwide/internal/ct"

// MinBitLen returns the smallest n with k < 2^n; MinBitLen(0) == 0.
// The same instructions run for every k: the zero case is folded into the
// leading-zero count instead of being branched on.
func MinBitLen(k uint64) uint64 {
	z := ct.IsZero64(k)
	return 64 - uint64(ct.LeadingZeros64(k|z)) - z
}

// CeilLog2 returns ⌈log2 k⌉, with CeilLog2(0) == 0 and CeilLog2(1) == 0.
func CeilLog2(k uint64) uint64 {
	return MinBitLen(k-1) & ct.Mask64(ct.IsNonZero64(k))
}

// MinByteLen returns ⌈MinBitLen(k)/8⌉.
func MinByteLen(k uint64) uint64 { return (MinBitLen(k) + 7) / 8 }

// BitLenBytes returns the bit length of the little-endian value in buf.
// Every byte is visited; the most significant non-zero byte is picked by
// mask selection, not by branching on byte values.
func BitLenBytes(buf []byte) uint64 {
	var n, seen uint64
	for i := len(buf) - 1; i >= 0; i-- {
		nonZero := 1 ^ uint64(ct.IsZero8(buf[i]))
		first := nonZero &^ seen
		n = ct.Select64(first, uint64(i)*8+ct.BitLen8(buf[i]), n)
		seen |= nonZero
	}
	return n
}

// ByteLenBytes returns ⌈BitLenBytes(buf)/8⌉.
func ByteLenBytes(buf []byte) uint64 { return (BitLenBytes(buf) + 7) / 8 }

// BitLen returns the number of significant bits of x.
func (x *Int) BitLen() uint64 {
	var n, seen uint64
	for i := len(x.limbs) - 1; i >= 0; i-- {
		l := uint64(x.limbs[i])
		nonZero := ct.IsNonZero64(l)
		first := nonZero &^ seen
		n = ct.Select64(first, uint64(i)*limbBits+MinBitLen(l), n)
		seen |= nonZero
	}
	return n
}

// ByteLen returns ⌈BitLen()/8⌉.
func (x *Int) ByteLen() uint64 { return (x.BitLen() + 7) / 8 }
