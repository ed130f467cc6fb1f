package wide

import "github.com/agbru/ctwide/internal/memory"

// ShiftRight sets dst = src >> shift, keeping dst's width. Source bits past
// src.Width() read as 0. dst may be src.
//
// Not constant-time: the loop visits each destination bit and its cost
// depends on shift.
func ShiftRight(dst, src *Int, shift uint) {
	bits := uint(dst.ByteWidth()) * 8
	srcBits := uint(src.ByteWidth()) * 8
	out := memory.AcquireScratch(dst.ByteWidth())
	defer memory.ReleaseScratch(out)

	for j := bits; j > 0; j-- {
		i := j - 1 + shift
		if i < j-1 || i >= srcBits { // overflow or past the source
			continue
		}
		bit := byte(src.limbs[i/limbBits]>>(i%limbBits)) & 1
		out[(j-1)/8] |= bit << ((j - 1) % 8)
	}
	loadLimbs(dst.limbs, out)
}
