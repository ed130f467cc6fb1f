package wide

import (
	"math/big"
	"testing"
)

// mustBytes builds an Int from little-endian bytes or fails the test.
func mustBytes(t testing.TB, le ...byte) *Int {
	t.Helper()
	x, err := FromBytes(le)
	if err != nil {
		t.Fatalf("FromBytes(%x): %v", le, err)
	}
	return x
}

// mustBig builds an Int of widthBytes holding v mod 2^(8·widthBytes).
func mustBig(t testing.TB, v *big.Int, widthBytes int) *Int {
	t.Helper()
	return mustBytes(t, leBytes(v, widthBytes)...)
}

// leBytes returns the n low bytes of v, little-endian.
func leBytes(v *big.Int, n int) []byte {
	be := v.FillBytes(make([]byte, max(n, (v.BitLen()+7)/8)))
	le := make([]byte, n)
	for i := 0; i < n; i++ {
		le[i] = be[len(be)-1-i]
	}
	return le
}

// bigLE interprets le as a little-endian unsigned integer.
func bigLE(le []byte) *big.Int {
	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}
	return new(big.Int).SetBytes(be)
}

// modPow2 returns v mod 2^bits.
func modPow2(v *big.Int, bits int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return new(big.Int).Mod(v, m)
}

// patterned returns n deterministic, non-trivial bytes.
func patterned(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*131) ^ seed ^ byte(i>>3)
	}
	return b
}
