// Package wide implements constant-time arithmetic on arbitrary-precision
// unsigned integers stored as little-endian 32-bit limbs.
//
// Operand widths are treated as public and operand values as secret. The
// fixed-width operations (Add, Sub, AddUint64, SubUint64, MulBytes,
// Multiply, Square and the bit-length utilities) execute the same
// instruction sequence and touch the same addresses for any two inputs of
// the same widths. Operations with Resize in their name, the scalar
// multiplications that size their result from the scalar's value, and
// ShiftRight are not constant-time and must only be used on public data.
//
// Every buffer comes from a memory.Allocator and is erased before it is
// released. Destinations may alias sources in every operation.
package wide
