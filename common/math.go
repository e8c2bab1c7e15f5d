package common

import (
	"cmp"
)

// / Returns the square of the value.
func Sqr[T IT](a T) T {
	return a * a
}

// / Returns the absolute value.
func Abs[T IT](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

// / Returns the value, clamped to [minInclusive, maxInclusive].
func Clamp[T cmp.Ordered](value, minInclusive, maxInclusive T) T {
	if value < minInclusive {
		return minInclusive
	}
	if value > maxInclusive {
		return maxInclusive
	}
	return value
}

// NextPow2 rounds v up to the next power of two. Zero stays zero.
func NextPow2(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}

// Ilog2 is floor(log2(v)) for v > 0.
func Ilog2(v uint32) uint32 {
	getBool := func(b bool) uint32 {
		if b {
			return 1
		}
		return 0
	}
	var r uint32
	var shift uint32
	r = getBool(v > 0xffff) << 4
	v >>= r
	shift = getBool(v > 0xff) << 3
	v >>= shift
	r |= shift
	shift = getBool(v > 0xf) << 2
	v >>= shift
	r |= shift
	shift = getBool(v > 0x3) << 1
	v >>= shift
	r |= shift
	r |= v >> 1
	return r
}

// ComputeTileHash maps a tile grid location to a bucket of the position lookup.
func ComputeTileHash(x, y, mask int32) int32 {
	h1 := uint32(0x8da6b343) // Large multiplicative constants;
	h2 := uint32(0xd8163841) // here arbitrarily chosen primes
	n := h1*uint32(x) + h2*uint32(y)
	return int32(n & uint32(mask))
}
