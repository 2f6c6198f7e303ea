package math

import "math/bits"

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// GCD returns the greatest common divisor of a and b.
func GCD(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of a and b.
func LCM(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / GCD(a, b) * b
}

// MipChainLength returns the number of levels in a full mip chain for a
// texture whose smaller dimension is n (256 -> 9, 1 -> 1).
func MipChainLength(n int) int {
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n))
}

// MinPowerOfTwoAtLeast returns the smallest power of two (positive or
// negative exponent) that is >= x, for x <= 1. The result is never smaller
// than 2^-24.
func MinPowerOfTwoAtLeast(x float32) float32 {
	p := float32(1)
	for p/2 >= x && p > 0x1p-24 {
		p /= 2
	}
	return p
}
