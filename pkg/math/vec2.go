// Package math provides the small vector and integer helpers used for UV
// space and texel-grid computations.
package math

import "math"

// Vec2 is a 2D vector.
type Vec2 struct {
	X, Y float32
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Mul returns the componentwise product.
func (v Vec2) Mul(other Vec2) Vec2 {
	return Vec2{v.X * other.X, v.Y * other.Y}
}

// Div returns the componentwise quotient.
func (v Vec2) Div(other Vec2) Vec2 {
	return Vec2{v.X / other.X, v.Y / other.Y}
}

// Area returns X * Y.
func (v Vec2) Area() float32 {
	return v.X * v.Y
}

// MaxComponent returns the larger of X and Y.
func (v Vec2) MaxComponent() float32 {
	return max(v.X, v.Y)
}

// Min returns the componentwise minimum of a and b.
func Min(a, b Vec2) Vec2 {
	return Vec2{min(a.X, b.X), min(a.Y, b.Y)}
}

// Max returns the componentwise maximum of a and b.
func Max(a, b Vec2) Vec2 {
	return Vec2{max(a.X, b.X), max(a.Y, b.Y)}
}

// InUnitRange reports whether both components lie in [0, 1).
func (v Vec2) InUnitRange() bool {
	return v.X >= 0 && v.X < 1 && v.Y >= 0 && v.Y < 1
}

// Floor rounds x down.
func Floor(x float32) float32 {
	return float32(math.Floor(float64(x)))
}

// Ceil rounds x up.
func Ceil(x float32) float32 {
	return float32(math.Ceil(float64(x)))
}

// Round rounds x to the nearest integer, halves away from zero.
func Round(x float32) int {
	return int(math.Round(float64(x)))
}
