package math

import "github.com/chewxy/math32"

const (
	DegToRad = math32.Pi / 180
	RadToDeg = 180 / math32.Pi
)

func Clamp(x, lo, hi float32) float32 {
	return math32.Min(math32.Max(x, lo), hi)
}

func Saturate(x float32) float32 {
	return Clamp(x, 0, 1)
}

func ClampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Smoothstep is the Hermite ramp: 0 below edge0, 1 above edge1.
func Smoothstep(edge0, edge1, x float32) float32 {
	t := Saturate((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

// FiniteOrZero substitutes zero for NaN and Inf.
func FiniteOrZero(x float32) float32 {
	if math32.IsNaN(x) || math32.IsInf(x, 0) {
		return 0
	}
	return x
}
