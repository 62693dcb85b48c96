package common

import "math"

// Clamp limits v to the inclusive range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// RoundInt rounds v to the nearest integer, halves away from zero.
func RoundInt(v float64) int {
	return int(math.Round(v))
}
