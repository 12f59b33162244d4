package utils

import "math"

// RoundHalfUp rounds to the nearest integer, with halves rounded towards positive
// infinity (2.5 -> 3, -2.5 -> -2). Motor rotation targets are rounded this way.
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// Sign returns -1, 0 or 1 according to the sign of x.
func Sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
