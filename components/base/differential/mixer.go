package differential

import "math"

// Mix converts a turn bias and a speed, both in percent of full power, into left and right
// powers. The result keeps the turn ratio implied by direction while neither side exceeds
// |speed|. A negative speed reverses, so Mix(0, s) is (s, s) for every s. Mix(0, 0) is (0, 0).
func Mix(direction, speed float64) (float64, float64) {
	left := speed + direction
	right := speed - direction
	peak := math.Max(math.Abs(left), math.Abs(right))
	if peak == 0 {
		return 0, 0
	}
	z := math.Abs(speed) / peak
	return left * z, right * z
}
