package differential

import "math"

// ToDegrees returns how far a wheel of the given diameter turns, in degrees, to travel
// distanceMm. The result is not rounded.
func ToDegrees(distanceMm, wheelDiameterMm float64) float64 {
	return distanceMm / (math.Pi * wheelDiameterMm) * 360
}

// FromDegrees is the inverse of ToDegrees.
func FromDegrees(degrees, wheelDiameterMm float64) float64 {
	return degrees / 360 * math.Pi * wheelDiameterMm
}
