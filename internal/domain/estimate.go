package domain

import "math"

// Bounds for estimated magnitudes.
const (
	minEstimatedMagnitude = 3.0
	maxEstimatedMagnitude = 8.5
)

// EstimateMagnitude derives a characteristic magnitude for a location that has
// no observed event. Points near an active boundary get larger values, and
// each active volcano nearby (up to three) adds 0.3.
func EstimateMagnitude(boundaryDistanceKm, activity float64, activeVolcanoes int) float64 {
	var m float64
	switch {
	case boundaryDistanceKm < 100:
		m = 6.5 + 1.5*activity
	case boundaryDistanceKm < 300:
		m = 5.5 + 1.0*activity
	default:
		m = 4.5 + 0.5*activity
	}
	m += 0.3 * float64(min(activeVolcanoes, 3))
	return math.Max(minEstimatedMagnitude, math.Min(maxEstimatedMagnitude, m))
}

// EstimateDepth returns the typical hypocentre depth in km for a boundary type.
func EstimateDepth(t BoundaryType) float64 {
	switch t {
	case Convergent:
		return 25
	case Transform:
		return 15
	default:
		return 10
	}
}
