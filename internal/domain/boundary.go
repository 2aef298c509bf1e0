package domain

import (
	"fmt"
	"math"
)

// DefaultActivityCutoffKm is the distance beyond which plate activity is zero.
const DefaultActivityCutoffKm = 1000.0

// stressScale converts cm/yr over km into the stress index range used by the scorer.
const stressScale = 1000.0

// BoundaryMatch is the result of a nearest-boundary lookup.
type BoundaryMatch struct {
	Index      int
	Segment    BoundarySegment
	DistanceKm float64
}

// NearestBoundary scans every segment and returns the closest one with its
// distance in km. Ties resolve to the earliest segment in catalog order.
func NearestBoundary(p Point, segments []BoundarySegment) (BoundarySegment, float64, error) {
	m, err := nearestBoundary(p, segments)
	if err != nil {
		return BoundarySegment{}, 0, err
	}
	return m.Segment, m.DistanceKm, nil
}

func nearestBoundary(p Point, segments []BoundarySegment) (BoundaryMatch, error) {
	if len(segments) == 0 {
		return BoundaryMatch{}, fmt.Errorf("nearest boundary: %w", ErrEmptyCatalog)
	}

	best := BoundaryMatch{Index: -1, DistanceKm: math.Inf(1)}
	for i, s := range segments {
		d := DistanceToSegment(p, s.Start, s.End)
		if d < best.DistanceKm {
			best = BoundaryMatch{Index: i, Segment: s, DistanceKm: d}
		}
	}
	return best, nil
}

// TectonicStressIndex is an inverse-distance stress estimate scaled by the
// boundary's movement rate and type multiplier. Distances under 1 km are
// treated as 1 km.
func TectonicStressIndex(distanceKm, movementRate float64, t BoundaryType) float64 {
	return movementRate * t.StressMultiplier() * stressScale / math.Max(distanceKm, 1)
}

// PlateActivityLevel maps distance to a [0,1] activity level that is 1 at the
// boundary and reaches 0 at DefaultActivityCutoffKm.
func PlateActivityLevel(distanceKm float64) float64 {
	return activityLevel(distanceKm, DefaultActivityCutoffKm)
}

func activityLevel(distanceKm, cutoffKm float64) float64 {
	if distanceKm >= cutoffKm {
		return 0
	}
	f := 1 - math.Max(distanceKm, 0)/cutoffKm
	return f * f
}
