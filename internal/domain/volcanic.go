package domain

import "math"

const (
	// DefaultVolcanoRadiusKm bounds which volcanoes contribute to the index.
	DefaultVolcanoRadiusKm = 500.0

	// VolcanicSaturation is the summed contribution that maps to an index of 1.
	VolcanicSaturation = 3.0

	recentEruptionYears = 100
	minRecencyWeight    = 0.05
)

// VolcanicResult is the output of VolcanicInfluence.
type VolcanicResult struct {
	RiskIndex         float64  `json:"risk_index"`
	NearestDistanceKm float64  `json:"nearest_distance_km"`
	NearestVolcano    string   `json:"nearest_volcano,omitempty"`
	ActiveNearby      int      `json:"active_nearby"`
	Contributing      []string `json:"contributing,omitempty"`
}

// VolcanicInfluence aggregates distance-weighted contributions from every
// volcano within radiusKm of p:
//
//	contribution = (VEI/8) × recency × statusWeight × (1 - d/radius)
//
// The sum is normalized by VolcanicSaturation and capped at 1. The nearest
// distance covers the whole catalog regardless of radius; with an empty
// catalog it is +Inf and the index is 0.
func VolcanicInfluence(p Point, volcanoes []Volcano, radiusKm float64, referenceYear int) VolcanicResult {
	res := VolcanicResult{NearestDistanceKm: math.Inf(1)}
	if radiusKm <= 0 {
		radiusKm = DefaultVolcanoRadiusKm
	}

	var sum float64
	for _, v := range volcanoes {
		d := Distance(p, v.Location)
		if d < res.NearestDistanceKm {
			res.NearestDistanceKm = d
			res.NearestVolcano = v.Name
		}
		if d > radiusKm {
			continue
		}
		if v.Status == Active {
			res.ActiveNearby++
		}

		c := volcanoContribution(v, d, radiusKm, referenceYear)
		if c > 0 {
			sum += c
			res.Contributing = append(res.Contributing, v.ID)
		}
	}

	res.RiskIndex = math.Min(1, sum/VolcanicSaturation)
	return res
}

func volcanoContribution(v Volcano, distanceKm, radiusKm float64, referenceYear int) float64 {
	decay := 1 - distanceKm/radiusKm
	if decay <= 0 {
		return 0
	}
	return float64(v.VEI) / MaxVEI * recencyWeight(v.LastEruption, referenceYear) * v.Status.weight() * decay
}

// recencyWeight is 1 for eruptions within the last century and decays as
// 100/yearsSince beyond that, never dropping below minRecencyWeight. Undated
// volcanoes get the floor.
func recencyWeight(lastEruption, referenceYear int) float64 {
	if lastEruption == UnknownEruption {
		return minRecencyWeight
	}
	yearsSince := referenceYear - lastEruption
	if yearsSince <= recentEruptionYears {
		return 1
	}
	return math.Max(minRecencyWeight, recentEruptionYears/float64(yearsSince))
}
