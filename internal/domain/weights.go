package domain

import (
	"fmt"
	"math"
)

// Factor names one input of the composite score.
type Factor string

const (
	FactorMagnitude         Factor = "magnitude"
	FactorShallowDepth      Factor = "shallow_depth"
	FactorBoundaryProximity Factor = "boundary_proximity"
	FactorTectonicStress    Factor = "tectonic_stress"
	FactorVolcanicActivity  Factor = "volcanic_activity"
)

// Factors lists every score factor in summation order.
var Factors = []Factor{
	FactorMagnitude,
	FactorShallowDepth,
	FactorBoundaryProximity,
	FactorTectonicStress,
	FactorVolcanicActivity,
}

const weightTolerance = 1e-9

// Weights is the per-factor weight table. Valid tables sum to 1.
type Weights struct {
	Magnitude         float64 `json:"magnitude"`
	ShallowDepth      float64 `json:"shallow_depth"`
	BoundaryProximity float64 `json:"boundary_proximity"`
	TectonicStress    float64 `json:"tectonic_stress"`
	VolcanicActivity  float64 `json:"volcanic_activity"`
}

// DefaultWeights is the weight table used unless an engine is configured otherwise.
var DefaultWeights = Weights{
	Magnitude:         0.25,
	ShallowDepth:      0.20,
	BoundaryProximity: 0.20,
	TectonicStress:    0.20,
	VolcanicActivity:  0.15,
}

func init() {
	if err := DefaultWeights.Validate(); err != nil {
		panic(err)
	}
}

// Of returns the weight for f.
func (w Weights) Of(f Factor) float64 {
	switch f {
	case FactorMagnitude:
		return w.Magnitude
	case FactorShallowDepth:
		return w.ShallowDepth
	case FactorBoundaryProximity:
		return w.BoundaryProximity
	case FactorTectonicStress:
		return w.TectonicStress
	case FactorVolcanicActivity:
		return w.VolcanicActivity
	}
	return 0
}

// Sum adds the weights in Factors order.
func (w Weights) Sum() float64 {
	var s float64
	for _, f := range Factors {
		s += w.Of(f)
	}
	return s
}

// Validate checks that every weight is in [0,1] and that they sum to 1.
func (w Weights) Validate() error {
	for _, f := range Factors {
		v := w.Of(f)
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("weight %s=%v outside [0,1]", f, v)
		}
	}
	if s := w.Sum(); math.Abs(s-1) > weightTolerance {
		return fmt.Errorf("weights sum to %v, want 1", s)
	}
	return nil
}

// Tier is the discrete risk classification of a score.
type Tier string

const (
	TierLow      Tier = "LOW"
	TierModerate Tier = "MODERATE"
	TierHigh     Tier = "HIGH"
	TierVeryHigh Tier = "VERY_HIGH"
)

// Lower bounds of each tier above LOW. Intervals are half-open: [lo, next).
const (
	ModerateThreshold = 0.3
	HighThreshold     = 0.6
	VeryHighThreshold = 0.85
)

// ClassifyScore maps a [0,1] score to its tier.
func ClassifyScore(score float64) Tier {
	switch {
	case score >= VeryHighThreshold:
		return TierVeryHigh
	case score >= HighThreshold:
		return TierHigh
	case score >= ModerateThreshold:
		return TierModerate
	default:
		return TierLow
	}
}

// Recommendation returns the operational guidance attached to a tier.
func (t Tier) Recommendation() string {
	switch t {
	case TierVeryHigh:
		return "Prepare for evacuation and activate emergency response plans"
	case TierHigh:
		return "Increase monitoring and review emergency preparedness"
	case TierModerate:
		return "Maintain standard seismic precautions"
	default:
		return "Continue routine monitoring"
	}
}
