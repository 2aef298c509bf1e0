package domain

import (
	"cmp"
	"slices"
)

// StressCategory buckets a segment's stress relative to the release threshold.
type StressCategory string

const (
	StressLow      StressCategory = "LOW"
	StressModerate StressCategory = "MODERATE"
	StressHigh     StressCategory = "HIGH"
	StressVeryHigh StressCategory = "VERY_HIGH"
	StressExtreme  StressCategory = "EXTREME"
)

// CategorizeStress classifies stress by its fraction of threshold in quarter bands.
func CategorizeStress(stress, threshold float64) StressCategory {
	if threshold <= 0 {
		return StressExtreme
	}
	switch f := stress / threshold; {
	case f >= 1:
		return StressExtreme
	case f >= 0.75:
		return StressVeryHigh
	case f >= 0.5:
		return StressHigh
	case f >= 0.25:
		return StressModerate
	default:
		return StressLow
	}
}

// SegmentReport summarizes one segment over a simulation run.
type SegmentReport struct {
	SegmentIndex int            `json:"segment_index"`
	Boundary     string         `json:"boundary"`
	Type         BoundaryType   `json:"type"`
	FinalStress  float64        `json:"final_stress"`
	Releases     int            `json:"releases"`
	Category     StressCategory `json:"category"`
}

// SimulationReport is a digest of a trajectory for reporting collaborators.
type SimulationReport struct {
	HorizonYears float64         `json:"horizon_years"`
	States       int             `json:"states"`
	Threshold    float64         `json:"release_threshold"`
	Events       []ReleaseEvent  `json:"events"`
	Segments     []SegmentReport `json:"segments"`
	Assumption   string          `json:"assumption"`
}

// ReleaseAssumption is attached to every report built by SummarizeSimulation.
const ReleaseAssumption = "stress resets to zero on release; an idealized periodic release, not a physical prediction"

// SummarizeSimulation ranks segments by final stress, highest first, and
// collects every release event in time order.
func SummarizeSimulation(states []StressState, segments []BoundarySegment, threshold float64) SimulationReport {
	r := SimulationReport{
		States:     len(states),
		Threshold:  threshold,
		Events:     []ReleaseEvent{},
		Assumption: ReleaseAssumption,
	}
	if len(states) == 0 {
		return r
	}
	final := states[len(states)-1]
	r.HorizonYears = final.Time

	releases := make([]int, len(segments))
	for _, st := range states {
		for _, ev := range st.Events {
			r.Events = append(r.Events, ev)
			if ev.SegmentIndex < len(releases) {
				releases[ev.SegmentIndex]++
			}
		}
	}

	r.Segments = make([]SegmentReport, 0, len(segments))
	for i, s := range segments {
		var stress float64
		if i < len(final.Stress) {
			stress = final.Stress[i]
		}
		r.Segments = append(r.Segments, SegmentReport{
			SegmentIndex: i,
			Boundary:     s.Name,
			Type:         s.Type,
			FinalStress:  stress,
			Releases:     releases[i],
			Category:     CategorizeStress(stress, threshold),
		})
	}
	slices.SortStableFunc(r.Segments, func(a, b SegmentReport) int {
		return cmp.Compare(b.FinalStress, a.FinalStress)
	})
	return r
}
