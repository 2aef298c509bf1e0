package domain

import (
	"context"
	"fmt"
	"iter"
	"math"
	"slices"
)

const (
	// DefaultReleaseThreshold is the accumulated stress at which a segment
	// releases. Units match movementRate × years × multiplier.
	DefaultReleaseThreshold = 300.0

	// MaxSimulationSteps bounds the number of time steps in one run.
	MaxSimulationSteps = 1_000_000

	stepEpsilon = 1e-9
)

// ReleaseEvent records a segment reaching the release threshold.
type ReleaseEvent struct {
	SegmentIndex int     `json:"segment_index"`
	Boundary     string  `json:"boundary"`
	Time         float64 `json:"time_years"`
	PeakStress   float64 `json:"peak_stress"`
}

// StressState is the accumulated stress per segment at one time step. Stress
// is indexed like the segment slice passed to Simulate and is owned by the
// state; later steps never modify it.
type StressState struct {
	Time   float64        `json:"time_years"`
	Stress []float64      `json:"stress"`
	Events []ReleaseEvent `json:"events,omitempty"`
}

type simConfig struct {
	threshold float64
}

// SimOption configures a simulation run.
type SimOption func(*simConfig)

// WithReleaseThreshold overrides DefaultReleaseThreshold.
func WithReleaseThreshold(v float64) SimOption {
	return func(c *simConfig) { c.threshold = v }
}

// Simulate advances boundary stress from zero over horizonYears in steps of
// stepYears. The returned sequence yields the state at t=0, every step, and
// exactly t=horizonYears; a final partial step is taken when the horizon is
// not a multiple of the step.
//
// Each step adds movementRate × Δt × type multiplier to every segment. A
// segment that reaches the release threshold emits a ReleaseEvent and resets
// to zero. The full reset models an idealized periodic release; it is a
// simplifying assumption, not a physical claim.
//
// The sequence is lazy and restartable: each range starts again from zero
// stress using a private copy of segments.
func Simulate(segments []BoundarySegment, horizonYears, stepYears float64, opts ...SimOption) (iter.Seq[StressState], error) {
	cfg := simConfig{threshold: DefaultReleaseThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}

	steps, err := stepCount(horizonYears, stepYears)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(cfg.threshold) || math.IsInf(cfg.threshold, 0) || cfg.threshold <= 0 {
		return nil, fmt.Errorf("%w: release threshold %v must be positive", ErrInvalidSimulationParameters, cfg.threshold)
	}

	segs := slices.Clone(segments)
	rates := make([]float64, len(segs))
	for i, s := range segs {
		rates[i] = s.MovementRate * s.Type.StressMultiplier()
	}

	return func(yield func(StressState) bool) {
		stress := make([]float64, len(segs))
		if !yield(StressState{Time: 0, Stress: slices.Clone(stress)}) {
			return
		}

		prev := 0.0
		for k := 1; k <= steps; k++ {
			t := float64(k) * stepYears
			if k == steps {
				t = horizonYears
			}
			dt := t - prev
			prev = t

			var events []ReleaseEvent
			for i := range stress {
				stress[i] += rates[i] * dt
				if stress[i] >= cfg.threshold {
					events = append(events, ReleaseEvent{
						SegmentIndex: i,
						Boundary:     segs[i].Name,
						Time:         t,
						PeakStress:   stress[i],
					})
					stress[i] = 0
				}
			}

			if !yield(StressState{Time: t, Stress: slices.Clone(stress), Events: events}) {
				return
			}
		}
	}, nil
}

// SimulateContext runs Simulate to completion and returns the trajectory,
// checking ctx between time steps.
func SimulateContext(ctx context.Context, segments []BoundarySegment, horizonYears, stepYears float64, opts ...SimOption) ([]StressState, error) {
	seq, err := Simulate(segments, horizonYears, stepYears, opts...)
	if err != nil {
		return nil, err
	}
	steps, _ := stepCount(horizonYears, stepYears)
	out := make([]StressState, 0, steps+1)
	for st := range seq {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulate at t=%v: %w", st.Time, err)
		}
		out = append(out, st)
	}
	return out, nil
}

// stepCount returns the number of transitions after t=0.
func stepCount(horizonYears, stepYears float64) (int, error) {
	if math.IsNaN(horizonYears) || math.IsInf(horizonYears, 0) || horizonYears <= 0 {
		return 0, fmt.Errorf("%w: horizon %v must be positive", ErrInvalidSimulationParameters, horizonYears)
	}
	if math.IsNaN(stepYears) || math.IsInf(stepYears, 0) || stepYears <= 0 {
		return 0, fmt.Errorf("%w: step %v must be positive", ErrInvalidSimulationParameters, stepYears)
	}
	n := math.Ceil(horizonYears/stepYears - stepEpsilon)
	if n > MaxSimulationSteps {
		return 0, fmt.Errorf("%w: %v steps exceeds limit of %d", ErrInvalidSimulationParameters, n, MaxSimulationSteps)
	}
	return max(int(n), 1), nil
}
