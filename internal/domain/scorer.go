package domain

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// Normalization scales for the score factors.
const (
	MaxMagnitude           = 10.0
	MaxDepthKm             = 700.0
	ShallowDepthScaleKm    = 50.0
	BoundaryProximityScale = 500.0
	StressNormalization    = 50.0
)

// Names reported in RiskAssessment.Clamped and RiskAssessment.Estimated.
const (
	ParamMagnitude = "magnitude"
	ParamDepth     = "depth"
)

// AssessmentRequest is a point to assess with optional seismic parameters.
type AssessmentRequest struct {
	Location  Point
	Magnitude *float64
	DepthKm   *float64
}

// RiskAssessment is the full result of Engine.Assess. Breakdown holds each
// weighted contribution; the contributions sum to Score before clamping.
type RiskAssessment struct {
	Location Point `json:"location"`

	NearestBoundary      string       `json:"nearest_boundary"`
	BoundaryIndex        int          `json:"boundary_index"`
	PlatePair            string       `json:"plate_pair,omitempty"`
	DistanceToBoundaryKm float64      `json:"distance_to_boundary_km"`
	BoundaryType         BoundaryType `json:"boundary_type"`
	MovementRate         float64      `json:"movement_rate_cm_yr"`
	TectonicStress       float64      `json:"tectonic_stress_index"`
	PlateActivity        float64      `json:"plate_activity_level"`

	VolcanicRiskIndex     float64  `json:"volcanic_risk_index"`
	NearestVolcano        string   `json:"nearest_volcano,omitempty"`
	NearestVolcanoKm      *float64 `json:"nearest_volcano_km,omitempty"`
	ActiveVolcanoesNearby int      `json:"active_volcanoes_nearby"`

	Magnitude *float64 `json:"magnitude,omitempty"`
	DepthKm   *float64 `json:"depth_km,omitempty"`

	Factors        map[Factor]float64 `json:"factors"`
	Breakdown      map[Factor]float64 `json:"breakdown"`
	Score          float64            `json:"score"`
	Tier           Tier               `json:"tier"`
	Recommendation string             `json:"recommendation"`

	Clamped   []string `json:"clamped,omitempty"`
	Estimated []string `json:"estimated,omitempty"`
}

// Engine scores points against an immutable catalog. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	catalog         *Catalog
	weights         Weights
	volcanoRadiusKm float64
	referenceYear   int
	estimate        bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights overrides DefaultWeights. NewEngine rejects tables that do not sum to 1.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithVolcanoRadius sets the radius in km used for volcanic influence.
func WithVolcanoRadius(km float64) Option {
	return func(e *Engine) {
		if km > 0 {
			e.volcanoRadiusKm = km
		}
	}
}

// WithReferenceYear pins the year eruption recency is measured from. By
// default the current year of the package clock is used.
func WithReferenceYear(year int) Option {
	return func(e *Engine) { e.referenceYear = year }
}

// WithParameterEstimation makes Assess fill in a missing magnitude or depth
// from the geological context instead of scoring it as zero.
func WithParameterEstimation(enabled bool) Option {
	return func(e *Engine) { e.estimate = enabled }
}

// NewEngine builds an Engine over c. The boundary catalog must not be empty.
func NewEngine(c *Catalog, opts ...Option) (*Engine, error) {
	if c == nil || len(c.Boundaries) == 0 {
		return nil, fmt.Errorf("new engine: boundary catalog: %w", ErrEmptyCatalog)
	}
	e := &Engine{
		catalog:         c,
		weights:         DefaultWeights,
		volcanoRadiusKm: DefaultVolcanoRadiusKm,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.weights.Validate(); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	return e, nil
}

// Catalog returns the catalog the engine scores against.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Weights returns the weight table in use.
func (e *Engine) Weights() Weights { return e.weights }

// VolcanoRadiusKm returns the volcanic influence radius in use.
func (e *Engine) VolcanoRadiusKm() float64 { return e.volcanoRadiusKm }

func (e *Engine) refYear() int {
	if e.referenceYear != 0 {
		return e.referenceYear
	}
	return clock.Now().UTC().Year()
}

// Assess scores a single request. Out-of-range magnitude or depth values are
// clamped and listed in Clamped; NaN or infinite values and invalid
// coordinates are rejected.
func (e *Engine) Assess(req AssessmentRequest) (RiskAssessment, error) {
	if err := req.Location.Validate(); err != nil {
		return RiskAssessment{}, fmt.Errorf("assess: %w", err)
	}
	if err := checkFinite(ParamMagnitude, req.Magnitude); err != nil {
		return RiskAssessment{}, fmt.Errorf("assess: %w", err)
	}
	if err := checkFinite(ParamDepth, req.DepthKm); err != nil {
		return RiskAssessment{}, fmt.Errorf("assess: %w", err)
	}

	match, err := nearestBoundary(req.Location, e.catalog.Boundaries)
	if err != nil {
		return RiskAssessment{}, fmt.Errorf("assess: %w", err)
	}
	seg := match.Segment
	stress := TectonicStressIndex(match.DistanceKm, seg.MovementRate, seg.Type) * seg.Activity
	volc := VolcanicInfluence(req.Location, e.catalog.Volcanoes, e.volcanoRadiusKm, e.refYear())

	a := RiskAssessment{
		Location:              req.Location,
		NearestBoundary:       seg.Name,
		BoundaryIndex:         match.Index,
		PlatePair:             seg.PlatePair,
		DistanceToBoundaryKm:  match.DistanceKm,
		BoundaryType:          seg.Type,
		MovementRate:          seg.MovementRate,
		TectonicStress:        stress,
		PlateActivity:         PlateActivityLevel(match.DistanceKm),
		VolcanicRiskIndex:     volc.RiskIndex,
		NearestVolcano:        volc.NearestVolcano,
		ActiveVolcanoesNearby: volc.ActiveNearby,
	}
	if !math.IsInf(volc.NearestDistanceKm, 1) {
		d := volc.NearestDistanceKm
		a.NearestVolcanoKm = &d
	}

	magnitude := req.Magnitude
	if magnitude == nil && e.estimate {
		m := EstimateMagnitude(match.DistanceKm, seg.Activity, volc.ActiveNearby)
		magnitude = &m
		a.Estimated = append(a.Estimated, ParamMagnitude)
	}
	depth := req.DepthKm
	if depth == nil && e.estimate {
		d := EstimateDepth(seg.Type)
		depth = &d
		a.Estimated = append(a.Estimated, ParamDepth)
	}

	var magFactor, depthFactor float64
	if magnitude != nil {
		m, clamped := clampRange(*magnitude, 0, MaxMagnitude)
		if clamped {
			a.Clamped = append(a.Clamped, ParamMagnitude)
		}
		a.Magnitude = &m
		magFactor = m / MaxMagnitude
	}
	if depth != nil {
		d, clamped := clampRange(*depth, 0, MaxDepthKm)
		if clamped {
			a.Clamped = append(a.Clamped, ParamDepth)
		}
		a.DepthKm = &d
		depthFactor = math.Max(0, 1-d/ShallowDepthScaleKm)
	}

	a.Factors = map[Factor]float64{
		FactorMagnitude:         magFactor,
		FactorShallowDepth:      depthFactor,
		FactorBoundaryProximity: 1 - math.Min(1, match.DistanceKm/BoundaryProximityScale),
		FactorTectonicStress:    clamp01(stress / StressNormalization),
		FactorVolcanicActivity:  clamp01(volc.RiskIndex),
	}

	a.Breakdown = make(map[Factor]float64, len(Factors))
	var score float64
	for _, f := range Factors {
		c := a.Factors[f] * e.weights.Of(f)
		a.Breakdown[f] = c
		score += c
	}
	a.Score = clamp01(score)
	a.Tier = ClassifyScore(a.Score)
	a.Recommendation = a.Tier.Recommendation()

	return a, nil
}

// AssessAll scores reqs on up to workers goroutines and returns results in
// input order. The first failure cancels the remaining work.
func (e *Engine) AssessAll(ctx context.Context, reqs []AssessmentRequest, workers int) ([]RiskAssessment, error) {
	out := make([]RiskAssessment, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := e.Assess(reqs[i])
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func checkFinite(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return fmt.Errorf("%w: %s is %v", ErrInvalidParameter, name, *v)
	}
	return nil
}

func clampRange(v, lo, hi float64) (float64, bool) {
	switch {
	case v < lo:
		return lo, true
	case v > hi:
		return hi, true
	}
	return v, false
}
