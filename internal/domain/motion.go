package domain

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
)

const (
	kmPerDegree = 111.0
	cmPerKm     = 100_000.0

	// plateInfluenceKm bounds how far from its centre a plate loads the crust.
	plateInfluenceKm = 3000.0

	// HotspotStressScale is the loading value that maps to StressExtreme.
	HotspotStressScale = 100.0

	// MinHotspotResolutionDeg is the finest grid Hotspots accepts.
	MinHotspotResolutionDeg = 1.0
)

// Velocity is a plate's surface motion in degrees per year.
type Velocity struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Plate is an idealized rigid plate moving its centre at a constant velocity.
type Plate struct {
	Name        string   `json:"name"`
	Center      Point    `json:"center"`
	Velocity    Velocity `json:"velocity"`
	ThicknessKm float64  `json:"thickness_km"`
	Density     float64  `json:"density"` // g/cm³
}

// Validate checks the plate record.
func (p Plate) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: plate has no name", ErrInvalidRecord)
	}
	if err := p.Center.Validate(); err != nil {
		return fmt.Errorf("%w: plate %s: %w", ErrInvalidRecord, p.Name, err)
	}
	if p.ThicknessKm < 0 || p.Density < 0 {
		return fmt.Errorf("%w: plate %s: negative thickness or density", ErrInvalidRecord, p.Name)
	}
	return nil
}

// PlateMovement is a plate's projected position after a number of years.
type PlateMovement struct {
	Plate        string  `json:"plate"`
	Current      Point   `json:"current_center"`
	Future       Point   `json:"future_center"`
	DistanceKm   float64 `json:"movement_km"`
	RateCmPerYr  float64 `json:"rate_cm_yr"`
	HeadingDeg   float64 `json:"heading_deg"`
	loadingScale float64
}

// Convergence describes two plates whose centres approach each other.
type Convergence struct {
	PlateA        string  `json:"plate_a"`
	PlateB        string  `json:"plate_b"`
	CurrentKm     float64 `json:"current_distance_km"`
	FutureKm      float64 `json:"future_distance_km"`
	ApproachKm    float64 `json:"approach_km"`
	Ratio         float64 `json:"convergence_ratio"`
	EstimatedZone Point   `json:"estimated_zone"`
}

// ProjectPlates moves every plate centre forward by years using a flat
// degrees-per-year velocity. Latitudes are clamped to the poles and
// longitudes wrapped.
func ProjectPlates(plates []Plate, years float64) ([]PlateMovement, error) {
	if math.IsNaN(years) || math.IsInf(years, 0) || years <= 0 {
		return nil, fmt.Errorf("%w: projection years %v must be positive", ErrInvalidSimulationParameters, years)
	}

	out := make([]PlateMovement, 0, len(plates))
	for _, p := range plates {
		dLat := p.Velocity.Lat * years
		dLon := p.Velocity.Lon * years
		future := Point{
			Lat: math.Max(-90, math.Min(90, p.Center.Lat+dLat)),
			Lon: normalizeLon(p.Center.Lon + dLon),
		}

		northKm := dLat * kmPerDegree
		eastKm := dLon * kmPerDegree * math.Cos(radians(p.Center.Lat))
		km := math.Hypot(northKm, eastKm)

		out = append(out, PlateMovement{
			Plate:        p.Name,
			Current:      p.Center,
			Future:       future,
			DistanceKm:   km,
			RateCmPerYr:  km * cmPerKm / years,
			HeadingDeg:   math.Mod(degrees(math.Atan2(eastKm, northKm))+360, 360),
			loadingScale: p.ThicknessKm * p.Density,
		})
	}
	return out, nil
}

// ConvergingPairs returns every pair of plates whose centres are closer after
// the projection, ordered by convergence ratio (approach / current distance),
// highest first.
func ConvergingPairs(movements []PlateMovement) []Convergence {
	var out []Convergence
	for i := range movements {
		for j := i + 1; j < len(movements); j++ {
			a, b := movements[i], movements[j]
			now := Distance(a.Current, b.Current)
			later := Distance(a.Future, b.Future)
			if later >= now || now == 0 {
				continue
			}
			out = append(out, Convergence{
				PlateA:        a.Plate,
				PlateB:        b.Plate,
				CurrentKm:     now,
				FutureKm:      later,
				ApproachKm:    now - later,
				Ratio:         (now - later) / now,
				EstimatedZone: Midpoint(a.Future, b.Future),
			})
		}
	}
	slices.SortStableFunc(out, func(x, y Convergence) int {
		return cmp.Compare(y.Ratio, x.Ratio)
	})
	return out
}

// Hotspot is a grid cell whose plate loading exceeds a threshold.
type Hotspot struct {
	Location Point          `json:"location"`
	Stress   float64        `json:"stress"`
	Category StressCategory `json:"category"`
}

// PlateLoadingAt sums the crustal loading at p from every plate whose centre
// lies within 3000 km: rate × thickness × density / (1 + d/1000).
func PlateLoadingAt(p Point, movements []PlateMovement) float64 {
	var total float64
	for _, m := range movements {
		d := Distance(p, m.Current)
		if d >= plateInfluenceKm {
			continue
		}
		total += m.RateCmPerYr * m.loadingScale / (1 + d/1000)
	}
	return total
}

// Hotspots scans a global grid at resolutionDeg and returns cells with
// loading above threshold, strongest first. Only the strongest limit cells
// are kept while scanning; limit <= 0 keeps them all. The scan stops with
// ctx's error once ctx is done.
func Hotspots(ctx context.Context, movements []PlateMovement, resolutionDeg, threshold float64, limit int) ([]Hotspot, error) {
	if math.IsNaN(resolutionDeg) || resolutionDeg < MinHotspotResolutionDeg || resolutionDeg > 90 {
		return nil, fmt.Errorf("%w: grid resolution %v must be within [%v, 90] degrees",
			ErrInvalidSimulationParameters, resolutionDeg, MinHotspotResolutionDeg)
	}
	if math.IsNaN(threshold) {
		return nil, fmt.Errorf("%w: hotspot threshold is NaN", ErrInvalidSimulationParameters)
	}

	var out []Hotspot
	for lat := -90.0; lat <= 90; lat += resolutionDeg {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for lon := -180.0; lon <= 180; lon += resolutionDeg {
			p := Point{Lat: lat, Lon: lon}
			s := PlateLoadingAt(p, movements)
			if s <= threshold {
				continue
			}
			h := Hotspot{
				Location: p,
				Stress:   s,
				Category: CategorizeStress(s, HotspotStressScale),
			}
			if limit <= 0 {
				out = append(out, h)
				continue
			}
			if len(out) == limit && s <= out[limit-1].Stress {
				continue
			}
			// Insert after equal stresses so ties keep scan order.
			i := sort.Search(len(out), func(i int) bool { return out[i].Stress < s })
			out = slices.Insert(out, i, h)
			if len(out) > limit {
				out = out[:limit]
			}
		}
	}
	if limit <= 0 {
		slices.SortStableFunc(out, func(a, b Hotspot) int {
			return cmp.Compare(b.Stress, a.Stress)
		})
	}
	return out, nil
}
