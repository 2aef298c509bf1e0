package domain

import (
	"fmt"
	"math"
	"strings"
)

// BoundaryType classifies a plate boundary by relative plate motion.
type BoundaryType string

const (
	Convergent BoundaryType = "convergent"
	Transform  BoundaryType = "transform"
	Divergent  BoundaryType = "divergent"
)

// Stress multipliers per boundary type. Ordering convergent > transform >
// divergent is relied on by the scorer and the simulator.
const (
	ConvergentMultiplier = 1.5
	TransformMultiplier  = 1.2
	DivergentMultiplier  = 0.8
)

// ParseBoundaryType normalizes and validates a boundary type string.
func ParseBoundaryType(s string) (BoundaryType, error) {
	t := BoundaryType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown boundary type %q", ErrInvalidRecord, s)
	}
	return t, nil
}

// Valid reports whether t is one of the enumerated boundary types.
func (t BoundaryType) Valid() bool {
	switch t {
	case Convergent, Transform, Divergent:
		return true
	}
	return false
}

// StressMultiplier returns the stress scaling for the boundary type, or 0 for
// an unknown type.
func (t BoundaryType) StressMultiplier() float64 {
	switch t {
	case Convergent:
		return ConvergentMultiplier
	case Transform:
		return TransformMultiplier
	case Divergent:
		return DivergentMultiplier
	}
	return 0
}

// VolcanoStatus is the eruptive state of a catalog volcano.
type VolcanoStatus string

const (
	Active  VolcanoStatus = "active"
	Dormant VolcanoStatus = "dormant"
	Extinct VolcanoStatus = "extinct"
)

// ParseVolcanoStatus normalizes and validates a status string.
func ParseVolcanoStatus(s string) (VolcanoStatus, error) {
	st := VolcanoStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case Active, Dormant, Extinct:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown volcano status %q", ErrInvalidRecord, s)
}

// weight scales a volcano's contribution to the volcanic risk index.
func (s VolcanoStatus) weight() float64 {
	switch s {
	case Active:
		return 1.0
	case Dormant:
		return 0.5
	case Extinct:
		return 0.1
	}
	return 0
}

// UnknownEruption marks a volcano with no dated eruption. There is no year
// zero in the calendar, so it never collides with a real date.
const UnknownEruption = 0

// MaxVEI is the top of the Volcanic Explosivity Index.
const MaxVEI = 8

// Volcano is an immutable catalog record.
type Volcano struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Location     Point         `json:"location"`
	VEI          int           `json:"vei"`
	LastEruption int           `json:"last_eruption,omitempty"` // calendar year, negative = BCE
	Status       VolcanoStatus `json:"status"`
	ElevationM   float64       `json:"elevation_m,omitempty"`
}

// Validate checks the record invariants.
func (v Volcano) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("%w: volcano %q has no id", ErrInvalidRecord, v.Name)
	}
	if err := v.Location.Validate(); err != nil {
		return fmt.Errorf("%w: volcano %s: %w", ErrInvalidRecord, v.ID, err)
	}
	if v.VEI < 0 || v.VEI > MaxVEI {
		return fmt.Errorf("%w: volcano %s: VEI %d outside [0,%d]", ErrInvalidRecord, v.ID, v.VEI, MaxVEI)
	}
	if _, err := ParseVolcanoStatus(string(v.Status)); err != nil {
		return fmt.Errorf("volcano %s: %w", v.ID, err)
	}
	return nil
}

// DefaultActivity is applied to boundary segments without an activity weight.
const DefaultActivity = 1.0

// BoundarySegment is one great-circle piece of a plate boundary polyline.
type BoundarySegment struct {
	Name         string       `json:"name"`
	System       string       `json:"system,omitempty"`
	Type         BoundaryType `json:"type"`
	Start        Point        `json:"start"`
	End          Point        `json:"end"`
	MovementRate float64      `json:"movement_rate_cm_yr"`
	PlatePair    string       `json:"plate_pair,omitempty"`
	Activity     float64      `json:"activity"` // relative seismic activity in (0,1]
}

// Validate checks the record invariants.
func (s BoundarySegment) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: boundary segment has no name", ErrInvalidRecord)
	}
	if !s.Type.Valid() {
		return fmt.Errorf("%w: segment %s: unknown boundary type %q", ErrInvalidRecord, s.Name, s.Type)
	}
	if err := s.Start.Validate(); err != nil {
		return fmt.Errorf("%w: segment %s start: %w", ErrInvalidRecord, s.Name, err)
	}
	if err := s.End.Validate(); err != nil {
		return fmt.Errorf("%w: segment %s end: %w", ErrInvalidRecord, s.Name, err)
	}
	if math.IsNaN(s.MovementRate) || math.IsInf(s.MovementRate, 0) || s.MovementRate < 0 {
		return fmt.Errorf("%w: segment %s: movement rate %v must be a non-negative number", ErrInvalidRecord, s.Name, s.MovementRate)
	}
	if math.IsNaN(s.Activity) || s.Activity < 0 || s.Activity > 1 {
		return fmt.Errorf("%w: segment %s: activity %v outside [0,1]", ErrInvalidRecord, s.Name, s.Activity)
	}
	return nil
}

// Length returns the arc length of the segment in km.
func (s BoundarySegment) Length() float64 {
	return Distance(s.Start, s.End)
}

// Site is a named location that can be assessed by name.
type Site struct {
	Name     string `json:"name"`
	Location Point  `json:"location"`
}

// Catalog holds the ordered, read-only reference data the engine and the
// simulator work from. Order is significant: nearest-boundary ties resolve to
// the first segment.
type Catalog struct {
	Volcanoes  []Volcano
	Boundaries []BoundarySegment
	Plates     []Plate
	Sites      []Site
}

// NewCatalog validates and copies the given records. Segments with a zero
// activity weight get DefaultActivity. Empty slices are allowed here; the
// engine rejects an empty boundary catalog.
func NewCatalog(volcanoes []Volcano, boundaries []BoundarySegment) (*Catalog, error) {
	c := &Catalog{
		Volcanoes:  make([]Volcano, 0, len(volcanoes)),
		Boundaries: make([]BoundarySegment, 0, len(boundaries)),
	}

	seen := make(map[string]struct{}, len(volcanoes))
	for i, v := range volcanoes {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("volcano %d: %w", i, err)
		}
		if _, dup := seen[v.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate volcano id %q", ErrInvalidRecord, v.ID)
		}
		seen[v.ID] = struct{}{}
		c.Volcanoes = append(c.Volcanoes, v)
	}

	for i, s := range boundaries {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("boundary %d: %w", i, err)
		}
		if s.Activity == 0 {
			s.Activity = DefaultActivity
		}
		c.Boundaries = append(c.Boundaries, s)
	}

	return c, nil
}

// WithPlates returns a copy of the catalog with the given plates, after
// validating each one.
func (c *Catalog) WithPlates(plates []Plate) (*Catalog, error) {
	for i, p := range plates {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("plate %d: %w", i, err)
		}
	}
	out := *c
	out.Plates = append([]Plate(nil), plates...)
	return &out, nil
}

// WithSites returns a copy of the catalog with the given named sites.
func (c *Catalog) WithSites(sites []Site) (*Catalog, error) {
	for _, s := range sites {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: site has no name", ErrInvalidRecord)
		}
		if err := s.Location.Validate(); err != nil {
			return nil, fmt.Errorf("%w: site %s: %w", ErrInvalidRecord, s.Name, err)
		}
	}
	out := *c
	out.Sites = append([]Site(nil), sites...)
	return &out, nil
}

// Site looks up a named site, case-insensitively.
func (c *Catalog) Site(name string) (Site, bool) {
	for _, s := range c.Sites {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Site{}, false
}
