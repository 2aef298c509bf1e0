package domain

import "errors"

var (
	// ErrInvalidCoordinate is returned when a latitude or longitude is NaN or
	// outside [-90,90] / [-180,180].
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrOutOfRangeParameter marks a magnitude or depth that was clamped into its
	// documented bounds. Assess never returns it; clamped inputs are listed in
	// RiskAssessment.Clamped instead.
	ErrOutOfRangeParameter = errors.New("parameter out of range")

	// ErrInvalidParameter is returned for seismic parameters that cannot be
	// clamped (NaN or infinite).
	ErrInvalidParameter = errors.New("invalid seismic parameter")

	// ErrEmptyCatalog is returned when a boundary lookup runs against an empty
	// boundary catalog.
	ErrEmptyCatalog = errors.New("empty catalog")

	// ErrInvalidSimulationParameters is returned for non-positive or non-finite
	// simulation horizons and step sizes.
	ErrInvalidSimulationParameters = errors.New("invalid simulation parameters")

	// ErrInvalidRecord is returned when a catalog record fails validation.
	ErrInvalidRecord = errors.New("invalid catalog record")
)
