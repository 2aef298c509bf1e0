// Package domain is the geological risk engine: it scores a point by its
// proximity to plate boundaries, the tectonic stress those boundaries carry,
// and the influence of nearby volcanoes, and simulates stress accumulation
// along boundary segments over a multi-decade horizon.
//
// Everything in this package is pure computation over an immutable [Catalog].
// Catalogs are loaded once by the catalog package and passed explicitly to
// [NewEngine] and [Simulate]; nothing here reads files, the network, or
// global model state.
//
// # Geodesy
//
// Distances are great-circle distances on a sphere of radius 6371 km
// (haversine). [DistanceToSegment] uses cross-track and along-track distance
// to the arc between two endpoints and falls back to the nearer endpoint when
// the perpendicular foot lies outside the arc. Zero-length segments degrade to
// point distance.
//
// # Plate Boundaries
//
// Boundaries are polylines split into [BoundarySegment] records. The nearest
// segment wins, and ties resolve to the first segment in catalog order.
//
//	stress index   = rate(cm/yr) × multiplier × 1000 / max(d, 1 km)
//	multiplier     = convergent 1.5 | transform 1.2 | divergent 0.8
//	segment stress = stress index × segment activity
//	activity level = (1 - d/1000)²  for d < 1000 km, else 0
//
// # Volcanic Influence
//
// Each volcano within the radius (default 500 km) contributes
//
//	(VEI/8) × recency × status × (1 - d/radius)
//
// where recency is 1 for eruptions within the last century, 100/yearsSince
// beyond that, and 0.05 for undated or very old eruptions; status weighs
// active 1.0, dormant 0.5, extinct 0.1. The sum is divided by 3 and capped at
// 1. Years are calendar years, negative for BCE.
//
// # Composite Score
//
// Five factors in [0,1] are weighted and summed:
//
//	magnitude            m / 10                  0.25
//	shallow depth        max(0, 1 - depth/50)    0.20
//	boundary proximity   1 - min(1, d/500)       0.20
//	tectonic stress      min(1, stress/50)       0.20
//	volcanic activity    volcanic risk index     0.15
//
// Tiers are half-open intervals: LOW < 0.3 ≤ MODERATE < 0.6 ≤ HIGH < 0.85 ≤
// VERY_HIGH. Magnitudes outside [0,10] and depths outside [0,700] km are
// clamped and listed in [RiskAssessment.Clamped]. Missing parameters score
// zero unless the engine estimates them ([WithParameterEstimation]).
//
// # Stress Simulation
//
// [Simulate] adds rate × Δt × multiplier to every segment per step. Reaching
// the release threshold (default 300) emits a [ReleaseEvent] and resets the
// segment to zero. The reset is an idealized periodic release, a modelling
// simplification rather than a physical claim.
//
// # ID Generation
//
// Assessment IDs are deterministic SHA-256 hashes of lat|lon|magnitude|depth,
// so replayed requests map to the same stored record. See [generateID].
package domain
