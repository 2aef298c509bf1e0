package domain

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by every distance calculation.
const EarthRadiusKm = 6371.0

// degenerateSegmentKm is the arc length below which a segment is treated as a point.
const degenerateSegmentKm = 1e-9

// Point is a WGS-84 latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// NewPoint builds a Point and validates its coordinates.
func NewPoint(lat, lon float64) (Point, error) {
	p := Point{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

// Validate reports ErrInvalidCoordinate for NaN or out-of-range values.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, p.Lat)
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, p.Lon)
	}
	return nil
}

func (p Point) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", p.Lat, p.Lon)
}

// Distance returns the haversine great-circle distance between a and b in km.
func Distance(a, b Point) float64 {
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dPhi := phi2 - phi1
	dLambda := radians(b.Lon - a.Lon)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DistanceToSegment returns the minimum distance in km from p to the
// great-circle arc between start and end. When the perpendicular projection of
// p falls outside the arc the nearer endpoint is used. A zero-length segment
// degrades to point distance.
func DistanceToSegment(p, start, end Point) float64 {
	segLen := Distance(start, end)
	toStart := Distance(start, p)
	if segLen < degenerateSegmentKm {
		return toStart
	}
	toEnd := Distance(end, p)
	nearestEnd := math.Min(toStart, toEnd)
	if toStart == 0 {
		return 0
	}

	delta := bearing(start, p) - bearing(start, end)
	if math.Cos(delta) < 0 {
		// p lies behind the start of the arc.
		return nearestEnd
	}

	angular := toStart / EarthRadiusKm
	crossTrack := math.Asin(clampUnit(math.Sin(angular) * math.Sin(delta)))
	alongTrack := math.Acos(clampUnit(math.Cos(angular)/math.Cos(crossTrack))) * EarthRadiusKm
	if alongTrack > segLen {
		return nearestEnd
	}

	return math.Min(math.Abs(crossTrack)*EarthRadiusKm, nearestEnd)
}

// Bearing returns the initial great-circle bearing from a to b in degrees, [0,360).
func Bearing(a, b Point) float64 {
	deg := bearing(a, b) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// Midpoint returns the great-circle midpoint between a and b.
func Midpoint(a, b Point) Point {
	phi1, lambda1 := radians(a.Lat), radians(a.Lon)
	phi2 := radians(b.Lat)
	dLambda := radians(b.Lon - a.Lon)

	bx := math.Cos(phi2) * math.Cos(dLambda)
	by := math.Cos(phi2) * math.Sin(dLambda)
	phi := math.Atan2(math.Sin(phi1)+math.Sin(phi2), math.Sqrt((math.Cos(phi1)+bx)*(math.Cos(phi1)+bx)+by*by))
	lambda := lambda1 + math.Atan2(by, math.Cos(phi1)+bx)

	return Point{Lat: degrees(phi), Lon: normalizeLon(degrees(lambda))}
}

func bearing(a, b Point) float64 {
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dLambda := radians(b.Lon - a.Lon)
	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	return math.Atan2(y, x)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// normalizeLon wraps a longitude into [-180, 180].
func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
