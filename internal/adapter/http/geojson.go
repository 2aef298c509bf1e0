package http

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

const geoJSONContentType = "application/geo+json"

func pointGeometry(p domain.Point) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat})
}

func volcanoFeatures(volcanoes []domain.Volcano) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(volcanoes))}
	for _, v := range volcanoes {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       v.ID,
			Geometry: pointGeometry(v.Location),
			Properties: map[string]any{
				"name":          v.Name,
				"vei":           v.VEI,
				"last_eruption": v.LastEruption,
				"status":        v.Status,
				"elevation_m":   v.ElevationM,
			},
		})
	}
	return fc
}

func boundaryFeatures(segments []domain.BoundarySegment) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(segments))}
	for _, s := range segments {
		line := geom.NewLineStringFlat(geom.XY, []float64{
			s.Start.Lon, s.Start.Lat,
			s.End.Lon, s.End.Lat,
		})
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       s.Name,
			Geometry: line,
			Properties: map[string]any{
				"name":                s.Name,
				"system":              s.System,
				"type":                s.Type,
				"plate_pair":          s.PlatePair,
				"movement_rate_cm_yr": s.MovementRate,
				"activity":            s.Activity,
				"length_km":           s.Length(),
			},
		})
	}
	return fc
}

func assessmentFeatures(events []domain.AssessmentEvent) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(events))}
	for _, ev := range events {
		a := ev.Assessment
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       ev.ID,
			Geometry: pointGeometry(a.Location),
			Properties: map[string]any{
				"request_id":       ev.RequestID,
				"place":            ev.Place,
				"score":            a.Score,
				"tier":             a.Tier,
				"nearest_boundary": a.NearestBoundary,
				"processed_at":     ev.ProcessedAt,
			},
		})
	}
	return fc
}
