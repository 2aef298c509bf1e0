package domain

import (
	"context"
	"fmt"
	"log/slog"
)

// Geo sources recorded in LocationInfo.Source.
const (
	GeoSourceForward  = "forward"
	GeoSourceReverse  = "reverse"
	GeoSourceOriginal = "original"
	GeoSourceFailed   = "failed"
)

// ResolveLocation fills in missing coordinates from the message's place name
// and attaches place details to messages that already carry coordinates.
//
// A message without coordinates cannot be assessed, so a failed or empty
// forward lookup is an error. Reverse lookups are best effort: failures are
// logged and reported through LocationInfo.Source.
func ResolveLocation(ctx context.Context, msg AssessmentMessage, geocoder Geocoder, logger *slog.Logger) (AssessmentMessage, LocationInfo, error) {
	if geocoder == nil {
		if !msg.HasCoordinates() {
			return msg, LocationInfo{}, fmt.Errorf("%w: place %q given but geocoding is disabled", ErrInvalidCoordinate, msg.Place)
		}
		return msg, LocationInfo{Source: GeoSourceOriginal}, nil
	}

	if !msg.HasCoordinates() {
		result, err := geocoder.ForwardGeocode(ctx, msg.Place)
		if err != nil {
			return msg, LocationInfo{Source: GeoSourceFailed}, fmt.Errorf("forward geocode %q: %w", msg.Place, err)
		}
		if result.Lat == 0 && result.Lon == 0 {
			return msg, LocationInfo{Source: GeoSourceFailed}, fmt.Errorf("%w: no geocoding match for %q", ErrInvalidCoordinate, msg.Place)
		}
		lat, lon := result.Lat, result.Lon
		msg.Lat, msg.Lon = &lat, &lon
		return msg, LocationInfo{
			FormattedAddress: result.FormattedAddress,
			PlaceName:        result.PlaceName,
			Confidence:       result.Confidence,
			Source:           GeoSourceForward,
		}, nil
	}

	result, err := geocoder.ReverseGeocode(ctx, *msg.Lat, *msg.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"request_id", msg.ID,
			"lat", *msg.Lat,
			"lon", *msg.Lon,
			"error", err,
		)
		return msg, LocationInfo{Source: GeoSourceFailed}, nil
	}
	if result.FormattedAddress == "" {
		return msg, LocationInfo{Source: GeoSourceOriginal}, nil
	}
	return msg, LocationInfo{
		FormattedAddress: result.FormattedAddress,
		PlaceName:        result.PlaceName,
		Confidence:       result.Confidence,
		Source:           GeoSourceReverse,
	}, nil
}
