package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseRawEvent deserializes a RawEvent's value into an AssessmentMessage.
func ParseRawEvent(raw RawEvent) (AssessmentMessage, error) {
	var msg AssessmentMessage
	if err := json.Unmarshal(raw.Value, &msg); err != nil {
		return AssessmentMessage{}, fmt.Errorf("parse raw event: %w", err)
	}
	msg.Place = strings.TrimSpace(msg.Place)
	if !msg.HasCoordinates() && msg.Place == "" {
		return AssessmentMessage{}, fmt.Errorf("parse raw event: %w: no coordinates or place", ErrInvalidCoordinate)
	}
	if msg.ID == "" && len(raw.Key) > 0 {
		msg.ID = string(raw.Key)
	}
	return msg, nil
}

// HasCoordinates reports whether both lat and lon are set.
func (m AssessmentMessage) HasCoordinates() bool {
	return m.Lat != nil && m.Lon != nil
}

// Request converts the message into an AssessmentRequest. The coordinates
// must be set, either by the producer or by geocoding.
func (m AssessmentMessage) Request() (AssessmentRequest, error) {
	if !m.HasCoordinates() {
		return AssessmentRequest{}, fmt.Errorf("%w: message %q has no coordinates", ErrInvalidCoordinate, m.ID)
	}
	p, err := NewPoint(*m.Lat, *m.Lon)
	if err != nil {
		return AssessmentRequest{}, err
	}
	return AssessmentRequest{Location: p, Magnitude: m.Magnitude, DepthKm: m.Depth}, nil
}

// NewAssessmentEvent wraps an assessment for publication, stamping a
// deterministic ID and the processing time.
func NewAssessmentEvent(msg AssessmentMessage, geo LocationInfo, a RiskAssessment) AssessmentEvent {
	return AssessmentEvent{
		ID:          generateID(a.Location, msg.Magnitude, msg.Depth),
		RequestID:   msg.ID,
		Place:       msg.Place,
		Geo:         geo,
		Assessment:  a,
		ProcessedAt: clock.Now().UTC(),
	}
}

// generateID hashes the request inputs so replays of the same request map to
// the same record downstream.
func generateID(p Point, magnitude, depth *float64) string {
	input := fmt.Sprintf("%.4f|%.4f|%s|%s", p.Lat, p.Lon, optional(magnitude), optional(depth))
	hash := sha256.Sum256([]byte(input))
	return "risk-" + hex.EncodeToString(hash[:8])
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}
