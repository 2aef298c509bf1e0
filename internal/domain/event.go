package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// AssessmentMessage is the JSON body of a source-topic request. Either the
// coordinates or a place name must be present.
type AssessmentMessage struct {
	ID        string   `json:"id,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
	Magnitude *float64 `json:"magnitude,omitempty"`
	Depth     *float64 `json:"depth,omitempty"`
	Place     string   `json:"place,omitempty"`
}

// LocationInfo carries geocoding details attached to an assessment.
type LocationInfo struct {
	FormattedAddress string  `json:"formatted_address,omitempty"`
	PlaceName        string  `json:"place_name,omitempty"`
	Confidence       float64 `json:"geo_confidence,omitempty"`
	Source           string  `json:"geo_source,omitempty"` // "forward", "reverse", "original", "failed"
}

// AssessmentEvent is the record published to the sink topic and stored in
// the assessment history.
type AssessmentEvent struct {
	ID          string         `json:"id"`
	RequestID   string         `json:"request_id,omitempty"`
	Place       string         `json:"place,omitempty"`
	Geo         LocationInfo   `json:"geo,omitempty"`
	Assessment  RiskAssessment `json:"assessment"`
	ProcessedAt time.Time      `json:"processed_at"`
}
