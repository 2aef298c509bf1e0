package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

// AssessmentTransformer implements Transformer by resolving the request's
// location and scoring it with the risk engine.
type AssessmentTransformer struct {
	engine   *domain.Engine
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates an AssessmentTransformer. Pass a nil geocoder to
// disable place-name resolution and reverse-geocoded details.
func NewTransformer(engine *domain.Engine, geocoder domain.Geocoder, logger *slog.Logger) *AssessmentTransformer {
	return &AssessmentTransformer{
		engine:   engine,
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *AssessmentTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.AssessmentEvent, error) {
	msg, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.AssessmentEvent{}, err
	}

	msg, geo, err := domain.ResolveLocation(ctx, msg, t.geocoder, t.logger)
	if err != nil {
		return domain.AssessmentEvent{}, err
	}

	req, err := msg.Request()
	if err != nil {
		return domain.AssessmentEvent{}, err
	}

	a, err := t.engine.Assess(req)
	if err != nil {
		return domain.AssessmentEvent{}, err
	}

	return domain.NewAssessmentEvent(msg, geo, a), nil
}
