package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

// MultiLoader writes each batch to several destinations in order, stopping at
// the first failure. Destinations must tolerate replays since a failed batch
// is retried in full.
type MultiLoader []BatchLoader

// LoadBatch implements BatchLoader.
func (m MultiLoader) LoadBatch(ctx context.Context, events []domain.AssessmentEvent) error {
	for i, l := range m {
		if err := l.LoadBatch(ctx, events); err != nil {
			return fmt.Errorf("loader %d: %w", i, err)
		}
	}
	return nil
}
