package providers

import (
	"context"
	"errors"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

// ErrInsightProviderUnauthorized is returned when the upstream rejects our credentials.
var ErrInsightProviderUnauthorized = errors.New("insight provider unauthorized")

// InsightProvider produces supplementary guidance. Callers treat failures as soft.
type InsightProvider interface {
	Enrich(ctx context.Context, in entities.InsightContext) ([]entities.Insight, error)
}
