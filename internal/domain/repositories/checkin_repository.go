package repositories

import (
	"context"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

// CheckInRepository persists triaged messages.
type CheckInRepository interface {
	Create(ctx context.Context, record *entities.CheckInRecord) error
	ListBySender(ctx context.Context, senderID string, limit int) ([]*entities.CheckInRecord, error)
}

// MetricSampleRepository persists the append-only daily metric samples.
type MetricSampleRepository interface {
	Create(ctx context.Context, sample *entities.RecoveryMetricSample) error

	// ListRecent returns at most limit samples, newest first
	ListRecent(ctx context.Context, senderID string, limit int) ([]*entities.RecoveryMetricSample, error)
}
