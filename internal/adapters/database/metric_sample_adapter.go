package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/repositories"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/postnatalcare/backend/pkg/errors"
)

// MetricSampleAdapter implements MetricSampleRepository
type MetricSampleAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMetricSampleAdapter creates a new metric sample adapter
func NewMetricSampleAdapter(client *postgres.Client) repositories.MetricSampleRepository {
	return &MetricSampleAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create appends a sample
func (a *MetricSampleAdapter) Create(ctx context.Context, sample *entities.RecoveryMetricSample) error {
	defer a.client.Observe(ctx, "metric_samples.create", time.Now())

	if sample == nil {
		return apperrors.NewInternalError("sample is nil", fmt.Errorf("sample is nil"))
	}

	query, args, err := a.db.Insert("recovery_metric_samples").Rows(goqu.Record{
		"id":           sample.ID,
		"sender_id":    sample.SenderID,
		"date":         sample.Date.Format("2006-01-02"),
		"energy_level": sample.EnergyLevel,
		"mood_score":   sample.MoodScore,
		"sleep_hours":  sample.SleepHours,
		"notes":        sql.NullString{String: sample.Notes, Valid: sample.Notes != ""},
		"created_at":   sample.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build sample insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create metric sample", err)
	}

	return nil
}

// ListRecent returns up to limit samples, newest first
func (a *MetricSampleAdapter) ListRecent(ctx context.Context, senderID string, limit int) ([]*entities.RecoveryMetricSample, error) {
	defer a.client.Observe(ctx, "metric_samples.list", time.Now())

	if limit <= 0 {
		limit = 7
	}

	query, args, err := a.db.Select("id", "sender_id", "date", "energy_level", "mood_score", "sleep_hours", "notes", "created_at").
		From("recovery_metric_samples").
		Where(goqu.Ex{"sender_id": senderID}).
		Order(goqu.I("date").Desc(), goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list metric samples", err)
	}
	defer rows.Close()

	samples := make([]*entities.RecoveryMetricSample, 0, limit)
	for rows.Next() {
		sample := &entities.RecoveryMetricSample{}
		var notes sql.NullString
		if err := rows.Scan(
			&sample.ID,
			&sample.SenderID,
			&sample.Date,
			&sample.EnergyLevel,
			&sample.MoodScore,
			&sample.SleepHours,
			&notes,
			&sample.CreatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan metric sample", err)
		}
		sample.Notes = notes.String
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate metric samples", err)
	}

	return samples, nil
}
