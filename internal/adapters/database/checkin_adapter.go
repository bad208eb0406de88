package database

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/repositories"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/postnatalcare/backend/pkg/errors"
)

// CheckInAdapter implements CheckInRepository
type CheckInAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCheckInAdapter creates a new check-in adapter
func NewCheckInAdapter(client *postgres.Client) repositories.CheckInRepository {
	return &CheckInAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a check-in record
func (a *CheckInAdapter) Create(ctx context.Context, record *entities.CheckInRecord) error {
	defer a.client.Observe(ctx, "checkins.create", time.Now())

	if record == nil {
		return apperrors.NewInternalError("check-in is nil", fmt.Errorf("check-in is nil"))
	}

	tags := record.Tags
	if tags == nil {
		tags = []string{}
	}

	query, args, err := a.db.Insert("check_ins").Rows(goqu.Record{
		"id":         record.ID,
		"sender_id":  record.SenderID,
		"date":       record.Date.Format("2006-01-02"),
		"tags":       pq.Array(tags),
		"risk_tier":  string(record.RiskTier),
		"raw_text":   record.RawText,
		"created_at": record.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build check-in insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create check-in", err)
	}

	return nil
}

// ListBySender returns the newest check-ins for a sender
func (a *CheckInAdapter) ListBySender(ctx context.Context, senderID string, limit int) ([]*entities.CheckInRecord, error) {
	defer a.client.Observe(ctx, "checkins.list", time.Now())

	if limit <= 0 {
		limit = 20
	}

	query, args, err := a.db.Select("id", "sender_id", "date", "tags", "risk_tier", "raw_text", "created_at").
		From("check_ins").
		Where(goqu.Ex{"sender_id": senderID}).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list check-ins", err)
	}
	defer rows.Close()

	records := make([]*entities.CheckInRecord, 0)
	for rows.Next() {
		record := &entities.CheckInRecord{}
		var tier string
		if err := rows.Scan(
			&record.ID,
			&record.SenderID,
			&record.Date,
			pq.Array(&record.Tags),
			&tier,
			&record.RawText,
			&record.CreatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan check-in", err)
		}
		record.RiskTier = entities.RiskTier(tier)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate check-ins", err)
	}

	return records, nil
}
