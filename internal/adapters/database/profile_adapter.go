package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/repositories"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/postnatalcare/backend/pkg/errors"
)

// ProfileAdapter implements ProfileRepository
type ProfileAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProfileAdapter creates a new profile adapter
func NewProfileAdapter(client *postgres.Client) repositories.ProfileRepository {
	return &ProfileAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetBySenderID retrieves a profile by transport sender id
func (a *ProfileAdapter) GetBySenderID(ctx context.Context, senderID string) (*entities.SenderProfile, error) {
	defer a.client.Observe(ctx, "profiles.get", time.Now())

	query, args, err := a.db.Select(
		"id", "sender_id", "preferred_language", "consent_given",
		"delivery_type", "delivery_date", "created_at", "updated_at",
	).From("sender_profiles").
		Where(goqu.Ex{"sender_id": senderID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	profile := &entities.SenderProfile{}
	var language, deliveryType string
	var deliveryDate sql.NullTime

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&profile.ID,
		&profile.SenderID,
		&language,
		&profile.ConsentGiven,
		&deliveryType,
		&deliveryDate,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("profile for sender %s not found", senderID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get profile", err)
	}

	profile.PreferredLanguage = entities.NormalizeLanguage(language)
	profile.DeliveryType = entities.ParseDeliveryType(deliveryType)
	if deliveryDate.Valid {
		d := deliveryDate.Time
		profile.DeliveryDate = &d
	}

	return profile, nil
}

// Upsert inserts a profile or updates language and delivery details of an
// existing one. Consent is only changed through SetConsent.
func (a *ProfileAdapter) Upsert(ctx context.Context, profile *entities.SenderProfile) error {
	defer a.client.Observe(ctx, "profiles.upsert", time.Now())

	if profile == nil {
		return apperrors.NewInternalError("profile is nil", fmt.Errorf("profile is nil"))
	}

	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	deliveryDate := sql.NullTime{}
	if profile.DeliveryDate != nil {
		deliveryDate = sql.NullTime{Time: *profile.DeliveryDate, Valid: true}
	}

	record := goqu.Record{
		"id":                 profile.ID,
		"sender_id":          profile.SenderID,
		"preferred_language": string(profile.PreferredLanguage),
		"consent_given":      profile.ConsentGiven,
		"delivery_type":      string(profile.DeliveryType),
		"delivery_date":      deliveryDate,
		"created_at":         profile.CreatedAt,
		"updated_at":         profile.UpdatedAt,
	}

	query, args, err := a.db.Insert("sender_profiles").
		Rows(record).
		OnConflict(goqu.DoUpdate("sender_id", goqu.Record{
			"preferred_language": goqu.L("EXCLUDED.preferred_language"),
			"delivery_type":      goqu.L("EXCLUDED.delivery_type"),
			"delivery_date":      goqu.L("EXCLUDED.delivery_date"),
			"updated_at":         goqu.L("EXCLUDED.updated_at"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert profile", err)
	}

	return nil
}

// SetConsent records an opt-in or opt-out. Repeating the same value is harmless.
func (a *ProfileAdapter) SetConsent(ctx context.Context, senderID string, consent bool) error {
	defer a.client.Observe(ctx, "profiles.set_consent", time.Now())

	query, args, err := a.db.Update("sender_profiles").
		Set(goqu.Record{
			"consent_given": consent,
			"updated_at":    time.Now().UTC(),
		}).
		Where(goqu.Ex{"sender_id": senderID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update consent", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("profile for sender %s not found", senderID))
	}

	return nil
}
