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

// EmergencyContactAdapter implements EmergencyContactRepository
type EmergencyContactAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewEmergencyContactAdapter creates a new emergency contact adapter
func NewEmergencyContactAdapter(client *postgres.Client) repositories.EmergencyContactRepository {
	return &EmergencyContactAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a contact
func (a *EmergencyContactAdapter) Create(ctx context.Context, contact *entities.EmergencyContact) error {
	defer a.client.Observe(ctx, "contacts.create", time.Now())

	if contact == nil {
		return apperrors.NewInternalError("contact is nil", fmt.Errorf("contact is nil"))
	}

	query, args, err := a.db.Insert("emergency_contacts").Rows(goqu.Record{
		"id":           contact.ID,
		"sender_id":    contact.SenderID,
		"name":         contact.Name,
		"phone":        contact.Phone,
		"relationship": sql.NullString{String: contact.Relationship, Valid: contact.Relationship != ""},
		"created_at":   contact.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build contact insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create emergency contact", err)
	}

	return nil
}

// ListBySender returns a sender's contacts in the order they were added
func (a *EmergencyContactAdapter) ListBySender(ctx context.Context, senderID string) ([]*entities.EmergencyContact, error) {
	defer a.client.Observe(ctx, "contacts.list", time.Now())

	query, args, err := a.db.Select("id", "sender_id", "name", "phone", "relationship", "created_at").
		From("emergency_contacts").
		Where(goqu.Ex{"sender_id": senderID}).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list emergency contacts", err)
	}
	defer rows.Close()

	contacts := make([]*entities.EmergencyContact, 0)
	for rows.Next() {
		contact := &entities.EmergencyContact{}
		var relationship sql.NullString
		if err := rows.Scan(
			&contact.ID,
			&contact.SenderID,
			&contact.Name,
			&contact.Phone,
			&relationship,
			&contact.CreatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan emergency contact", err)
		}
		contact.Relationship = relationship.String
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate emergency contacts", err)
	}

	return contacts, nil
}
