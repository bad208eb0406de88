package repositories

import (
	"context"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

// ProfileRepository defines the interface for sender profile operations
type ProfileRepository interface {
	// GetBySenderID retrieves a profile; returns a NOT_FOUND AppError when absent
	GetBySenderID(ctx context.Context, senderID string) (*entities.SenderProfile, error)

	// Upsert creates or replaces a profile keyed by sender ID
	Upsert(ctx context.Context, profile *entities.SenderProfile) error

	// SetConsent toggles the consent flag for a sender
	SetConsent(ctx context.Context, senderID string, consent bool) error
}

// EmergencyContactRepository defines the interface for emergency contact operations
type EmergencyContactRepository interface {
	Create(ctx context.Context, contact *entities.EmergencyContact) error
	ListBySender(ctx context.Context, senderID string) ([]*entities.EmergencyContact, error)
}
