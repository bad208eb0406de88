package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/repositories"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/postnatalcare/backend/pkg/errors"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// ProfileUpdate carries the optional fields of a profile upsert.
type ProfileUpdate struct {
	PreferredLanguage *string
	DeliveryType      *string
	DeliveryDate      *time.Time
	ConsentGiven      *bool
}

// ContactInput describes a new emergency contact.
type ContactInput struct {
	Name         string
	Phone        string
	Relationship string
}

// ProfileService manages sender profiles and emergency contacts
type ProfileService struct {
	profiles repositories.ProfileRepository
	contacts repositories.EmergencyContactRepository
	cache    providers.CacheProvider
	now      func() time.Time
}

// NewProfileService creates a new profile service
func NewProfileService(profiles repositories.ProfileRepository, contacts repositories.EmergencyContactRepository) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		contacts: contacts,
		now:      time.Now,
	}
}

// WithCache lets the service drop cached insights when a sender withdraws
// consent.
func (s *ProfileService) WithCache(cache providers.CacheProvider) *ProfileService {
	s.cache = cache
	return s
}

// GetProfile returns the stored profile
func (s *ProfileService) GetProfile(ctx context.Context, senderID string) (*entities.SenderProfile, error) {
	return s.profiles.GetBySenderID(ctx, strings.TrimSpace(senderID))
}

// UpdateProfile creates the profile when missing and applies the set fields.
func (s *ProfileService) UpdateProfile(ctx context.Context, senderID string, update ProfileUpdate) (*entities.SenderProfile, error) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return nil, apperrors.NewValidationError("sender_id is required")
	}

	now := s.now().UTC()
	profile, err := s.profiles.GetBySenderID(ctx, senderID)
	switch {
	case apperrors.IsNotFound(err):
		profile = &entities.SenderProfile{
			ID:                uuid.New().String(),
			SenderID:          senderID,
			PreferredLanguage: entities.DefaultLanguage,
			ConsentGiven:      true,
			DeliveryType:      entities.DeliveryVaginal,
			CreatedAt:         now,
		}
	case err != nil:
		return nil, err
	}

	if update.PreferredLanguage != nil {
		profile.PreferredLanguage = entities.NormalizeLanguage(*update.PreferredLanguage)
	}
	if update.DeliveryType != nil {
		profile.DeliveryType = entities.ParseDeliveryType(*update.DeliveryType)
	}
	if update.DeliveryDate != nil {
		if update.DeliveryDate.After(now) {
			return nil, apperrors.NewValidationError("delivery_date cannot be in the future")
		}
		d := update.DeliveryDate.UTC()
		profile.DeliveryDate = &d
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	if update.ConsentGiven != nil && *update.ConsentGiven != profile.ConsentGiven {
		if err := s.profiles.SetConsent(ctx, senderID, *update.ConsentGiven); err != nil {
			return nil, err
		}
		profile.ConsentGiven = *update.ConsentGiven
		if !profile.ConsentGiven && s.cache != nil {
			if err := s.cache.Delete(ctx, providers.InsightCacheKey(senderID)); err != nil {
				observability.SenderLogger(ctx, senderID).Warn().Err(err).Msg("failed to drop cached insights after consent withdrawal")
			}
		}
	}

	observability.SenderLogger(ctx, senderID).Info().
		Str("language", string(profile.PreferredLanguage)).
		Str("delivery_type", string(profile.DeliveryType)).
		Msg("profile updated")
	return profile, nil
}

// AddEmergencyContact stores a contact for an existing sender.
func (s *ProfileService) AddEmergencyContact(ctx context.Context, senderID string, in ContactInput) (*entities.EmergencyContact, error) {
	senderID = strings.TrimSpace(senderID)
	name := strings.TrimSpace(in.Name)
	phone := strings.ReplaceAll(strings.TrimSpace(in.Phone), " ", "")

	if senderID == "" {
		return nil, apperrors.NewValidationError("sender_id is required")
	}
	if name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	if !phonePattern.MatchString(phone) {
		return nil, apperrors.NewValidationError("phone must be 7 to 15 digits with an optional leading +")
	}

	if _, err := s.profiles.GetBySenderID(ctx, senderID); err != nil {
		return nil, err
	}

	contact := &entities.EmergencyContact{
		ID:           uuid.New().String(),
		SenderID:     senderID,
		Name:         name,
		Phone:        phone,
		Relationship: strings.TrimSpace(in.Relationship),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, err
	}

	observability.SenderLogger(ctx, senderID).Info().Str("contact_id", contact.ID).Msg("emergency contact added")
	return contact, nil
}

// ListEmergencyContacts returns the sender's contacts
func (s *ProfileService) ListEmergencyContacts(ctx context.Context, senderID string) ([]*entities.EmergencyContact, error) {
	return s.contacts.ListBySender(ctx, strings.TrimSpace(senderID))
}
