package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/postnatalcare/backend/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestProfileService_UpdateProfileCreatesWhenMissing(t *testing.T) {
	profiles := new(MockProfileRepository)
	svc := NewProfileService(profiles, new(MockEmergencyContactRepository))
	svc.now = func() time.Time { return fixedNow }

	delivered := fixedNow.AddDate(0, 0, -3)
	profiles.On("GetBySenderID", mock.Anything, "s-1").Return(nil, apperrors.NewNotFoundError("missing"))
	profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(p *entities.SenderProfile) bool {
		return p.SenderID == "s-1" && p.PreferredLanguage == entities.LanguageHindi &&
			p.DeliveryType == entities.DeliveryCesarean && p.DeliveryDate != nil
	})).Return(nil)

	profile, err := svc.UpdateProfile(context.Background(), "s-1", ProfileUpdate{
		PreferredLanguage: strPtr("Hindi"),
		DeliveryType:      strPtr("c-section"),
		DeliveryDate:      &delivered,
	})
	require.NoError(t, err)
	assert.True(t, profile.ConsentGiven)
	profiles.AssertExpectations(t)
	profiles.AssertNotCalled(t, "SetConsent", mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileService_UpdateProfileChangesConsent(t *testing.T) {
	profiles := new(MockProfileRepository)
	svc := NewProfileService(profiles, new(MockEmergencyContactRepository))

	profiles.On("GetBySenderID", mock.Anything, "s-1").Return(&entities.SenderProfile{
		ID: "p-1", SenderID: "s-1", PreferredLanguage: entities.LanguageEnglish, ConsentGiven: true,
	}, nil)
	profiles.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	profiles.On("SetConsent", mock.Anything, "s-1", false).Return(nil)

	no := false
	profile, err := svc.UpdateProfile(context.Background(), "s-1", ProfileUpdate{ConsentGiven: &no})
	require.NoError(t, err)
	assert.False(t, profile.ConsentGiven)
	profiles.AssertExpectations(t)
}

func TestProfileService_ConsentWithdrawalDropsCachedInsights(t *testing.T) {
	profiles := new(MockProfileRepository)
	cache := newMemoryCache()
	svc := NewProfileService(profiles, new(MockEmergencyContactRepository)).WithCache(cache)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, providers.InsightCacheKey("s-1"), []byte(`[]`), time.Hour))

	profiles.On("GetBySenderID", mock.Anything, "s-1").Return(&entities.SenderProfile{
		ID: "p-1", SenderID: "s-1", PreferredLanguage: entities.LanguageEnglish, ConsentGiven: true,
	}, nil)
	profiles.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	profiles.On("SetConsent", mock.Anything, "s-1", false).Return(nil)

	no := false
	_, err := svc.UpdateProfile(ctx, "s-1", ProfileUpdate{ConsentGiven: &no})
	require.NoError(t, err)

	_, err = cache.Get(ctx, providers.InsightCacheKey("s-1"))
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestProfileService_UpdateProfileRejectsFutureDelivery(t *testing.T) {
	profiles := new(MockProfileRepository)
	svc := NewProfileService(profiles, new(MockEmergencyContactRepository))
	svc.now = func() time.Time { return fixedNow }
	profiles.On("GetBySenderID", mock.Anything, "s-1").Return(nil, apperrors.NewNotFoundError("missing"))

	future := fixedNow.AddDate(0, 0, 5)
	_, err := svc.UpdateProfile(context.Background(), "s-1", ProfileUpdate{DeliveryDate: &future})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	profiles.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestProfileService_AddEmergencyContact(t *testing.T) {
	profiles := new(MockProfileRepository)
	contacts := new(MockEmergencyContactRepository)
	svc := NewProfileService(profiles, contacts)

	profiles.On("GetBySenderID", mock.Anything, "s-1").Return(&entities.SenderProfile{SenderID: "s-1"}, nil)
	contacts.On("Create", mock.Anything, mock.MatchedBy(func(c *entities.EmergencyContact) bool {
		return c.Phone == "+919800000002" && c.Name == "Ravi"
	})).Return(nil)

	contact, err := svc.AddEmergencyContact(context.Background(), "s-1", ContactInput{
		Name: " Ravi ", Phone: "+91 98000 00002", Relationship: "husband",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, contact.ID)
	contacts.AssertExpectations(t)
}

func TestProfileService_AddEmergencyContactValidation(t *testing.T) {
	tests := []struct {
		name string
		in   ContactInput
	}{
		{"missing name", ContactInput{Phone: "+919800000002"}},
		{"letters in phone", ContactInput{Name: "Ravi", Phone: "call me"}},
		{"too short", ContactInput{Name: "Ravi", Phone: "12345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewProfileService(new(MockProfileRepository), new(MockEmergencyContactRepository))
			_, err := svc.AddEmergencyContact(context.Background(), "s-1", tt.in)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestProfileService_AddEmergencyContactUnknownSender(t *testing.T) {
	profiles := new(MockProfileRepository)
	contacts := new(MockEmergencyContactRepository)
	svc := NewProfileService(profiles, contacts)
	profiles.On("GetBySenderID", mock.Anything, "ghost").Return(nil, apperrors.NewNotFoundError("missing"))

	_, err := svc.AddEmergencyContact(context.Background(), "ghost", ContactInput{Name: "A", Phone: "+919800000002"})
	assert.True(t, apperrors.IsNotFound(err))
	contacts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
