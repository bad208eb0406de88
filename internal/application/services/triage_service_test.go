package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/postnatalcare/backend/pkg/errors"
)

type triageFixture struct {
	service  *TriageService
	profiles *MockProfileRepository
	checkIns *MockCheckInRepository
	notifier *MockNotifier
	bus      *recordingEventBus
	cache    *memoryCache
}

func newTriageFixture() *triageFixture {
	f := &triageFixture{
		profiles: new(MockProfileRepository),
		checkIns: new(MockCheckInRepository),
		notifier: new(MockNotifier),
		bus:      &recordingEventBus{},
		cache:    newMemoryCache(),
	}
	f.service = NewTriageService(TriageServiceDeps{
		Engine:            newTestTriageEngine(),
		Profiles:          f.profiles,
		CheckIns:          f.checkIns,
		Notifier:          f.notifier,
		EventBus:          f.bus,
		Cache:             f.cache,
		SideEffectTimeout: time.Second,
	})
	return f
}

func (f *triageFixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.service.Drain(ctx))
}

func existingProfile(lang entities.Language, consent bool) *entities.SenderProfile {
	return &entities.SenderProfile{
		ID:                "p-1",
		SenderID:          "s-1",
		PreferredLanguage: lang,
		ConsentGiven:      consent,
		DeliveryType:      entities.DeliveryVaginal,
	}
}

func TestTriageService_RedTierNotifiesAndRecords(t *testing.T) {
	f := newTriageFixture()
	f.profiles.On("GetBySenderID", mock.Anything, "s-1").Return(existingProfile(entities.LanguageEnglish, true), nil)
	f.checkIns.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.CheckInRecord) bool {
		return r.SenderID == "s-1" && r.RiskTier == entities.RiskTierRed &&
			assert.ObjectsAreEqual([]string{"bleeding", "fever"}, r.Tags) &&
			r.RawText == "bleeding and fever"
	})).Return(nil)
	f.notifier.On("NotifyContacts", mock.Anything, "s-1",
		[]entities.SymptomTag{entities.SymptomBleeding, entities.SymptomFever}, entities.LanguageEnglish).Return(nil)

	result, err := f.service.HandleInbound(context.Background(), entities.InboundMessage{SenderID: "s-1", Text: "bleeding and fever"})
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, entities.ResponseKindTriage, result.Kind)
	assert.Equal(t, entities.RiskTierRed, result.RiskTier)
	assert.Contains(t, result.Message, "bleeding")
	assert.NotContains(t, result.Message, "What can help")

	f.checkIns.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	events := f.bus.Events()
	require.Len(t, events, 1)
	assert.Equal(t, entities.CareEventTriageCompleted, events[0].Type)
	assert.Equal(t, entities.RiskTierRed, events[0].RiskTier)
}

func TestTriageService_SideEffectFailuresDoNotChangeReply(t *testing.T) {
	f := newTriageFixture()
	f.bus.failWith = errors.New("redis down")
	f.profiles.On("GetBySenderID", mock.Anything, "s-1").Return(existingProfile(entities.LanguageEnglish, true), nil)
	f.checkIns.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
	f.notifier.On("NotifyContacts", mock.Anything, "s-1", mock.Anything, mock.Anything).Return(errors.New("send failed"))

	result, err := f.service.HandleInbound(context.Background(), entities.InboundMessage{SenderID: "s-1", Text: "fever since morning"})
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, entities.RiskTierRed, result.RiskTier)
	assert.Contains(t, result.Message, "URGENT")
	f.notifier.AssertExpectations(t)
}

func TestTriageService_RedTierWithoutConsentSkipsNotification(t *testing.T) {
	f := newTriageFixture()
	f.profiles.On("GetBySenderID", mock.Anything, "s-1").Return(existingProfile(entities.LanguageEnglish, false), nil)
	f.checkIns.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.HandleInbound(context.Background(), entities.InboundMessage{SenderID: "s-1", Text: "heavy bleeding"})
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, entities.RiskTierRed, result.RiskTier)
	f.notifier.AssertNotCalled(t, "NotifyContacts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTriageService_WithoutConsentPublishesNoEvents(t *testing.T) {
	f := newTriageFixture()
	f.profiles.On("GetBySenderID", mock.Anything, "s-1").Return(existingProfile(entities.LanguageEnglish, false), nil)
	f.checkIns.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.HandleInbound(context.Background(), entities.InboundMessage{SenderID: "s-1", Text: "a bit of cramp"})
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, entities.RiskTierYellow, result.RiskTier)
	assert.Empty(t, f.bus.Events())
	f.checkIns.AssertExpectations(t)
}

func TestTriageService_StopDropsCachedInsights(t *testing.T) {
	f := newTriageFixture()
	key := providers.InsightCacheKey("s-1")
	require.NoError(t, f.cache.Set(context.Background(), key, []byte(`[{"title":"x"}]`), time.Hour))
	f.profiles.On("GetBySenderID", mock.Anything, "s-1").Return(existingProfile(entities.LanguageEnglish, true), nil)
	f.profiles.On("SetConsent", mock.Anything, "s-1", false).Return(nil)

	result, err := f.service.HandleInbound(context.Background(), entities.InboundMessage{SenderID: "s-1", Text: "stop"})
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, entities.ResponseKindCommand, result.Kind)
	assert.False(t, f.cache.has(key))
	f.profiles.AssertExpectations(t)
}

func TestTriageService_StopDropsInsightsWhenConsentWriteFails(t *testing.T) {
	f := newTriageFixture()
	key := providers.InsightCacheKey("s-1")
	require.NoError(t, f.cache.Set(context.Background(), key, []byte(`[]`), time.Hour))
	f.profiles.On("GetBySenderID", mock.Anything, "s-1").Return(existingProfile(entities.LanguageEnglish, true), nil)
	f.profiles.On("SetConsent", mock.Anything, "s-1", false).Return(errors.New("db down"))

	_, err := f.service.HandleInbound(context.Background(), entities.InboundMessage{SenderID: "s-1", Text: "STOP"})
	require.NoError(t, err)
	f.drain(t)

	assert.False(t, f.cache.has(key))
}

func TestTriageService_UnknownSenderIsOnboarded(t *testing.T) {
	f := newTriageFixture()
	f.profiles.On("GetBySenderID", mock.Anything, "new").Return(nil, apperrors.NewNotFoundError("missing"))
	f.profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(p *entities.SenderProfile) bool {
		return p.SenderID == "new" && p.ConsentGiven && p.PreferredLanguage == entities.LanguageEnglish
	})).Return(nil)

	result, err := f.service.HandleInbound(context.Background(), entities.InboundMessage{SenderID: "new", Text: "bleeding a lot"})
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, entities.ResponseKindOnboarding, result.Kind)
	assert.Contains(t, result.Message, "Welcome to Mama Care")
	assert.Empty(t, result.MatchedTags)
	f.profiles.AssertExpectations(t)
	f.checkIns.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "NotifyContacts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.bus.Events())
}

func TestTriageService_OnboardingDetectsDevanagari(t *testing.T) {
	f := newTriageFixture()
	f.profiles.On("GetBySenderID", mock.Anything, "new").Return(nil, apperrors.NewNotFoundError("missing"))
	f.profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(p *entities.SenderProfile) bool {
		return p.PreferredLanguage == entities.LanguageHindi
	})).Return(nil)

	result, err := f.service.HandleInbound(context.Background(), entities.InboundMessage{SenderID: "new", Text: "नमस्ते"})
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, entities.LanguageHindi, result.Language)
	assert.Contains(t, result.Message, "मामा केयर")
	f.profiles.AssertExpectations(t)
}

func TestTriageService_ProfileReadFailureUsesDefaults(t *testing.T) {
	f := newTriageFixture()
	f.profiles.On("GetBySenderID", mock.Anything, "s-1").Return(nil, apperrors.NewInternalError("db down", errors.New("timeout")))
	f.checkIns.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.HandleInbound(context.Background(), entities.InboundMessage{SenderID: "s-1", Text: "breast pain and fever"})
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, entities.ResponseKindTriage, result.Kind)
	assert.Equal(t, entities.RiskTierRed, result.RiskTier)
	assert.Equal(t, entities.LanguageEnglish, result.Language)
	f.notifier.AssertNotCalled(t, "NotifyContacts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTriageService_Commands(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		consent     *bool
		wantMessage string
	}{
		{"stop opts out", "STOP", boolPtr(false), "unsubscribed"},
		{"start opts in", "start please", boolPtr(true), "Welcome back!"},
		{"help bypasses triage", "help I have fever", nil, "Send us a short message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTriageFixture()
			f.profiles.On("GetBySenderID", mock.Anything, "s-1").Return(existingProfile(entities.LanguageEnglish, true), nil)
			if tt.consent != nil {
				f.profiles.On("SetConsent", mock.Anything, "s-1", *tt.consent).Return(nil)
			}

			result, err := f.service.HandleInbound(context.Background(), entities.InboundMessage{SenderID: "s-1", Text: tt.text})
			require.NoError(t, err)
			f.drain(t)

			assert.Equal(t, entities.ResponseKindCommand, result.Kind)
			assert.Contains(t, result.Message, tt.wantMessage)
			f.profiles.AssertExpectations(t)
			if tt.consent == nil {
				f.profiles.AssertNotCalled(t, "SetConsent", mock.Anything, mock.Anything, mock.Anything)
			}
			f.checkIns.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestTriageService_HindiProfile(t *testing.T) {
	f := newTriageFixture()
	f.profiles.On("GetBySenderID", mock.Anything, "s-1").Return(existingProfile(entities.LanguageHindi, true), nil)
	f.checkIns.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.HandleInbound(context.Background(), entities.InboundMessage{SenderID: "s-1", Text: "मुझे थकान है"})
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, entities.RiskTierGreen, result.RiskTier)
	assert.Equal(t, entities.LanguageHindi, result.Language)
	assert.Equal(t, []entities.SymptomTag{entities.SymptomTired}, result.MatchedTags)
	assert.Contains(t, result.Message, "आज का सुझाव")
}

func TestTriageService_RequiresSender(t *testing.T) {
	f := newTriageFixture()

	_, err := f.service.HandleInbound(context.Background(), entities.InboundMessage{SenderID: "  ", Text: "fever"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestTriageService_CancelledRequestStillPersists(t *testing.T) {
	f := newTriageFixture()
	f.profiles.On("GetBySenderID", mock.Anything, "s-1").Return(existingProfile(entities.LanguageEnglish, true), nil)
	f.checkIns.On("Create", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := f.service.HandleInbound(ctx, entities.InboundMessage{SenderID: "s-1", Text: "a bit of cramp"})
	cancel()
	require.NoError(t, err)
	f.drain(t)

	f.checkIns.AssertExpectations(t)
}

func boolPtr(b bool) *bool {
	return &b
}

func TestTriageService_IsUrgent(t *testing.T) {
	f := newTriageFixture()

	assert.True(t, f.service.IsUrgent("heavy bleeding"))
	assert.True(t, f.service.IsUrgent("मुझे बुखार है"))
	assert.False(t, f.service.IsUrgent("a bit of cramp"))
	assert.False(t, f.service.IsUrgent("ok"))
}
