package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/zatekoja/postnatalcare/backend/internal/application/triage"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/repositories"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/postnatalcare/backend/pkg/errors"
)

// TriageServiceDeps groups the collaborators of TriageService. EventBus,
// Notifier, Cache and Metrics may be nil.
type TriageServiceDeps struct {
	Engine            *triage.Engine
	Profiles          repositories.ProfileRepository
	CheckIns          repositories.CheckInRepository
	Notifier          EmergencyNotifier
	EventBus          providers.EventBus
	Cache             providers.CacheProvider
	Metrics           *observability.Metrics
	DefaultLanguage   entities.Language
	SideEffectTimeout time.Duration
}

// TriageService answers inbound messages. The reply is computed
// synchronously from the engine; persistence, notification and event
// publishing run in the background and never change the reply.
type TriageService struct {
	engine          *triage.Engine
	profiles        repositories.ProfileRepository
	checkIns        repositories.CheckInRepository
	notifier        EmergencyNotifier
	eventBus        providers.EventBus
	cache           providers.CacheProvider
	metrics         *observability.Metrics
	defaultLanguage entities.Language
	runner          *backgroundRunner
	now             func() time.Time
}

// NewTriageService creates a new triage service
func NewTriageService(deps TriageServiceDeps) *TriageService {
	lang := deps.DefaultLanguage
	if lang == "" {
		lang = deps.Engine.Rules().DefaultLanguage()
	}
	return &TriageService{
		engine:          deps.Engine,
		profiles:        deps.Profiles,
		checkIns:        deps.CheckIns,
		notifier:        deps.Notifier,
		eventBus:        deps.EventBus,
		cache:           deps.Cache,
		metrics:         deps.Metrics,
		defaultLanguage: lang,
		runner:          newBackgroundRunner(deps.SideEffectTimeout, deps.Metrics),
		now:             time.Now,
	}
}

// HandleInbound produces the reply for one inbound message.
func (s *TriageService) HandleInbound(ctx context.Context, msg entities.InboundMessage) (*entities.TriageResult, error) {
	senderID := strings.TrimSpace(msg.SenderID)
	if senderID == "" {
		return nil, apperrors.NewValidationError("sender_id is required")
	}
	msg.SenderID = senderID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now().UTC()
	}

	ctx, span := observability.StartSpan(ctx, "TriageService.HandleInbound")
	defer span.End()
	logger := observability.SenderLogger(ctx, senderID)

	profile, err := s.profiles.GetBySenderID(ctx, senderID)
	switch {
	case apperrors.IsNotFound(err):
		return s.onboard(ctx, msg), nil
	case err != nil:
		logger.Warn().Err(err).Msg("profile unavailable, using defaults")
		profile = &entities.SenderProfile{
			SenderID:          senderID,
			PreferredLanguage: s.detectLanguage(msg.Text),
		}
	}

	lang := s.resolveLanguage(profile.PreferredLanguage)

	if cmd := s.engine.Interpret(msg.Text); cmd != triage.CommandNone {
		return s.handleCommand(ctx, senderID, cmd, lang), nil
	}

	assessment := s.engine.Assess(msg.Text, lang)
	result := &entities.TriageResult{
		Kind:        entities.ResponseKindTriage,
		RiskTier:    assessment.Tier,
		MatchedTags: assessment.Tags,
		Message:     assessment.Message,
		Language:    lang,
	}
	observability.RecordTriage(ctx, s.metrics, string(result.RiskTier), string(result.Kind))
	logger.Info().
		Str("risk_tier", string(result.RiskTier)).
		Strs("tags", entities.TagStrings(result.MatchedTags)).
		Msg("message triaged")

	s.saveCheckIn(ctx, msg, assessment)
	if assessment.Tier == entities.RiskTierRed {
		s.notifyContacts(ctx, profile, assessment.Tags, lang)
	}
	s.publish(ctx, profile, &entities.CareEvent{
		ID:           uuid.New().String(),
		Type:         entities.CareEventTriageCompleted,
		SenderID:     senderID,
		RiskTier:     assessment.Tier,
		Tags:         assessment.Tags,
		DeliveryType: profile.DeliveryType,
		Language:     lang,
		OccurredAt:   msg.Timestamp,
	})

	return result, nil
}

// IsUrgent reports whether text alone classifies as red tier. Callers use it
// to exempt danger signs from throttling.
func (s *TriageService) IsUrgent(text string) bool {
	return s.engine.Tier(text) == entities.RiskTierRed
}

// Drain waits for background side effects to finish.
func (s *TriageService) Drain(ctx context.Context) error {
	return s.runner.Drain(ctx)
}

func (s *TriageService) onboard(ctx context.Context, msg entities.InboundMessage) *entities.TriageResult {
	lang := s.detectLanguage(msg.Text)
	now := s.now().UTC()
	profile := &entities.SenderProfile{
		ID:                uuid.New().String(),
		SenderID:          msg.SenderID,
		PreferredLanguage: lang,
		ConsentGiven:      true,
		DeliveryType:      entities.DeliveryVaginal,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.runner.Go(ctx, "create_profile", func(ctx context.Context) error {
		return s.profiles.Upsert(ctx, profile)
	})

	observability.RecordTriage(ctx, s.metrics, "none", string(entities.ResponseKindOnboarding))
	observability.SenderLogger(ctx, msg.SenderID).Info().Str("language", string(lang)).Msg("new sender onboarded")

	return &entities.TriageResult{
		Kind:        entities.ResponseKindOnboarding,
		RiskTier:    entities.RiskTierGreen,
		MatchedTags: []entities.SymptomTag{},
		Message:     s.engine.Onboarding(lang),
		Language:    lang,
	}
}

func (s *TriageService) handleCommand(ctx context.Context, senderID string, cmd triage.Command, lang entities.Language) *entities.TriageResult {
	switch cmd {
	case triage.CommandStop:
		s.runner.Go(ctx, "consent_opt_out", func(ctx context.Context) error {
			return errors.Join(
				s.profiles.SetConsent(ctx, senderID, false),
				s.dropInsights(ctx, senderID),
			)
		})
	case triage.CommandStart:
		s.runner.Go(ctx, "consent_opt_in", func(ctx context.Context) error {
			return s.profiles.SetConsent(ctx, senderID, true)
		})
	}

	observability.RecordTriage(ctx, s.metrics, "none", string(entities.ResponseKindCommand))
	observability.SenderLogger(ctx, senderID).Info().Str("command", string(cmd)).Msg("command handled")

	return &entities.TriageResult{
		Kind:        entities.ResponseKindCommand,
		RiskTier:    entities.RiskTierGreen,
		MatchedTags: []entities.SymptomTag{},
		Message:     s.engine.CommandReply(cmd, lang),
		Language:    lang,
	}
}

func (s *TriageService) saveCheckIn(ctx context.Context, msg entities.InboundMessage, assessment triage.Assessment) {
	if s.checkIns == nil {
		return
	}
	record := &entities.CheckInRecord{
		ID:        uuid.New().String(),
		SenderID:  msg.SenderID,
		Date:      msg.Timestamp,
		Tags:      entities.TagStrings(assessment.Tags),
		RiskTier:  assessment.Tier,
		RawText:   msg.Text,
		CreatedAt: s.now().UTC(),
	}
	s.runner.Go(ctx, "save_check_in", func(ctx context.Context) error {
		return s.checkIns.Create(ctx, record)
	})
}

func (s *TriageService) notifyContacts(ctx context.Context, profile *entities.SenderProfile, tags []entities.SymptomTag, lang entities.Language) {
	if s.notifier == nil {
		return
	}
	if !profile.ConsentGiven {
		observability.SenderLogger(ctx, profile.SenderID).Info().Msg("red tier without consent, emergency contacts not notified")
		return
	}
	s.runner.Go(ctx, "notify_emergency_contacts", func(ctx context.Context) error {
		return s.notifier.NotifyContacts(ctx, profile.SenderID, tags, lang)
	})
}

// publish emits a care event for insight enrichment. Senders without consent
// are never forwarded to the insight provider.
func (s *TriageService) publish(ctx context.Context, profile *entities.SenderProfile, event *entities.CareEvent) {
	if s.eventBus == nil || !profile.ConsentGiven {
		return
	}
	s.runner.Go(ctx, "publish_event", func(ctx context.Context) error {
		return s.eventBus.Publish(ctx, providers.EventChannelCare, event)
	})
}

func (s *TriageService) dropInsights(ctx context.Context, senderID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, providers.InsightCacheKey(senderID))
}

func (s *TriageService) resolveLanguage(lang entities.Language) entities.Language {
	if lang != "" && s.engine.Rules().SupportsLanguage(lang) {
		return lang
	}
	return s.defaultLanguage
}

// detectLanguage picks Hindi for text written in Devanagari.
func (s *TriageService) detectLanguage(text string) entities.Language {
	for _, r := range text {
		if unicode.Is(unicode.Devanagari, r) {
			return entities.LanguageHindi
		}
	}
	return s.defaultLanguage
}
