package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/postnatalcare/backend/internal/application/recovery"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/repositories"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/postnatalcare/backend/pkg/errors"
)

// RecoveryServiceDeps groups the collaborators of RecoveryService. Cache,
// EventBus and Metrics may be nil.
type RecoveryServiceDeps struct {
	Engine            *recovery.Engine
	Profiles          repositories.ProfileRepository
	Samples           repositories.MetricSampleRepository
	Cache             providers.CacheProvider
	EventBus          providers.EventBus
	Metrics           *observability.Metrics
	SideEffectTimeout time.Duration
}

// RecoveryService assembles recovery snapshots and records metric samples.
type RecoveryService struct {
	engine   *recovery.Engine
	profiles repositories.ProfileRepository
	samples  repositories.MetricSampleRepository
	cache    providers.CacheProvider
	eventBus providers.EventBus
	metrics  *observability.Metrics
	runner   *backgroundRunner
	now      func() time.Time
}

// NewRecoveryService creates a new recovery service
func NewRecoveryService(deps RecoveryServiceDeps) *RecoveryService {
	return &RecoveryService{
		engine:   deps.Engine,
		profiles: deps.Profiles,
		samples:  deps.Samples,
		cache:    deps.Cache,
		eventBus: deps.EventBus,
		metrics:  deps.Metrics,
		runner:   newBackgroundRunner(deps.SideEffectTimeout, deps.Metrics),
		now:      time.Now,
	}
}

// MetricSampleInput is a self-reported daily check-in. Date defaults to today.
type MetricSampleInput struct {
	Date        *time.Time
	EnergyLevel int
	MoodScore   int
	SleepHours  float64
	Notes       string
}

// Snapshot recomputes the recovery picture for a sender. Read failures fall
// back to defaults so a snapshot is always produced.
func (s *RecoveryService) Snapshot(ctx context.Context, senderID string) (*entities.RecoverySnapshot, error) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return nil, apperrors.NewValidationError("sender_id is required")
	}

	ctx, span := observability.StartSpan(ctx, "RecoveryService.Snapshot")
	defer span.End()
	logger := observability.SenderLogger(ctx, senderID)

	deliveryType := entities.DeliveryVaginal
	var deliveryDate *time.Time
	var lang entities.Language
	consent := false

	profile, err := s.profiles.GetBySenderID(ctx, senderID)
	switch {
	case err == nil:
		deliveryType = profile.DeliveryType
		deliveryDate = profile.DeliveryDate
		lang = profile.PreferredLanguage
		consent = profile.ConsentGiven
	case apperrors.IsNotFound(err):
		logger.Debug().Msg("no profile, using default delivery context")
	default:
		logger.Warn().Err(err).Msg("profile unavailable, using default delivery context")
	}

	window := s.engine.Thresholds().SampleWindow
	samples, err := s.samples.ListRecent(ctx, senderID, window)
	if err != nil {
		logger.Warn().Err(err).Msg("metric samples unavailable, computing without samples")
		samples = nil
	}

	snapshot := s.engine.Compute(recovery.Input{
		SenderID:     senderID,
		DeliveryType: deliveryType,
		ElapsedDays:  recovery.ElapsedDays(deliveryDate, s.now()),
		Samples:      samples,
	})
	snapshot.Insights = s.cachedInsights(ctx, senderID)

	if s.eventBus != nil && consent {
		event := &entities.CareEvent{
			ID:           uuid.New().String(),
			Type:         entities.CareEventSnapshotRequested,
			SenderID:     senderID,
			Phase:        snapshot.Phase,
			Percent:      snapshot.Percent,
			DeliveryType: snapshot.DeliveryType,
			Language:     lang,
			OccurredAt:   s.now().UTC(),
		}
		s.runner.Go(ctx, "publish_event", func(ctx context.Context) error {
			return s.eventBus.Publish(ctx, providers.EventChannelCare, event)
		})
	}

	return snapshot, nil
}

// RecordMetricSample validates and appends a sample.
func (s *RecoveryService) RecordMetricSample(ctx context.Context, senderID string, in MetricSampleInput) (*entities.RecoveryMetricSample, error) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return nil, apperrors.NewValidationError("sender_id is required")
	}
	if err := validateMetricSample(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	date := now
	if in.Date != nil {
		if in.Date.After(now) {
			return nil, apperrors.NewFieldError("date", "cannot be in the future")
		}
		date = in.Date.UTC()
	}

	sample := &entities.RecoveryMetricSample{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		Date:        time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		EnergyLevel: in.EnergyLevel,
		MoodScore:   in.MoodScore,
		SleepHours:  in.SleepHours,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
	}
	if err := s.samples.Create(ctx, sample); err != nil {
		return nil, err
	}

	observability.SenderLogger(ctx, senderID).Info().
		Int("energy", sample.EnergyLevel).
		Int("mood", sample.MoodScore).
		Float64("sleep_hours", sample.SleepHours).
		Msg("metric sample recorded")
	return sample, nil
}

// Drain waits for background side effects to finish.
func (s *RecoveryService) Drain(ctx context.Context) error {
	return s.runner.Drain(ctx)
}

func (s *RecoveryService) cachedInsights(ctx context.Context, senderID string) []entities.Insight {
	if s.cache == nil {
		return nil
	}
	key := providers.InsightCacheKey(senderID)
	data, err := s.cache.Get(ctx, key)
	if err != nil || len(data) == 0 {
		if err != nil && !errors.Is(err, providers.ErrCacheMiss) {
			observability.SenderLogger(ctx, senderID).Warn().Err(err).Msg("insight cache read failed")
		}
		observability.RecordCacheMiss(ctx, s.metrics, "insights")
		return nil
	}

	var insights []entities.Insight
	if err := json.Unmarshal(data, &insights); err != nil {
		observability.SenderLogger(ctx, senderID).Warn().Err(err).Msg("discarding malformed cached insights")
		return nil
	}
	observability.RecordCacheHit(ctx, s.metrics, "insights")
	return insights
}

func validateMetricSample(in MetricSampleInput) error {
	if in.EnergyLevel < 1 || in.EnergyLevel > 10 {
		return apperrors.NewFieldError("energy_level", "must be between 1 and 10")
	}
	if in.MoodScore < 1 || in.MoodScore > 10 {
		return apperrors.NewFieldError("mood_score", "must be between 1 and 10")
	}
	if math.IsNaN(in.SleepHours) || in.SleepHours < 0 || in.SleepHours > 24 {
		return apperrors.NewFieldError("sleep_hours", "must be between 0 and 24")
	}
	return nil
}
