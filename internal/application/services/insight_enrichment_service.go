package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
)

const enrichmentTimeout = 30 * time.Second

// InsightEnrichmentService consumes care events and caches provider insights
// for the next snapshot read.
type InsightEnrichmentService struct {
	provider providers.InsightProvider
	cache    providers.CacheProvider
	eventBus providers.EventBus
	metrics  *observability.Metrics
	ttl      time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewInsightEnrichmentService creates a new enrichment service
func NewInsightEnrichmentService(
	provider providers.InsightProvider,
	cache providers.CacheProvider,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	ttl time.Duration,
) *InsightEnrichmentService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &InsightEnrichmentService{
		provider: provider,
		cache:    cache,
		eventBus: eventBus,
		metrics:  metrics,
		ttl:      ttl,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for care events
func (s *InsightEnrichmentService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelCare)
	if err != nil {
		return fmt.Errorf("failed to subscribe to care events: %w", err)
	}

	s.wg.Add(1)
	go s.processEvents(eventChan)
	observability.GetLogger().Info().Str("provider", s.providerName()).Msg("insight enrichment service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit
func (s *InsightEnrichmentService) Stop() {
	s.cancel()
	s.wg.Wait()
	observability.GetLogger().Info().Msg("insight enrichment service stopped")
}

func (s *InsightEnrichmentService) processEvents(eventChan <-chan *entities.CareEvent) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			if err := s.HandleEvent(s.ctx, event); err != nil {
				observability.SenderLogger(s.ctx, event.SenderID).Warn().Err(err).
					Str("event_id", event.ID).
					Msg("insight enrichment failed")
			}
		}
	}
}

// HandleEvent enriches one event and stores the result under the sender's
// insight key, replacing what was there.
func (s *InsightEnrichmentService) HandleEvent(ctx context.Context, event *entities.CareEvent) error {
	ctx, cancel := context.WithTimeout(ctx, enrichmentTimeout)
	defer cancel()

	insights, err := s.provider.Enrich(ctx, entities.NewInsightContext(event))
	observability.RecordInsightEnrichment(ctx, s.metrics, s.providerName(), err)
	if err != nil {
		return fmt.Errorf("provider %s: %w", s.providerName(), err)
	}
	if len(insights) == 0 {
		return nil
	}

	data, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("failed to marshal insights: %w", err)
	}
	if err := s.cache.Set(ctx, providers.InsightCacheKey(event.SenderID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to cache insights: %w", err)
	}

	observability.SenderLogger(ctx, event.SenderID).Debug().
		Int("count", len(insights)).
		Str("event_type", string(event.Type)).
		Msg("insights cached")
	return nil
}

func (s *InsightEnrichmentService) providerName() string {
	if named, ok := s.provider.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "unknown"
}
