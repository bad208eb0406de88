package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
)

func TestInsightEnrichmentService_HandleEventCachesInsights(t *testing.T) {
	provider := new(MockInsightProvider)
	cache := newMemoryCache()
	provider.On("Enrich", mock.Anything, mock.MatchedBy(func(in entities.InsightContext) bool {
		return in.SenderID == "s-1" && in.RiskTier == entities.RiskTierYellow
	})).Return([]entities.Insight{{Title: "Warm compress", Body: "Helps with cramps."}}, nil)

	svc := NewInsightEnrichmentService(provider, cache, &recordingEventBus{}, nil, time.Hour)
	err := svc.HandleEvent(context.Background(), &entities.CareEvent{
		ID: "e-1", Type: entities.CareEventTriageCompleted, SenderID: "s-1", RiskTier: entities.RiskTierYellow,
	})
	require.NoError(t, err)

	data, err := cache.Get(context.Background(), providers.InsightCacheKey("s-1"))
	require.NoError(t, err)
	var insights []entities.Insight
	require.NoError(t, json.Unmarshal(data, &insights))
	assert.Equal(t, "Warm compress", insights[0].Title)
	assert.Equal(t, time.Hour, cache.ttls[providers.InsightCacheKey("s-1")])
}

func TestInsightEnrichmentService_ProviderFailureLeavesCache(t *testing.T) {
	provider := new(MockInsightProvider)
	cache := newMemoryCache()
	provider.On("Enrich", mock.Anything, mock.Anything).Return(nil, errors.New("upstream 500"))

	svc := NewInsightEnrichmentService(provider, cache, &recordingEventBus{}, nil, time.Hour)
	err := svc.HandleEvent(context.Background(), &entities.CareEvent{ID: "e-1", SenderID: "s-1"})
	require.Error(t, err)

	assert.False(t, cache.has(providers.InsightCacheKey("s-1")))
}

func TestInsightEnrichmentService_ConsumesBusEvents(t *testing.T) {
	provider := new(MockInsightProvider)
	cache := newMemoryCache()
	bus := &recordingEventBus{}
	provider.On("Enrich", mock.Anything, mock.Anything).Return([]entities.Insight{{Title: "t", Body: "b"}}, nil)

	svc := NewInsightEnrichmentService(provider, cache, bus, nil, time.Hour)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelCare, &entities.CareEvent{
		ID: "e-2", Type: entities.CareEventSnapshotRequested, SenderID: "s-9", Phase: "Early Recovery",
	}))

	assert.Eventually(t, func() bool {
		return cache.has(providers.InsightCacheKey("s-9"))
	}, 2*time.Second, 10*time.Millisecond)
}
