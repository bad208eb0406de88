package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/postnatalcare/backend/internal/application/triage"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
)

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetBySenderID(ctx context.Context, senderID string) (*entities.SenderProfile, error) {
	args := m.Called(ctx, senderID)
	if p := args.Get(0); p != nil {
		return p.(*entities.SenderProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileRepository) Upsert(ctx context.Context, profile *entities.SenderProfile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *MockProfileRepository) SetConsent(ctx context.Context, senderID string, consent bool) error {
	return m.Called(ctx, senderID, consent).Error(0)
}

type MockCheckInRepository struct {
	mock.Mock
}

func (m *MockCheckInRepository) Create(ctx context.Context, record *entities.CheckInRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockCheckInRepository) ListBySender(ctx context.Context, senderID string, limit int) ([]*entities.CheckInRecord, error) {
	args := m.Called(ctx, senderID, limit)
	if r := args.Get(0); r != nil {
		return r.([]*entities.CheckInRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockMetricSampleRepository struct {
	mock.Mock
}

func (m *MockMetricSampleRepository) Create(ctx context.Context, sample *entities.RecoveryMetricSample) error {
	return m.Called(ctx, sample).Error(0)
}

func (m *MockMetricSampleRepository) ListRecent(ctx context.Context, senderID string, limit int) ([]*entities.RecoveryMetricSample, error) {
	args := m.Called(ctx, senderID, limit)
	if r := args.Get(0); r != nil {
		return r.([]*entities.RecoveryMetricSample), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockEmergencyContactRepository struct {
	mock.Mock
}

func (m *MockEmergencyContactRepository) Create(ctx context.Context, contact *entities.EmergencyContact) error {
	return m.Called(ctx, contact).Error(0)
}

func (m *MockEmergencyContactRepository) ListBySender(ctx context.Context, senderID string) ([]*entities.EmergencyContact, error) {
	args := m.Called(ctx, senderID)
	if r := args.Get(0); r != nil {
		return r.([]*entities.EmergencyContact), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyContacts(ctx context.Context, senderID string, tags []entities.SymptomTag, lang entities.Language) error {
	return m.Called(ctx, senderID, tags, lang).Error(0)
}

type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) SendText(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

func (m *MockMessageSender) SendTemplate(ctx context.Context, to, templateName, languageCode string, parameters []string) (string, error) {
	args := m.Called(ctx, to, templateName, languageCode, parameters)
	return args.String(0), args.Error(1)
}

type MockInsightProvider struct {
	mock.Mock
}

func (m *MockInsightProvider) Enrich(ctx context.Context, in entities.InsightContext) ([]entities.Insight, error) {
	args := m.Called(ctx, in)
	if r := args.Get(0); r != nil {
		return r.([]entities.Insight), args.Error(1)
	}
	return nil, args.Error(1)
}

// recordingEventBus keeps published events in memory and lets tests push
// events to subscribers.
type recordingEventBus struct {
	mu        sync.Mutex
	published []*entities.CareEvent
	subs      []chan *entities.CareEvent
	failWith  error
}

func (b *recordingEventBus) Publish(ctx context.Context, channel string, event *entities.CareEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	b.published = append(b.published, event)
	for _, sub := range b.subs {
		sub <- event
	}
	return nil
}

func (b *recordingEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CareEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan *entities.CareEvent, 10)
	b.subs = append(b.subs, ch)
	return ch, nil
}

func (b *recordingEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return nil
}

func (b *recordingEventBus) Close() error {
	return nil
}

func (b *recordingEventBus) Events() []*entities.CareEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*entities.CareEvent(nil), b.published...)
}

// memoryCache is a map-backed CacheProvider that ignores expiry.
type memoryCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	ttls     map[string]time.Duration
	counters map[string]int64
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		data:     make(map[string][]byte),
		ttls:     make(map[string]time.Duration),
		counters: make(map[string]int64),
	}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memoryCache) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = value
	c.ttls[key] = ttl
	return true, nil
}

func (c *memoryCache) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], window, nil
}

func newTestTriageEngine() *triage.Engine {
	rules, err := triage.DefaultRules()
	if err != nil {
		panic(err)
	}
	return triage.NewEngine(rules, triage.PickerFunc(func(int) int { return 0 }))
}
