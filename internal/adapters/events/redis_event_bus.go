package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
	redisclient "github.com/zatekoja/postnatalcare/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
)

const subscriberBuffer = 100

// ErrBusClosed is returned by Publish and Subscribe after Close.
var ErrBusClosed = errors.New("event bus closed")

// channelSub is one Redis subscription shared by all local subscribers of a
// channel.
type channelSub struct {
	pubsub      *redis.PubSub
	subscribers map[chan *entities.CareEvent]struct{}
}

// RedisEventBus fans care events out over Redis Pub/Sub. Delivery to a slow
// local subscriber is best-effort: a full buffer drops the event.
type RedisEventBus struct {
	client   *redisclient.Client
	channels map[string]*channelSub
	mu       sync.RWMutex
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:   client,
		channels: make(map[string]*channelSub),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Publish stamps missing ids and times, then publishes the event.
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.CareEvent) error {
	if event == nil || event.Type == "" {
		return errors.New("care event requires a type")
	}
	if b.isClosed() {
		return ErrBusClosed
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal care event: %w", err)
	}
	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish care event: %w", err)
	}

	observability.SenderLogger(ctx, event.SenderID).Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Msg("published care event")
	return nil
}

// Subscribe returns a channel of events. It is closed when ctx is cancelled,
// the channel is unsubscribed or the bus shuts down.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CareEvent, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}

	sub, exists := b.channels[channel]
	if !exists {
		pubsub := b.client.Client().Subscribe(b.ctx, channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			b.mu.Unlock()
			_ = pubsub.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		sub = &channelSub{pubsub: pubsub, subscribers: make(map[chan *entities.CareEvent]struct{})}
		b.channels[channel] = sub
		go b.receive(channel, sub)
	}

	eventChan := make(chan *entities.CareEvent, subscriberBuffer)
	sub.subscribers[eventChan] = struct{}{}
	count := len(sub.subscribers)
	b.mu.Unlock()

	observability.GetLogger().Info().Str("channel", channel).Int("subscribers", count).Msg("subscribed to channel")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.removeSubscriber(channel, sub, eventChan)
	}()

	return eventChan, nil
}

func (b *RedisEventBus) receive(channel string, sub *channelSub) {
	logger := observability.GetLogger().With().Str("channel", channel).Logger()

	for msg := range sub.pubsub.Channel() {
		var event entities.CareEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logger.Warn().Err(err).Msg("discarding malformed care event")
			continue
		}

		b.mu.RLock()
		for subscriber := range sub.subscribers {
			e := event
			select {
			case subscriber <- &e:
			default:
				logger.Warn().Str("event_id", event.ID).Msg("subscriber buffer full, dropping care event")
			}
		}
		b.mu.RUnlock()
	}

	// The Redis channel closes only after pubsub.Close; release whatever
	// subscribers are still attached to this subscription.
	b.mu.Lock()
	b.detach(channel, sub)
	b.mu.Unlock()
}

func (b *RedisEventBus) removeSubscriber(channel string, sub *channelSub, eventChan chan *entities.CareEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := sub.subscribers[eventChan]; !ok {
		return
	}
	delete(sub.subscribers, eventChan)
	close(eventChan)

	if len(sub.subscribers) == 0 {
		b.detach(channel, sub)
	}
}

// detach closes sub and its subscribers. Callers hold b.mu. A newer
// subscription on the same channel is left alone.
func (b *RedisEventBus) detach(channel string, sub *channelSub) error {
	for subscriber := range sub.subscribers {
		close(subscriber)
		delete(sub.subscribers, subscriber)
	}
	if current, ok := b.channels[channel]; ok && current == sub {
		delete(b.channels, channel)
	}
	if err := sub.pubsub.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	return nil
}

// Unsubscribe drops every local subscriber of channel.
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	sub, ok := b.channels[channel]
	var err error
	if ok {
		err = b.detach(channel, sub)
	}
	b.mu.Unlock()

	if err != nil {
		return err
	}
	observability.LoggerFromContext(ctx).Info().Str("channel", channel).Msg("unsubscribed from channel")
	return nil
}

// Close closes every subscription. It is safe to call more than once.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.cancel()

	var errs []error
	for channel, sub := range b.channels {
		if err := b.detach(channel, sub); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *RedisEventBus) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
