package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
)

// senderLimiter caps requests per sender within a fixed window. It counts in
// the shared cache when one is available and falls back to process memory
// when the cache is absent or failing.
type senderLimiter struct {
	cache  providers.CacheProvider
	local  *localRateLimiter
	scope  string
	limit  int
	window time.Duration
}

func newSenderLimiter(cache providers.CacheProvider, scope string, limit int, window time.Duration) *senderLimiter {
	return &senderLimiter{
		cache:  cache,
		local:  newLocalRateLimiter(),
		scope:  scope,
		limit:  limit,
		window: window,
	}
}

// allow reports whether senderID may proceed and, if not, how long to wait.
func (l *senderLimiter) allow(ctx context.Context, senderID string) (bool, time.Duration) {
	key := providers.RateLimitKey(l.scope, senderID)
	if l.cache == nil {
		return l.local.allow(key, l.limit, l.window)
	}

	count, left, err := l.cache.Increment(ctx, key, l.window)
	if err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).Str("scope", l.scope).Msg("rate limit cache unavailable, counting locally")
		return l.local.allow(key, l.limit, l.window)
	}
	if count > int64(l.limit) {
		return false, left
	}
	return true, left
}

// localSweepEvery is how many calls pass between sweeps of expired entries
// in the in-memory fallbacks.
const localSweepEvery = 256

type localRateLimiter struct {
	mu     sync.Mutex
	now    func() time.Time
	states map[string]localRateState
	calls  int
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		now:    time.Now,
		states: make(map[string]localRateState),
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.calls++; l.calls%localSweepEvery == 0 {
		for k, st := range l.states {
			if !now.Before(st.resetAt) {
				delete(l.states, k)
			}
		}
	}

	st, ok := l.states[key]
	if !ok || !now.Before(st.resetAt) {
		st = localRateState{resetAt: now.Add(window)}
	}
	if st.count >= limit {
		l.states[key] = st
		return false, st.resetAt.Sub(now)
	}
	st.count++
	l.states[key] = st
	return true, st.resetAt.Sub(now)
}

// messageDeduper remembers processed transport message ids.
type messageDeduper struct {
	cache  providers.CacheProvider
	local  *localDeduper
	window time.Duration
}

func newMessageDeduper(cache providers.CacheProvider, window time.Duration) *messageDeduper {
	return &messageDeduper{cache: cache, local: newLocalDeduper(), window: window}
}

// claim marks id as being processed and reports false when another delivery
// already claimed it.
func (d *messageDeduper) claim(ctx context.Context, id string) bool {
	if d.cache != nil {
		stored, err := d.cache.SetIfAbsent(ctx, providers.MessageSeenKey(id), []byte("1"), d.window)
		if err == nil {
			return stored
		}
	}
	return d.local.claim(id, d.window)
}

// release forgets a claim so a redelivery of id is processed again.
func (d *messageDeduper) release(ctx context.Context, id string) {
	if d.cache != nil {
		if err := d.cache.Delete(ctx, providers.MessageSeenKey(id)); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("message_id", id).Msg("failed to release message claim")
		}
	}
	d.local.release(id)
}

type localDeduper struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]time.Time
	calls   int
}

func newLocalDeduper() *localDeduper {
	return &localDeduper{
		now:     time.Now,
		entries: make(map[string]time.Time),
	}
}

func (d *localDeduper) claim(key string, window time.Duration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if d.calls++; d.calls%localSweepEvery == 0 {
		for k, expiresAt := range d.entries {
			if !now.Before(expiresAt) {
				delete(d.entries, k)
			}
		}
	}

	if expiresAt, ok := d.entries[key]; ok && now.Before(expiresAt) {
		return false
	}
	d.entries[key] = now.Add(window)
	return true
}

func (d *localDeduper) release(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, key)
}
