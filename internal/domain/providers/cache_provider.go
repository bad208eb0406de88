package providers

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by CacheProvider.Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider is the shared short-lived store behind insight caching,
// webhook dedup and sender rate limits.
type CacheProvider interface {
	// Get returns ErrCacheMiss (wrapped) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// SetIfAbsent stores value only when key is missing and reports whether it did.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Increment bumps a counter whose window starts at its first increment.
	// It returns the new count and the time left in the window.
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// MessageSeenKey marks an inbound transport message id as processed.
func MessageSeenKey(messageID string) string {
	return "webhook:seen:" + messageID
}

// InsightCacheKey is where enrichment output for a sender is stored.
func InsightCacheKey(senderID string) string {
	return "insights:" + senderID
}

// RateLimitKey scopes a sender's request counter to one entry point.
func RateLimitKey(scope, senderID string) string {
	return "ratelimit:" + scope + ":" + senderID
}
