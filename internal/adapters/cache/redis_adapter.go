package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
	redisclient "github.com/zatekoja/postnatalcare/backend/internal/infrastructure/clients/redis"
)

// incrementScript starts the window on the first hit and repairs a counter
// that somehow lost its expiry.
var incrementScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

var _ providers.CacheProvider = (*RedisAdapter)(nil)

// RedisAdapter implements providers.CacheProvider on Redis. All keys are
// stored under the adapter's namespace.
type RedisAdapter struct {
	client    *redisclient.Client
	namespace string
}

// NewRedisAdapter creates a cache adapter that prefixes keys with namespace
// followed by a colon. An empty namespace stores keys as given.
func NewRedisAdapter(client *redisclient.Client, namespace string) *RedisAdapter {
	return &RedisAdapter{
		client:    client,
		namespace: strings.TrimSuffix(namespace, ":"),
	}
}

func (a *RedisAdapter) key(k string) string {
	if a.namespace == "" {
		return k
	}
	return a.namespace + ":" + k
}

// Get retrieves a value from cache
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Client().Get(ctx, a.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	return result, nil
}

// Set stores a value; a non-positive ttl keeps it until deleted.
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := a.client.Client().Set(ctx, a.key(key), value, max(ttl, 0)).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Delete removes the given keys; missing keys are ignored.
func (a *RedisAdapter) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = a.key(k)
	}
	if err := a.client.Client().Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// SetIfAbsent uses SET NX so concurrent webhook deliveries of the same
// message id race safely.
func (a *RedisAdapter) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := a.client.Client().SetNX(ctx, a.key(key), value, max(ttl, 0)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set-if-absent in cache: %w", err)
	}
	return ok, nil
}

// Increment atomically counts a hit in a fixed window.
func (a *RedisAdapter) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window <= 0 {
		return 0, 0, fmt.Errorf("increment window must be positive")
	}
	res, err := incrementScript.Run(ctx, a.client.Client(), []string{a.key(key)}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to increment counter: %w", err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("unexpected increment reply of length %d", len(res))
	}
	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}
