package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

// RedisRateCache keeps the reference table under sf:cache:currency:reference.
type RedisRateCache struct {
	store cacheStore
	ttl   time.Duration
}

func NewRedisRateCache(store cacheStore, ttl time.Duration) *RedisRateCache {
	return &RedisRateCache{store: store, ttl: ttl}
}

func (c *RedisRateCache) key() string {
	return c.store.CacheKey("currency", "reference")
}

func (c *RedisRateCache) Load(ctx context.Context) (map[string]float64, bool, error) {
	raw, err := c.store.Get(ctx, c.key())
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read rate cache: %w", err)
	}
	var reference map[string]float64
	if err := json.Unmarshal([]byte(raw), &reference); err != nil {
		return nil, false, fmt.Errorf("decode rate cache: %w", err)
	}
	return reference, len(reference) > 0, nil
}

func (c *RedisRateCache) Store(ctx context.Context, reference map[string]float64) error {
	payload, err := json.Marshal(reference)
	if err != nil {
		return fmt.Errorf("encode rate cache: %w", err)
	}
	return c.store.Set(ctx, c.key(), string(payload), c.ttl)
}
