package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"saveai-api/logger"
	"saveai-api/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ICacheClient defines the contract for a cache client.
// *redis.Client satisfies it; tests substitute an in-memory fake.
type ICacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

func transactionCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("transaction:%s", id)
}

func userTransactionsCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("transactions:user:%s", userID)
}

// cacheGet decodes the cached JSON value at key into dest and reports whether it was a hit.
// Cache failures are logged and treated as misses.
func cacheGet(ctx context.Context, c ICacheClient, m *metrics.Metrics, key string, dest any) bool {
	if c == nil {
		return false
	}
	raw, err := c.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.WithError(err).WithField("key", key).Warn("Cache read failed")
		}
		m.CacheLookup(false)
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.Log.WithError(err).WithField("key", key).Warn("Discarding undecodable cache entry")
		m.CacheLookup(false)
		return false
	}
	m.CacheLookup(true)
	return true
}

func cacheSet(ctx context.Context, c ICacheClient, key string, value any, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		logger.Log.WithError(err).WithField("key", key).Warn("Failed to encode cache entry")
		return
	}
	if err := c.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Log.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

func cacheDel(ctx context.Context, c ICacheClient, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.Del(ctx, keys...).Err(); err != nil {
		logger.Log.WithError(err).WithField("keys", keys).Warn("Cache invalidation failed")
	}
}
