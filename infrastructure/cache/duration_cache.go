package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

const opTimeout = 2 * time.Second

type cachedDuration struct {
	Seconds int                  `json:"seconds"`
	Source  model.ConfidenceTier `json:"source"`
}

// DurationCache stores resolved durations in Redis. Every Redis failure is
// logged and reported to the caller as a miss.
type DurationCache struct {
	client *redis.Client
}

// NewDurationCache returns the null cache when client is nil.
func NewDurationCache(client *redis.Client) repository.IDurationCache {
	if client == nil {
		return repository.NewNoopDurationCache()
	}
	return &DurationCache{client: client}
}

func (c *DurationCache) Get(ctx context.Context, key string) (*model.CacheEntry, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logUnavailable(err, key, "get")
		return nil, false
	}

	var v cachedDuration
	if err := json.Unmarshal(raw, &v); err != nil || v.Seconds <= 0 {
		logger.GetLogger().WithField("key", key).WithField("error", err).Warn("Discarding malformed cached duration")
		return nil, false
	}
	if !v.Source.Valid() {
		v.Source = model.TierCategoryHeuristic
	}

	entry := &model.CacheEntry{Key: key, Seconds: v.Seconds, Source: v.Source}
	if ttl, err := c.client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}
	return entry, true
}

func (c *DurationCache) Set(ctx context.Context, key string, seconds int, source model.ConfidenceTier, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := json.Marshal(cachedDuration{Seconds: seconds, Source: source})
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Failed to encode cached duration")
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logUnavailable(err, key, "set")
	}
}

func (c *DurationCache) TTL(ctx context.Context, key string) (time.Duration, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ttl, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		logUnavailable(err, key, "ttl")
		return 0, false
	}
	// -2 missing key, -1 no expiry
	if ttl < 0 {
		return 0, false
	}
	return ttl, true
}

func (c *DurationCache) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return c.client.Ping(ctx).Err() == nil
}

func logUnavailable(err error, key, op string) {
	logger.GetLogger().WithFields(map[string]interface{}{
		"error": errors.Join(model.ErrCacheUnavailable, err).Error(),
		"key":   key,
		"op":    op,
	}).Warn("Duration cache unavailable, treating as miss")
}
