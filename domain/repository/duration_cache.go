package repository

import (
	"context"
	"time"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
)

// IDurationCache is a best effort TTL store for resolved durations.
// Implementations never surface backing store failures: Get reports a miss
// and Set is a no-op.
type IDurationCache interface {
	Get(ctx context.Context, key string) (*model.CacheEntry, bool)
	Set(ctx context.Context, key string, seconds int, source model.ConfidenceTier, ttl time.Duration)
	// TTL returns the remaining lifetime of key, if it exists.
	TTL(ctx context.Context, key string) (time.Duration, bool)
	Healthy(ctx context.Context) bool
}

// NoopDurationCache is used when no cache backend is configured.
type NoopDurationCache struct{}

func NewNoopDurationCache() IDurationCache {
	return NoopDurationCache{}
}

func (NoopDurationCache) Get(context.Context, string) (*model.CacheEntry, bool) {
	return nil, false
}

func (NoopDurationCache) Set(context.Context, string, int, model.ConfidenceTier, time.Duration) {}

func (NoopDurationCache) TTL(context.Context, string) (time.Duration, bool) {
	return 0, false
}

func (NoopDurationCache) Healthy(context.Context) bool {
	return false
}
