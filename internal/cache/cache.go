package cache

import (
	"context"
	"time"
)

// AnalyticsCache is a read-through cache for analytics rollups. Mutating
// operations never consult it; slightly stale aggregates are acceptable.
type AnalyticsCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type NoopAnalyticsCache struct{}

func (NoopAnalyticsCache) Get(_ context.Context, _ string, _ any) (bool, error) {
	return false, nil
}

func (NoopAnalyticsCache) Set(_ context.Context, _ string, _ any, _ time.Duration) error {
	return nil
}
