package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type rollup struct {
	Orders  int64  `json:"orders"`
	Revenue string `json:"revenue"`
}

func newRedisCache(t *testing.T) (*RedisAnalyticsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisAnalyticsCache(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCacheMiss(t *testing.T) {
	c, _ := newRedisCache(t)

	var dest rollup
	found, err := c.Get(context.Background(), "analytics:admin:0:0", &dest)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatalf("empty cache should miss")
	}
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()

	want := rollup{Orders: 3, Revenue: "660.00"}
	if err := c.Set(ctx, "analytics:admin:0:86400", want, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got rollup
	found, err := c.Get(ctx, "analytics:admin:0:86400", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || got != want {
		t.Fatalf("round trip: found=%v got=%+v", found, got)
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "analytics:cashier:7:0:86400", rollup{Orders: 1}, 30*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(31 * time.Second)

	var dest rollup
	found, err := c.Get(ctx, "analytics:cashier:7:0:86400", &dest)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatalf("entry should have expired")
	}
}

func TestNoopCacheNeverHits(t *testing.T) {
	var c NoopAnalyticsCache
	ctx := context.Background()

	if err := c.Set(ctx, "k", rollup{Orders: 9}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var dest rollup
	found, err := c.Get(ctx, "k", &dest)
	if err != nil || found {
		t.Fatalf("noop cache must always miss: found=%v err=%v", found, err)
	}
}
