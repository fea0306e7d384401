package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type stubCache struct {
	data map[string][]byte
	hits int
	sets int
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string][]byte)}
}

func (c *stubCache) Get(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dest)
}

func (c *stubCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.sets++
	c.data[key] = raw
	return nil
}

func TestAdminAnalytics(t *testing.T) {
	svc, _ := newTestService(t)

	createOrder(t, svc, 7)
	createOrder(t, svc, 7)
	createOrder(t, svc, 8)

	result, err := svc.AdminAnalytics(adminCtx(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if result.Orders != 3 {
		t.Fatalf("orders: %d", result.Orders)
	}
	if !result.Revenue.Equal(price(t, "660.00")) {
		t.Fatalf("revenue: %s", result.Revenue)
	}
	if len(result.Cashiers) != 2 {
		t.Fatalf("cashiers: %+v", result.Cashiers)
	}
	if result.Cashiers[0].CashierID != 7 || result.Cashiers[0].Orders != 2 {
		t.Fatalf("top cashier: %+v", result.Cashiers[0])
	}
	if len(result.TopItems) == 0 || result.TopItems[0].ProductName != "Americano" {
		t.Fatalf("top items: %+v", result.TopItems)
	}
}

func TestAdminAnalyticsReadThroughCache(t *testing.T) {
	cached := newStubCache()
	svc, _ := newTestService(t, WithAnalyticsCache(cached, time.Minute))

	createOrder(t, svc, 7)

	first, err := svc.AdminAnalytics(adminCtx(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if cached.sets != 1 || cached.hits != 0 {
		t.Fatalf("first read should fill the cache: sets=%d hits=%d", cached.sets, cached.hits)
	}

	// A mutation after the fill is invisible until the TTL lapses.
	createOrder(t, svc, 8)

	second, err := svc.AdminAnalytics(adminCtx(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if cached.hits != 1 {
		t.Fatalf("second read should hit the cache: hits=%d", cached.hits)
	}
	if second.Orders != first.Orders {
		t.Fatalf("cached read must match the fill: %d vs %d", second.Orders, first.Orders)
	}
}

func TestCashierAnalyticsScope(t *testing.T) {
	svc, _ := newTestService(t)
	createOrder(t, svc, 7)
	createOrder(t, svc, 8)

	mine, err := svc.CashierAnalytics(cashierCtx(7), 0, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("own analytics: %v", err)
	}
	if mine.CashierID != 7 || mine.Orders != 1 {
		t.Fatalf("own rollup: %+v", mine)
	}

	if _, err := svc.CashierAnalytics(cashierCtx(7), 8, time.Time{}, time.Time{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("peeking at another cashier: got %v, want ErrForbidden", err)
	}

	other, err := svc.CashierAnalytics(adminCtx(), 8, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("admin view: %v", err)
	}
	if other.CashierID != 8 || other.Orders != 1 {
		t.Fatalf("admin rollup: %+v", other)
	}
}
