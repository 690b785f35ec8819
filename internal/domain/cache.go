package domain

import (
	"context"
	"time"
)

// PriceCache stores batch price fetches keyed by currency ("prices_eur").
// Implementations return entries regardless of age; freshness is decided by
// the caller on every read.
type PriceCache interface {
	Get(ctx context.Context, key string) (PriceCacheEntry, bool, error)
	Set(ctx context.Context, key string, entry PriceCacheEntry) error
}

// SignalBus provides fire-and-forget pub/sub between components.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter provides per-key request limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager hands out short-lived exclusive locks shared between API
// instances.
type LockManager interface {
	// Acquire returns an unlock func, or ErrLockHeld if another holder owns key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}
