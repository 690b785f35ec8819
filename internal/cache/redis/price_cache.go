package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/bankdesk/internal/domain"
)

// PriceCache implements domain.PriceCache using one JSON string per cache
// key, stored at "pricecache:{key}". Freshness is decided by the reader from
// FetchedAt; retention only bounds how long abandoned keys linger.
type PriceCache struct {
	c         *Client
	retention time.Duration
}

// NewPriceCache creates a PriceCache backed by the given Client. A zero
// retention keeps entries until they are overwritten.
func NewPriceCache(c *Client, retention time.Duration) *PriceCache {
	return &PriceCache{c: c, retention: retention}
}

func (pc *PriceCache) cacheKey(key string) string {
	return pc.c.key("pricecache:" + key)
}

// Get returns the entry stored under key, whatever its age.
func (pc *PriceCache) Get(ctx context.Context, key string) (domain.PriceCacheEntry, bool, error) {
	raw, err := pc.c.rdb.Get(ctx, pc.cacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PriceCacheEntry{}, false, nil
		}
		return domain.PriceCacheEntry{}, false, fmt.Errorf("redis: get price cache %s: %w", key, err)
	}

	var entry domain.PriceCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.PriceCacheEntry{}, false, fmt.Errorf("redis: decode price cache %s: %w", key, err)
	}
	return entry, true, nil
}

// Set replaces the entry stored under key in a single SET.
func (pc *PriceCache) Set(ctx context.Context, key string, entry domain.PriceCacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis: encode price cache %s: %w", key, err)
	}
	if err := pc.c.rdb.Set(ctx, pc.cacheKey(key), raw, pc.retention).Err(); err != nil {
		return fmt.Errorf("redis: set price cache %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
