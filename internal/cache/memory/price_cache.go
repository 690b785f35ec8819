// Package memory implements the domain cache interfaces in process memory.
// It is the default backend when Redis is not configured.
package memory

import (
	"context"
	"sync"

	"github.com/alanyoungcy/bankdesk/internal/domain"
)

// PriceCache implements domain.PriceCache with a mutex-guarded map. Entries
// are stored and returned by value and replaced wholesale on Set.
type PriceCache struct {
	mu      sync.RWMutex
	entries map[string]domain.PriceCacheEntry
}

// NewPriceCache creates an empty PriceCache.
func NewPriceCache() *PriceCache {
	return &PriceCache{entries: make(map[string]domain.PriceCacheEntry)}
}

// Get returns the entry stored under key, whatever its age.
func (c *PriceCache) Get(_ context.Context, key string) (domain.PriceCacheEntry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return e, ok, nil
}

// Set replaces the entry stored under key. The caller must not modify
// entry.Data afterwards.
func (c *PriceCache) Set(_ context.Context, key string, entry domain.PriceCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry
	return nil
}

// Len returns the number of cached keys.
func (c *PriceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
