// Package memcache holds the in-process cache stores. They are plain keyed
// stores: staleness and eviction policy live in the application service.
package memcache

import (
	"context"
	"strings"
	"sync"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"
)

// LatestCache keeps one snapshot slot per (provider, base) key.
type LatestCache struct {
	mu      sync.RWMutex
	entries map[string]domain.LatestRateEntry
}

var _ application.LatestRateCache = (*LatestCache)(nil)

func NewLatestCache() *LatestCache {
	return &LatestCache{entries: map[string]domain.LatestRateEntry{}}
}

func (c *LatestCache) Get(_ context.Context, providerKey, base string) (domain.LatestRateEntry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[latestKey(providerKey, base)]
	return entry, ok, nil
}

func (c *LatestCache) Put(_ context.Context, providerKey, base string, snap domain.LatestRateSnapshot, fetchedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[latestKey(providerKey, base)] = domain.LatestRateEntry{Snapshot: snap, FetchedAt: fetchedAt}
	return nil
}

func latestKey(providerKey, base string) string {
	return strings.ToLower("latest:" + providerKey + ":" + base)
}
