package memcache

import (
	"context"
	"strings"
	"sync"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"
)

// HistoricalCache keeps one date series per (provider, base) key. The map of
// series is guarded here; the series contents are mutated only by the
// synchronization service under its per-key lock.
type HistoricalCache struct {
	mu     sync.Mutex
	series map[string]*domain.HistoricalSeries
}

var _ application.HistoricalRateCache = (*HistoricalCache)(nil)

func NewHistoricalCache() *HistoricalCache {
	return &HistoricalCache{series: map[string]*domain.HistoricalSeries{}}
}

// GetSeries returns the registered series for the key, creating and
// registering an empty one on first access so every caller observes the same
// instance.
func (c *HistoricalCache) GetSeries(_ context.Context, providerKey, base string) (*domain.HistoricalSeries, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getOrCreate(providerKey, base), nil
}

func (c *HistoricalCache) Merge(_ context.Context, providerKey, base string, snaps []domain.HistoricalRateSnapshot, syncedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(providerKey, base).Merge(snaps, syncedAt)
	return nil
}

func (c *HistoricalCache) Replace(_ context.Context, providerKey, base string, series *domain.HistoricalSeries) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series[historicalKey(providerKey, base)] = series
	return nil
}

func (c *HistoricalCache) getOrCreate(providerKey, base string) *domain.HistoricalSeries {
	key := historicalKey(providerKey, base)
	s, ok := c.series[key]
	if !ok {
		s = domain.NewHistoricalSeries()
		c.series[key] = s
	}
	return s
}

func historicalKey(providerKey, base string) string {
	return strings.ToLower("historical:" + providerKey + ":" + base)
}
