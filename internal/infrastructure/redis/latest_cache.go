package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// LatestCache is a Redis-backed latest-rate cache. Entries are JSON blobs
// keyed latest:{provider}:{base}. The Redis TTL is only a storage safety
// net: freshness against the provider TTL is still the service's decision.
type LatestCache struct {
	Client *redis.Client
	TTL    time.Duration
}

var _ application.LatestRateCache = (*LatestCache)(nil)

func NewLatestCache(client *redis.Client, ttl time.Duration) *LatestCache {
	return &LatestCache{Client: client, TTL: ttl}
}

type latestEntryJSON struct {
	BaseCurrency string                     `json:"base_currency"`
	Rates        map[string]decimal.Decimal `json:"rates"`
	FetchedAt    time.Time                  `json:"fetched_at"`
}

func (c *LatestCache) Get(ctx context.Context, providerKey, base string) (domain.LatestRateEntry, bool, error) {
	raw, err := c.Client.Get(ctx, key(providerKey, base)).Bytes()
	if err == redis.Nil {
		return domain.LatestRateEntry{}, false, nil
	}
	if err != nil {
		return domain.LatestRateEntry{}, false, fmt.Errorf("redis get: %w", err)
	}
	var e latestEntryJSON
	if err := json.Unmarshal(raw, &e); err != nil {
		return domain.LatestRateEntry{}, false, fmt.Errorf("redis decode: %w", err)
	}
	return domain.LatestRateEntry{
		Snapshot: domain.LatestRateSnapshot{
			BaseCurrency: e.BaseCurrency,
			Rates:        e.Rates,
			FetchedAt:    e.FetchedAt,
		},
		FetchedAt: e.FetchedAt,
	}, true, nil
}

func (c *LatestCache) Put(ctx context.Context, providerKey, base string, snap domain.LatestRateSnapshot, fetchedAt time.Time) error {
	raw, err := json.Marshal(latestEntryJSON{
		BaseCurrency: snap.BaseCurrency,
		Rates:        snap.Rates,
		FetchedAt:    fetchedAt,
	})
	if err != nil {
		return fmt.Errorf("redis encode: %w", err)
	}
	if err := c.Client.Set(ctx, key(providerKey, base), raw, c.TTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func key(providerKey, base string) string {
	return strings.ToLower("latest:" + providerKey + ":" + base)
}
