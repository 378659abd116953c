package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fxconvert-service/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RetentionDays is the sliding window of historical dates the cache is
// allowed to retain. Range validation applies it before any provider
// metadata is consulted.
const RetentionDays = 180

// RateService is the synchronization core: it decides when cached data is
// fresh enough to serve, fills gaps from the upstream provider, merges
// results into the caches, evicts entries outside the retention window and
// answers conversions and paginated range queries.
type RateService struct {
	registry   *ProviderRegistry
	latest     LatestRateCache
	historical HistoricalRateCache
	archive    RateArchive
	clock      Clock
	log        *zap.Logger
	locks      *keyLocks
	restricted []string
}

type Option func(*RateService)

func WithClock(c Clock) Option         { return func(s *RateService) { s.clock = c } }
func WithArchive(a RateArchive) Option { return func(s *RateService) { s.archive = a } }
func WithLogger(l *zap.Logger) Option  { return func(s *RateService) { s.log = l } }

// WithRestrictedCurrencies blocks conversions involving any of the listed
// currency codes, on either side of the pair.
func WithRestrictedCurrencies(codes []string) Option {
	return func(s *RateService) {
		s.restricted = nil
		for _, c := range codes {
			if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
				s.restricted = append(s.restricted, c)
			}
		}
	}
}

func NewRateService(registry *ProviderRegistry, latest LatestRateCache, historical HistoricalRateCache, opts ...Option) *RateService {
	s := &RateService{
		registry:   registry,
		latest:     latest,
		historical: historical,
		locks:      newKeyLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.archive == nil {
		s.archive = NoopArchive{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// GetLatestRate serves the latest snapshot for (provider, base), hitting the
// upstream only when the cached entry is absent or older than the provider's
// TTL. The check-fetch-store cycle runs under the per-key lock so concurrent
// callers for the same key trigger at most one upstream call.
func (s *RateService) GetLatestRate(ctx context.Context, providerKey, base string) (domain.LatestRateSnapshot, error) {
	meta, adapter, err := s.registry.Resolve(providerKey)
	if err != nil {
		return domain.LatestRateSnapshot{}, err
	}
	base, ok := domain.NormalizeCurrency(base)
	if !ok {
		return domain.LatestRateSnapshot{}, fmt.Errorf("%w: base currency must be a 3-letter code", ErrInvalidRequest)
	}

	lock := s.locks.get(cacheKey("latest", providerKey, base))
	lock.Lock()
	defer lock.Unlock()

	now := s.clock.Now()
	entry, found, err := s.latest.Get(ctx, providerKey, base)
	if err != nil {
		// Cache backend trouble degrades to a miss; the provider is the
		// source of truth here.
		s.log.Warn("latest_rate.cache_get_failed", zap.String("provider", providerKey), zap.String("base", base), zap.Error(err))
		found = false
	}
	if found && now.Sub(entry.FetchedAt) < meta.LatestTTL {
		s.log.Debug("latest_rate.cache_hit",
			zap.String("provider", providerKey),
			zap.String("base", base),
			zap.Time("fetched_at", entry.FetchedAt),
		)
		return entry.Snapshot, nil
	}

	snap, err := adapter.GetLatest(ctx, base)
	if err != nil {
		return domain.LatestRateSnapshot{}, fmt.Errorf("%w: %s latest for %s: %v", ErrUpstreamUnavailable, providerKey, base, err)
	}
	snap.FetchedAt = now
	if err := s.latest.Put(ctx, providerKey, base, snap, now); err != nil {
		s.log.Warn("latest_rate.cache_put_failed", zap.String("provider", providerKey), zap.String("base", base), zap.Error(err))
	}
	s.log.Info("latest_rate.refreshed",
		zap.String("provider", providerKey),
		zap.String("base", base),
		zap.Int("currencies", len(snap.Rates)),
	)
	return snap, nil
}

// Convert converts amount from one currency to another using the direct rate
// from the latest snapshot. Arithmetic is exact decimal end to end.
func (s *RateService) Convert(ctx context.Context, providerKey, from, to string, amount decimal.Decimal) (domain.ConversionResult, error) {
	if s.isRestricted(from) || s.isRestricted(to) {
		return domain.ConversionResult{}, fmt.Errorf("%w: Conversion involving %s is not allowed.", ErrInvalidRequest, orList(s.restricted))
	}
	if strings.EqualFold(from, to) {
		return domain.ConversionResult{}, fmt.Errorf("%w: base currency %s and target currency %s cannot be the same", ErrInvalidRequest, from, to)
	}
	to, ok := domain.NormalizeCurrency(to)
	if !ok {
		return domain.ConversionResult{}, fmt.Errorf("%w: target currency must be a 3-letter code", ErrInvalidRequest)
	}

	snap, err := s.GetLatestRate(ctx, providerKey, from)
	if err != nil {
		return domain.ConversionResult{}, err
	}
	rate, ok := snap.Rates[to]
	if !ok {
		s.log.Warn("convert.rate_missing", zap.String("base", snap.BaseCurrency), zap.String("target", to))
		return domain.ConversionResult{}, fmt.Errorf("%w: conversion rate for '%s' is not available", ErrRateUnavailable, to)
	}

	return domain.ConversionResult{
		BaseCurrency:    snap.BaseCurrency,
		TargetCurrency:  to,
		Amount:          amount,
		ConvertedAmount: amount.Mul(rate),
		RateTimestamp:   snap.FetchedAt,
	}, nil
}

// GetHistoricalRates answers a paginated date-range query, synchronizing the
// series with the upstream first when it is cold or stale, and evicting
// entries outside the retention window on every call.
func (s *RateService) GetHistoricalRates(ctx context.Context, providerKey, base string, from, to time.Time, page, pageSize int) (domain.PagedResult, error) {
	now := s.clock.Now()

	fromDay, toDay := domain.Day(from), domain.Day(to)
	if err := validateRange(fromDay, toDay, now, page, pageSize); err != nil {
		return domain.PagedResult{}, err
	}

	meta, adapter, err := s.registry.Resolve(providerKey)
	if err != nil {
		return domain.PagedResult{}, err
	}
	base, ok := domain.NormalizeCurrency(base)
	if !ok {
		return domain.PagedResult{}, fmt.Errorf("%w: base currency must be a 3-letter code", ErrInvalidRequest)
	}

	lock := s.locks.get(cacheKey("historical", providerKey, base))
	lock.Lock()
	defer lock.Unlock()

	series, err := s.historical.GetSeries(ctx, providerKey, base)
	if err != nil {
		return domain.PagedResult{}, fmt.Errorf("load series %s/%s: %w", providerKey, base, err)
	}

	if series.Empty() {
		if err := s.coldStart(ctx, providerKey, base, now, meta, adapter); err != nil {
			return domain.PagedResult{}, err
		}
	} else if now.Sub(series.LastSyncedAt) >= meta.UpdateInterval {
		if err := s.syncIncremental(ctx, providerKey, base, now, meta, adapter, series); err != nil {
			return domain.PagedResult{}, err
		}
	}

	series, err = s.historical.GetSeries(ctx, providerKey, base)
	if err != nil {
		return domain.PagedResult{}, fmt.Errorf("reload series %s/%s: %w", providerKey, base, err)
	}

	s.evictExpired(ctx, providerKey, base, now, meta, series)

	items := series.Range(fromDay, toDay)
	total := len(items)
	skip := (page - 1) * pageSize
	if skip > total {
		skip = total
	}
	take := pageSize
	if skip+take > total {
		take = total - skip
	}
	s.log.Info("historical_rates.served",
		zap.String("provider", providerKey),
		zap.String("base", base),
		zap.Int("total", total),
		zap.Int("page", page),
	)
	return domain.PagedResult{
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		Items:      items[skip : skip+take],
	}, nil
}

// coldStart fetches the full retention window and seeds the series.
func (s *RateService) coldStart(ctx context.Context, providerKey, base string, now time.Time, meta domain.ProviderMetadata, adapter RateProvider) error {
	windowStart := now.AddDate(0, 0, -meta.RetentionDays)
	fetched, err := adapter.GetRange(ctx, base, windowStart, now)
	if err != nil {
		return fmt.Errorf("%w: %s range for %s: %v", ErrUpstreamUnavailable, providerKey, base, err)
	}
	if err := s.historical.Merge(ctx, providerKey, base, fetched, now); err != nil {
		return fmt.Errorf("merge series %s/%s: %w", providerKey, base, err)
	}
	s.archiveBatch(ctx, providerKey, base, fetched)
	s.log.Info("historical_rates.cold_start",
		zap.String("provider", providerKey),
		zap.String("base", base),
		zap.Int("fetched", len(fetched)),
	)
	return nil
}

// syncIncremental fetches the window from just past the newest cached date
// up to now and merges it. A series that exists but has no dates (fully
// evicted) falls back to the full retention window.
func (s *RateService) syncIncremental(ctx context.Context, providerKey, base string, now time.Time, meta domain.ProviderMetadata, adapter RateProvider, series *domain.HistoricalSeries) error {
	windowStart := now.AddDate(0, 0, -meta.RetentionDays)
	if latest, ok := series.LatestDate(); ok {
		windowStart = latest.Add(meta.UpdateInterval)
	}
	fetched, err := adapter.GetRange(ctx, base, windowStart, now)
	if err != nil {
		return fmt.Errorf("%w: %s range for %s: %v", ErrUpstreamUnavailable, providerKey, base, err)
	}
	if err := s.historical.Merge(ctx, providerKey, base, fetched, now); err != nil {
		return fmt.Errorf("merge series %s/%s: %w", providerKey, base, err)
	}
	s.archiveBatch(ctx, providerKey, base, fetched)
	s.log.Info("historical_rates.synced",
		zap.String("provider", providerKey),
		zap.String("base", base),
		zap.Int("fetched", len(fetched)),
		zap.Time("window_start", windowStart),
	)
	return nil
}

func (s *RateService) evictExpired(ctx context.Context, providerKey, base string, now time.Time, meta domain.ProviderMetadata, series *domain.HistoricalSeries) {
	cutoff := domain.Day(now).AddDate(0, 0, -meta.RetentionDays)
	evicted := series.EvictBefore(cutoff)
	if evicted == 0 {
		return
	}
	if err := s.historical.Replace(ctx, providerKey, base, series); err != nil {
		s.log.Warn("historical_rates.evict_replace_failed", zap.String("provider", providerKey), zap.String("base", base), zap.Error(err))
		return
	}
	s.log.Info("historical_rates.evicted",
		zap.String("provider", providerKey),
		zap.String("base", base),
		zap.Int("count", evicted),
		zap.Time("cutoff", cutoff),
	)
}

func (s *RateService) archiveBatch(ctx context.Context, providerKey, base string, snaps []domain.HistoricalRateSnapshot) {
	if len(snaps) == 0 {
		return
	}
	if err := s.archive.SaveBatch(ctx, providerKey, base, snaps); err != nil {
		s.log.Warn("historical_rates.archive_failed", zap.String("provider", providerKey), zap.String("base", base), zap.Error(err))
	}
}

func validateRange(from, to, now time.Time, page, pageSize int) error {
	if from.After(to) {
		return fmt.Errorf("%w: 'from' date must be before 'to' date.", ErrInvalidRequest)
	}
	if now.Sub(from) > RetentionDays*24*time.Hour {
		return fmt.Errorf("%w: Only historical data within the last %d days is supported.", ErrInvalidRequest, RetentionDays)
	}
	if to.After(now) {
		return fmt.Errorf("%w: 'to' date cannot be in the future.", ErrInvalidRequest)
	}
	if page < 1 || pageSize < 1 {
		return fmt.Errorf("%w: page and page size must be positive", ErrInvalidRequest)
	}
	return nil
}

func (s *RateService) isRestricted(code string) bool {
	code = strings.ToUpper(code)
	for _, r := range s.restricted {
		if r == code {
			return true
		}
	}
	return false
}

// orList renders codes as "A, B, or C" for the restricted-conversion message.
func orList(codes []string) string {
	switch len(codes) {
	case 1:
		return codes[0]
	case 2:
		return codes[0] + " or " + codes[1]
	default:
		return strings.Join(codes[:len(codes)-1], ", ") + ", or " + codes[len(codes)-1]
	}
}

func cacheKey(kind, providerKey, base string) string {
	return strings.ToLower(kind + ":" + providerKey + ":" + base)
}
