package application_test

import (
	"context"
	"testing"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"
	"fxconvert-service/internal/infrastructure/memcache"

	"github.com/stretchr/testify/require"
)

const testProvider = "frankfurter"

func newTestService(fp *fakeProvider, clk *fakeClock, ttl, interval time.Duration, opts ...application.Option) (*application.RateService, *memcache.HistoricalCache) {
	registry := application.NewProviderRegistry()
	registry.Register(domain.ProviderMetadata{
		Name:           testProvider,
		LatestTTL:      ttl,
		UpdateInterval: interval,
		RetentionDays:  application.RetentionDays,
	}, fp)
	historical := memcache.NewHistoricalCache()
	opts = append([]application.Option{application.WithClock(clk)}, opts...)
	svc := application.NewRateService(registry, memcache.NewLatestCache(), historical, opts...)
	return svc, historical
}

func testClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)}
}

func Test_GetLatestRate_TTL(t *testing.T) {
	t.Parallel()
	fp := newFakeProvider(nil)
	clk := testClock()
	svc, _ := newTestService(fp, clk, 5*time.Minute, 24*time.Hour)
	ctx := context.Background()

	_, err := svc.GetLatestRate(ctx, testProvider, "EUR")
	require.NoError(t, err)
	require.Equal(t, 1, fp.latestCalls)

	// Just inside the TTL: served from cache.
	clk.Advance(5*time.Minute - time.Second)
	snap, err := svc.GetLatestRate(ctx, testProvider, "EUR")
	require.NoError(t, err)
	require.Equal(t, 1, fp.latestCalls)
	require.Equal(t, "EUR", snap.BaseCurrency)

	// Just past the TTL: refreshed upstream.
	clk.Advance(2 * time.Second)
	snap, err = svc.GetLatestRate(ctx, testProvider, "EUR")
	require.NoError(t, err)
	require.Equal(t, 2, fp.latestCalls)
	require.Equal(t, clk.Now(), snap.FetchedAt)
}

func Test_GetLatestRate_UnknownProvider(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(newFakeProvider(nil), testClock(), time.Minute, time.Hour)

	_, err := svc.GetLatestRate(context.Background(), "nope", "EUR")
	require.ErrorIs(t, err, application.ErrUnknownProvider)
}

func Test_GetLatestRate_UpstreamFailure(t *testing.T) {
	t.Parallel()
	fp := newFakeProvider(nil)
	fp.latestErr = errProviderDown
	svc, _ := newTestService(fp, testClock(), time.Minute, time.Hour)

	_, err := svc.GetLatestRate(context.Background(), testProvider, "EUR")
	require.ErrorIs(t, err, application.ErrUpstreamUnavailable)
}

func Test_Convert_Exact(t *testing.T) {
	t.Parallel()
	fp := newFakeProvider(nil) // USD: 1.25
	clk := testClock()
	svc, _ := newTestService(fp, clk, time.Minute, time.Hour)

	res, err := svc.Convert(context.Background(), testProvider, "EUR", "USD", dec("100"))
	require.NoError(t, err)
	require.True(t, res.ConvertedAmount.Equal(dec("125")), "got %s", res.ConvertedAmount)
	require.Equal(t, "EUR", res.BaseCurrency)
	require.Equal(t, "USD", res.TargetCurrency)
	require.Equal(t, clk.Now(), res.RateTimestamp)
}

func Test_Convert_SameCurrency(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(newFakeProvider(nil), testClock(), time.Minute, time.Hour)

	_, err := svc.Convert(context.Background(), testProvider, "EUR", "eur", dec("10"))
	require.ErrorIs(t, err, application.ErrInvalidRequest)
}

func Test_Convert_TargetMissing(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(newFakeProvider(nil), testClock(), time.Minute, time.Hour)

	_, err := svc.Convert(context.Background(), testProvider, "EUR", "CHF", dec("10"))
	require.ErrorIs(t, err, application.ErrRateUnavailable)
	require.ErrorContains(t, err, "conversion rate for 'CHF' is not available")
}

func Test_Convert_RestrictedCurrencies(t *testing.T) {
	t.Parallel()
	fp := newFakeProvider(nil)
	svc, _ := newTestService(fp, testClock(), time.Minute, time.Hour,
		application.WithRestrictedCurrencies([]string{"TRY", "PLN", "THB", "MXN"}))
	ctx := context.Background()

	_, err := svc.Convert(ctx, testProvider, "EUR", "try", dec("10"))
	require.ErrorIs(t, err, application.ErrInvalidRequest)
	require.ErrorContains(t, err, "Conversion involving TRY, PLN, THB, or MXN is not allowed.")

	// Restricted on the base side too, and rejected before any upstream call.
	_, err = svc.Convert(ctx, testProvider, "PLN", "USD", dec("10"))
	require.ErrorIs(t, err, application.ErrInvalidRequest)
	require.Equal(t, 0, fp.latestCalls)

	// An unrestricted pair still converts.
	_, err = svc.Convert(ctx, testProvider, "EUR", "USD", dec("10"))
	require.NoError(t, err)
}

func Test_HistoricalRates_Validation(t *testing.T) {
	t.Parallel()
	fp := newFakeProvider(nil)
	clk := testClock()
	svc, _ := newTestService(fp, clk, time.Minute, time.Hour)
	ctx := context.Background()
	now := clk.Now()

	_, err := svc.GetHistoricalRates(ctx, testProvider, "EUR", now.AddDate(0, 0, -1), now.AddDate(0, 0, -5), 1, 10)
	require.ErrorIs(t, err, application.ErrInvalidRequest)
	require.ErrorContains(t, err, "'from' date must be before 'to' date.")

	_, err = svc.GetHistoricalRates(ctx, testProvider, "EUR", now.AddDate(0, 0, -200), now.AddDate(0, 0, -1), 1, 10)
	require.ErrorIs(t, err, application.ErrInvalidRequest)
	require.ErrorContains(t, err, "Only historical data within the last 180 days is supported.")

	_, err = svc.GetHistoricalRates(ctx, testProvider, "EUR", now.AddDate(0, 0, -1), now.AddDate(0, 0, 2), 1, 10)
	require.ErrorIs(t, err, application.ErrInvalidRequest)
	require.ErrorContains(t, err, "'to' date cannot be in the future.")

	// Validation runs before any upstream access.
	require.Empty(t, fp.rangeCalls)
}

func Test_HistoricalRates_ColdStartThenIncremental(t *testing.T) {
	t.Parallel()
	fp := newFakeProvider(nil)
	clk := testClock()
	svc, _ := newTestService(fp, clk, 5*time.Minute, 24*time.Hour)
	ctx := context.Background()
	from, to := clk.Now().AddDate(0, 0, -10), clk.Now().AddDate(0, 0, -1)

	// Cold start fetches the full retention window once.
	res, err := svc.GetHistoricalRates(ctx, testProvider, "EUR", from, to, 1, 50)
	require.NoError(t, err)
	require.Len(t, fp.rangeCalls, 1)
	require.Equal(t, clk.Now().AddDate(0, 0, -application.RetentionDays), fp.rangeCalls[0].From)
	require.Equal(t, clk.Now(), fp.rangeCalls[0].To)
	require.Equal(t, 10, res.TotalCount)

	// A second query within the update interval stays entirely on cache.
	_, err = svc.GetHistoricalRates(ctx, testProvider, "EUR", from, to, 1, 50)
	require.NoError(t, err)
	require.Len(t, fp.rangeCalls, 1)

	// Past the update interval only the tail is fetched.
	lastCached := domain.Day(clk.Now())
	clk.Advance(24*time.Hour + time.Second)
	_, err = svc.GetHistoricalRates(ctx, testProvider, "EUR", from, to, 1, 50)
	require.NoError(t, err)
	require.Len(t, fp.rangeCalls, 2)
	require.Equal(t, lastCached.Add(24*time.Hour), fp.rangeCalls[1].From)
	require.Equal(t, clk.Now(), fp.rangeCalls[1].To)
}

func Test_HistoricalRates_Pagination(t *testing.T) {
	t.Parallel()
	fp := newFakeProvider(nil)
	clk := testClock()
	svc, _ := newTestService(fp, clk, time.Minute, 24*time.Hour)
	ctx := context.Background()
	from, to := clk.Now().AddDate(0, 0, -9), clk.Now()

	res, err := svc.GetHistoricalRates(ctx, testProvider, "EUR", from, to, 1, 3)
	require.NoError(t, err)
	require.Equal(t, 10, res.TotalCount)
	require.Len(t, res.Items, 3)
	require.True(t, res.Items[0].Date.Before(res.Items[1].Date))

	res, err = svc.GetHistoricalRates(ctx, testProvider, "EUR", from, to, 4, 3)
	require.NoError(t, err)
	require.Equal(t, 10, res.TotalCount)
	require.Len(t, res.Items, 1)

	// Page beyond the range: empty items, unchanged total.
	res, err = svc.GetHistoricalRates(ctx, testProvider, "EUR", from, to, 9, 3)
	require.NoError(t, err)
	require.Equal(t, 10, res.TotalCount)
	require.Empty(t, res.Items)

	_, err = svc.GetHistoricalRates(ctx, testProvider, "EUR", from, to, 0, 3)
	require.ErrorIs(t, err, application.ErrInvalidRequest)
}

func Test_HistoricalRates_RetentionEviction(t *testing.T) {
	t.Parallel()
	fp := newFakeProvider(nil)
	clk := testClock()
	svc, historical := newTestService(fp, clk, time.Minute, 24*time.Hour)
	ctx := context.Background()
	now := clk.Now()

	// Seed a freshly-synced series holding one entry far outside the window.
	stale := domain.HistoricalRateSnapshot{Date: domain.Day(now.AddDate(0, 0, -200)), BaseCurrency: "EUR", Rates: fp.rates}
	recent := domain.HistoricalRateSnapshot{Date: domain.Day(now.AddDate(0, 0, -2)), BaseCurrency: "EUR", Rates: fp.rates}
	require.NoError(t, historical.Merge(ctx, testProvider, "EUR", []domain.HistoricalRateSnapshot{stale, recent}, now))

	res, err := svc.GetHistoricalRates(ctx, testProvider, "EUR", now.AddDate(0, 0, -5), now, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalCount)
	require.Empty(t, fp.rangeCalls, "fresh series must not trigger a fetch")

	series, err := historical.GetSeries(ctx, testProvider, "EUR")
	require.NoError(t, err)
	cutoff := domain.Day(now).AddDate(0, 0, -application.RetentionDays)
	for d := range series.Rates {
		require.False(t, d.Before(cutoff), "entry %s survived eviction", d)
	}
}

func Test_HistoricalRates_UpstreamFailure_NoPartialCommit(t *testing.T) {
	t.Parallel()
	fp := newFakeProvider(nil)
	fp.rangeErr = errProviderDown
	clk := testClock()
	svc, historical := newTestService(fp, clk, time.Minute, 24*time.Hour)
	ctx := context.Background()
	now := clk.Now()

	_, err := svc.GetHistoricalRates(ctx, testProvider, "EUR", now.AddDate(0, 0, -5), now, 1, 10)
	require.ErrorIs(t, err, application.ErrUpstreamUnavailable)

	series, err := historical.GetSeries(ctx, testProvider, "EUR")
	require.NoError(t, err)
	require.True(t, series.Empty(), "failed fetch must not commit anything")
	require.True(t, series.LastSyncedAt.IsZero())
}
