package worker

import (
	"context"
	"testing"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/config"
	"fxconvert-service/internal/domain"
	"fxconvert-service/internal/infrastructure/memcache"
	"fxconvert-service/internal/infrastructure/provider"

	"github.com/stretchr/testify/require"
)

func newRefresherService(t *testing.T) (*application.RateService, *memcache.LatestCache) {
	t.Helper()
	registry := application.NewProviderRegistry()
	registry.Register(domain.ProviderMetadata{
		Name:           "fake",
		LatestTTL:      time.Minute,
		UpdateInterval: time.Minute,
		RetentionDays:  application.RetentionDays,
	}, provider.NewFake(nil))
	latest := memcache.NewLatestCache()
	return application.NewRateService(registry, latest, memcache.NewHistoricalCache()), latest
}

func TestRefresher_WarmsCache(t *testing.T) {
	svc, latest := newRefresherService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &Refresher{
		Svc:       svc,
		Pairs:     []config.RefreshPair{{Provider: "fake", Base: "EUR"}},
		PollEvery: 10 * time.Millisecond,
	}
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		entry, ok, err := latest.Get(context.Background(), "fake", "EUR")
		return err == nil && ok && entry.Snapshot.BaseCurrency == "EUR"
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop on context cancel")
	}
}

func TestRefresher_DisabledWithoutPairs(t *testing.T) {
	svc, _ := newRefresherService(t)

	done := make(chan struct{})
	go func() {
		(&Refresher{Svc: svc, PollEvery: time.Millisecond}).Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher with no pairs should return immediately")
	}
}
