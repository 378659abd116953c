package application

import (
	"context"
	"time"

	"fxconvert-service/internal/domain"
)

// LatestRateCache is a single-slot-per-key store for the most recent fetched
// snapshot. It holds no TTL logic; the synchronization service decides
// staleness. Absence is reported via the bool, not an error.
type LatestRateCache interface {
	Get(ctx context.Context, providerKey, base string) (domain.LatestRateEntry, bool, error)
	Put(ctx context.Context, providerKey, base string, snap domain.LatestRateSnapshot, fetchedAt time.Time) error
}

// HistoricalRateCache stores the ordered date series per (provider, base).
type HistoricalRateCache interface {
	// GetSeries returns the existing series or registers and returns a new
	// empty one, so repeated calls observe the same lifecycle point.
	GetSeries(ctx context.Context, providerKey, base string) (*domain.HistoricalSeries, error)
	// Merge inserts or overwrites each snapshot by date and stamps the
	// series' last sync instant. Idempotent.
	Merge(ctx context.Context, providerKey, base string, snaps []domain.HistoricalRateSnapshot, syncedAt time.Time) error
	// Replace overwrites the series wholesale; used after eviction.
	Replace(ctx context.Context, providerKey, base string, series *domain.HistoricalSeries) error
}

// RateProvider fetches rates from an upstream source. May be slow; must
// honor ctx cancellation. The service treats every adapter error as
// upstream-unavailable.
type RateProvider interface {
	GetLatest(ctx context.Context, base string) (domain.LatestRateSnapshot, error)
	GetRange(ctx context.Context, base string, from, to time.Time) ([]domain.HistoricalRateSnapshot, error)
}

// Pinger is implemented by adapters that can report upstream reachability;
// readiness probes consult it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ArchivedSeries is one stored (provider, base) series as read back from the
// archive.
type ArchivedSeries struct {
	ProviderKey  string
	BaseCurrency string
	Snapshots    []domain.HistoricalRateSnapshot
}

// RateArchive mirrors merged historical batches to durable storage and
// reloads them at boot. Best effort: the cache remains the working copy and
// archive failures never fail a query.
type RateArchive interface {
	SaveBatch(ctx context.Context, providerKey, base string, snaps []domain.HistoricalRateSnapshot) error
	LoadSeries(ctx context.Context, cutoff time.Time) ([]ArchivedSeries, error)
}

// NoopArchive is the default when no storage backend is configured.
type NoopArchive struct{}

func (NoopArchive) SaveBatch(context.Context, string, string, []domain.HistoricalRateSnapshot) error {
	return nil
}

func (NoopArchive) LoadSeries(context.Context, time.Time) ([]ArchivedSeries, error) {
	return nil, nil
}
