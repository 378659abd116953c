package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LatestRateSnapshot is a point-in-time set of target-currency rates for a
// base currency. Snapshots are overwritten wholesale on refresh, never
// partially mutated.
type LatestRateSnapshot struct {
	BaseCurrency string
	Rates        map[string]decimal.Decimal
	FetchedAt    time.Time
}

// LatestRateEntry is a single cache slot: the snapshot plus the instant the
// upstream call that produced it was made. Staleness against a TTL is the
// caller's business, not the cache's.
type LatestRateEntry struct {
	Snapshot  LatestRateSnapshot
	FetchedAt time.Time
}

// HistoricalRateSnapshot is a dated rate set, identified by
// (provider, base currency, date). Date is a UTC calendar day.
type HistoricalRateSnapshot struct {
	Date         time.Time
	BaseCurrency string
	Rates        map[string]decimal.Decimal
}
