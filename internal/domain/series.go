package domain

import (
	"sort"
	"time"
)

// HistoricalSeries is the per-(provider, base) time series: a date-keyed set
// of snapshots plus the instant of the last upstream sync. Dates are unique;
// inserting an existing date overwrites it (last write wins).
//
// The series itself is not goroutine safe. The synchronization service holds
// a per-key lock around every read-modify-write cycle.
type HistoricalSeries struct {
	Rates        map[time.Time]HistoricalRateSnapshot
	LastSyncedAt time.Time
}

func NewHistoricalSeries() *HistoricalSeries {
	return &HistoricalSeries{Rates: map[time.Time]HistoricalRateSnapshot{}}
}

func (s *HistoricalSeries) Empty() bool { return len(s.Rates) == 0 }

// Merge inserts every snapshot by its day and stamps LastSyncedAt.
// Merging the same batch twice leaves the series unchanged.
func (s *HistoricalSeries) Merge(snaps []HistoricalRateSnapshot, syncedAt time.Time) {
	if s.Rates == nil {
		s.Rates = map[time.Time]HistoricalRateSnapshot{}
	}
	for _, snap := range snaps {
		snap.Date = Day(snap.Date)
		s.Rates[snap.Date] = snap
	}
	s.LastSyncedAt = syncedAt
}

// LatestDate reports the most recent day present in the series.
func (s *HistoricalSeries) LatestDate() (time.Time, bool) {
	var max time.Time
	for d := range s.Rates {
		if d.After(max) {
			max = d
		}
	}
	return max, !max.IsZero()
}

// EvictBefore removes every entry dated strictly before cutoff and returns
// how many were dropped.
func (s *HistoricalSeries) EvictBefore(cutoff time.Time) int {
	n := 0
	for d := range s.Rates {
		if d.Before(cutoff) {
			delete(s.Rates, d)
			n++
		}
	}
	return n
}

// Range returns the snapshots with date in [from, to] inclusive, ascending.
func (s *HistoricalSeries) Range(from, to time.Time) []HistoricalRateSnapshot {
	out := make([]HistoricalRateSnapshot, 0, len(s.Rates))
	for d, snap := range s.Rates {
		if !d.Before(from) && !d.After(to) {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
