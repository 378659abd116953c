package application_test

import (
	"context"
	"errors"
	"time"

	"fxconvert-service/internal/domain"

	"github.com/shopspring/decimal"
)

var errProviderDown = errors.New("provider down")

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

type fetchWindow struct {
	From, To time.Time
}

// fakeProvider records every upstream call and serves one snapshot per UTC
// day in the requested window.
type fakeProvider struct {
	rates       map[string]decimal.Decimal
	latestErr   error
	rangeErr    error
	latestCalls int
	rangeCalls  []fetchWindow
}

func newFakeProvider(rates map[string]decimal.Decimal) *fakeProvider {
	if rates == nil {
		rates = map[string]decimal.Decimal{"USD": decimal.RequireFromString("1.25")}
	}
	return &fakeProvider{rates: rates}
}

func (f *fakeProvider) GetLatest(_ context.Context, base string) (domain.LatestRateSnapshot, error) {
	f.latestCalls++
	if f.latestErr != nil {
		return domain.LatestRateSnapshot{}, f.latestErr
	}
	return domain.LatestRateSnapshot{BaseCurrency: base, Rates: f.rates}, nil
}

func (f *fakeProvider) GetRange(_ context.Context, base string, from, to time.Time) ([]domain.HistoricalRateSnapshot, error) {
	f.rangeCalls = append(f.rangeCalls, fetchWindow{From: from, To: to})
	if f.rangeErr != nil {
		return nil, f.rangeErr
	}
	var out []domain.HistoricalRateSnapshot
	for d := domain.Day(from); !d.After(domain.Day(to)); d = d.AddDate(0, 0, 1) {
		out = append(out, domain.HistoricalRateSnapshot{Date: d, BaseCurrency: base, Rates: f.rates})
	}
	return out, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
