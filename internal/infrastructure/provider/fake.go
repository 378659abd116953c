package provider

import (
	"context"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Ensure Fake implements application.RateProvider.
var _ application.RateProvider = (*Fake)(nil)
var _ application.Pinger = (*Fake)(nil)

// Fake serves a fixed rate table for every day; useful for local runs
// without upstream credentials or network.
type Fake struct {
	rates map[string]decimal.Decimal
}

func NewFake(rates map[string]decimal.Decimal) *Fake {
	if rates == nil {
		rates = map[string]decimal.Decimal{
			"USD": decimal.RequireFromString("1.0834"),
			"GBP": decimal.RequireFromString("0.8561"),
			"JPY": decimal.RequireFromString("163.17"),
		}
	}
	return &Fake{rates: rates}
}

func (f *Fake) GetLatest(_ context.Context, base string) (domain.LatestRateSnapshot, error) {
	return domain.LatestRateSnapshot{
		BaseCurrency: base,
		Rates:        f.rates,
	}, nil
}

func (f *Fake) Ping(context.Context) error { return nil }

func (f *Fake) GetRange(_ context.Context, base string, from, to time.Time) ([]domain.HistoricalRateSnapshot, error) {
	var out []domain.HistoricalRateSnapshot
	for d := domain.Day(from); !d.After(domain.Day(to)); d = d.AddDate(0, 0, 1) {
		out = append(out, domain.HistoricalRateSnapshot{
			Date:         d,
			BaseCurrency: base,
			Rates:        f.rates,
		})
	}
	return out, nil
}
