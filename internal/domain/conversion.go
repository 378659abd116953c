package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConversionResult is the outcome of converting an amount between two
// currencies using a direct rate from a latest snapshot.
type ConversionResult struct {
	BaseCurrency    string
	TargetCurrency  string
	Amount          decimal.Decimal
	ConvertedAmount decimal.Decimal
	RateTimestamp   time.Time
}

// PagedResult is one page of a historical range query. Page numbers are
// 1-based; a page beyond the available range carries an empty Items list and
// the unchanged TotalCount.
type PagedResult struct {
	TotalCount int
	Page       int
	PageSize   int
	Items      []HistoricalRateSnapshot
}
