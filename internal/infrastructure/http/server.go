package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"

	"github.com/shopspring/decimal"
)

type Server struct {
	svc *application.RateService
	// ready probes backing stores for /readyz; nil means always ready.
	ready func(ctx context.Context) error
}

func NewServer(svc *application.RateService) *Server { return &Server{svc: svc} }

func (s *Server) WithReadyCheck(fn func(ctx context.Context) error) *Server {
	s.ready = fn
	return s
}

type latestRateResponse struct {
	Provider     string                     `json:"provider"`
	BaseCurrency string                     `json:"base_currency"`
	Rates        map[string]decimal.Decimal `json:"rates"`
	FetchedAt    time.Time                  `json:"fetched_at"`
}

type conversionResponse struct {
	BaseCurrency    string          `json:"base_currency"`
	TargetCurrency  string          `json:"target_currency"`
	Amount          decimal.Decimal `json:"amount"`
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	RateTimestamp   time.Time       `json:"rate_timestamp"`
}

type historicalRateResponse struct {
	Date         string                     `json:"date"`
	BaseCurrency string                     `json:"base_currency"`
	Rates        map[string]decimal.Decimal `json:"rates"`
}

type pagedResponse struct {
	TotalCount int                      `json:"total_count"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
	Items      []historicalRateResponse `json:"items"`
}

func (s *Server) GetLatestRate(w http.ResponseWriter, r *http.Request) {
	providerKey := r.URL.Query().Get("provider")
	base := r.URL.Query().Get("base")
	if providerKey == "" || base == "" {
		writeError(w, http.StatusBadRequest, "provider and base are required")
		return
	}
	snap, err := s.svc.GetLatestRate(r.Context(), providerKey, base)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, latestRateResponse{
		Provider:     providerKey,
		BaseCurrency: snap.BaseCurrency,
		Rates:        snap.Rates,
		FetchedAt:    snap.FetchedAt,
	})
}

func (s *Server) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	providerKey, from, to := q.Get("provider"), q.Get("from"), q.Get("to")
	if providerKey == "" || from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "provider, from and to are required")
		return
	}
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a decimal number")
		return
	}
	if amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "amount must not be negative")
		return
	}
	res, err := s.svc.Convert(r.Context(), providerKey, from, to, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversionResponse{
		BaseCurrency:    res.BaseCurrency,
		TargetCurrency:  res.TargetCurrency,
		Amount:          res.Amount,
		ConvertedAmount: res.ConvertedAmount,
		RateTimestamp:   res.RateTimestamp,
	})
}

func (s *Server) GetHistoricalRates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	providerKey, base := q.Get("provider"), q.Get("base")
	if providerKey == "" || base == "" {
		writeError(w, http.StatusBadRequest, "provider and base are required")
		return
	}
	from, err := domain.ParseDay(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be a date in YYYY-MM-DD format")
		return
	}
	to, err := domain.ParseDay(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be a date in YYYY-MM-DD format")
		return
	}
	page := intParam(q.Get("page"), 1)
	pageSize := intParam(q.Get("page_size"), 20)

	res, err := s.svc.GetHistoricalRates(r.Context(), providerKey, base, from, to, page, pageSize)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	items := make([]historicalRateResponse, 0, len(res.Items))
	for _, snap := range res.Items {
		items = append(items, historicalRateResponse{
			Date:         snap.Date.Format(domain.DayFormat),
			BaseCurrency: snap.BaseCurrency,
			Rates:        snap.Rates,
		})
	}
	writeJSON(w, http.StatusOK, pagedResponse{
		TotalCount: res.TotalCount,
		Page:       res.Page,
		PageSize:   res.PageSize,
		Items:      items,
	})
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return -1 // rejected by the service's validation
	}
	return i
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrUnknownProvider),
		errors.Is(err, application.ErrInvalidRequest),
		errors.Is(err, application.ErrRateUnavailable):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrUpstreamUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
