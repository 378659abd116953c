package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"
	"fxconvert-service/internal/infrastructure/httpx"

	"github.com/shopspring/decimal"
)

const (
	frankfurterLatestPath = "/v1/latest"
	frankfurterRangePath  = "/v1/%s..%s"
)

// FrankfurterProvider adapts the Frankfurter reference-rate API. Wire-format
// parsing ends here: callers only ever see normalized snapshots.
type FrankfurterProvider struct {
	BaseURL string
	Client  *httpx.Client
}

var _ application.RateProvider = (*FrankfurterProvider)(nil)
var _ application.Pinger = (*FrankfurterProvider)(nil)

type fkLatestResp struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

type fkRangeResp struct {
	Base      string                                `json:"base"`
	StartDate string                                `json:"start_date"`
	EndDate   string                                `json:"end_date"`
	Rates     map[string]map[string]decimal.Decimal `json:"rates"`
}

func (p *FrankfurterProvider) GetLatest(ctx context.Context, base string) (domain.LatestRateSnapshot, error) {
	if p.BaseURL == "" {
		return domain.LatestRateSnapshot{}, errors.New("frankfurter: missing base url")
	}

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return domain.LatestRateSnapshot{}, fmt.Errorf("frankfurter: invalid base url: %w", err)
	}
	u.Path = frankfurterLatestPath
	q := u.Query()
	q.Set("base", base)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.LatestRateSnapshot{}, fmt.Errorf("frankfurter: create request: %w", err)
	}

	var body fkLatestResp
	if err := p.client().DoJSON(ctx, req, &body); err != nil {
		return domain.LatestRateSnapshot{}, fmt.Errorf("frankfurter: latest %s: %w", base, err)
	}
	if body.Base == "" || len(body.Rates) == 0 {
		return domain.LatestRateSnapshot{}, fmt.Errorf("frankfurter: empty latest response for %s", base)
	}

	return domain.LatestRateSnapshot{
		BaseCurrency: body.Base,
		Rates:        body.Rates,
	}, nil
}

func (p *FrankfurterProvider) GetRange(ctx context.Context, base string, from, to time.Time) ([]domain.HistoricalRateSnapshot, error) {
	if p.BaseURL == "" {
		return nil, errors.New("frankfurter: missing base url")
	}

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("frankfurter: invalid base url: %w", err)
	}
	u.Path = fmt.Sprintf(frankfurterRangePath, from.Format(domain.DayFormat), to.Format(domain.DayFormat))
	q := u.Query()
	q.Set("base", base)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("frankfurter: create request: %w", err)
	}

	var body fkRangeResp
	if err := p.client().DoJSON(ctx, req, &body); err != nil {
		return nil, fmt.Errorf("frankfurter: range %s %s..%s: %w", base, from.Format(domain.DayFormat), to.Format(domain.DayFormat), err)
	}

	out := make([]domain.HistoricalRateSnapshot, 0, len(body.Rates))
	for dateStr, rates := range body.Rates {
		day, err := domain.ParseDay(dateStr)
		if err != nil {
			return nil, fmt.Errorf("frankfurter: bad date %q in range response: %w", dateStr, err)
		}
		out = append(out, domain.HistoricalRateSnapshot{
			Date:         day,
			BaseCurrency: body.Base,
			Rates:        rates,
		})
	}
	return out, nil
}

// Ping probes the latest endpoint, so readiness reflects actual upstream
// reachability rather than just local state.
func (p *FrankfurterProvider) Ping(ctx context.Context) error {
	_, err := p.GetLatest(ctx, "EUR")
	return err
}

func (p *FrankfurterProvider) client() *httpx.Client {
	if p.Client != nil {
		return p.Client
	}
	return &httpx.Client{}
}
