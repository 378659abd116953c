package pg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ArchiveRepo mirrors merged historical batches into Postgres and reloads
// them at boot. The in-process cache stays the working copy; this repo only
// shortens the cold path after a restart.
type ArchiveRepo struct{ db *DB }

var _ application.RateArchive = (*ArchiveRepo)(nil)

func NewArchiveRepo(db *DB) *ArchiveRepo { return &ArchiveRepo{db: db} }

// SaveBatch upserts the batch inside one transaction so a partial write is
// never observed.
func (r *ArchiveRepo) SaveBatch(ctx context.Context, providerKey, base string, snaps []domain.HistoricalRateSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const up = `
        INSERT INTO historical_rates(provider_key, base_currency, rate_date, rates)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (provider_key, base_currency, rate_date) DO UPDATE
          SET rates=EXCLUDED.rates, inserted_at=now()`
	for _, snap := range snaps {
		raw, err := json.Marshal(snap.Rates)
		if err != nil {
			return fmt.Errorf("encode rates: %w", err)
		}
		if _, err := tx.Exec(ctx, up, providerKey, base, snap.Date, raw); err != nil {
			return fmt.Errorf("upsert %s/%s@%s: %w", providerKey, base, snap.Date.Format(domain.DayFormat), err)
		}
	}
	return tx.Commit(ctx)
}

// LoadSeries reads every archived series, dropping rows older than cutoff.
func (r *ArchiveRepo) LoadSeries(ctx context.Context, cutoff time.Time) ([]application.ArchivedSeries, error) {
	const q = `
        SELECT provider_key, base_currency, rate_date, rates
        FROM historical_rates
        WHERE rate_date >= $1
        ORDER BY provider_key, base_currency, rate_date`
	rows, err := r.db.Pool.Query(ctx, q, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	var (
		out  []application.ArchivedSeries
		cur  *application.ArchivedSeries
		pKey string
		base string
	)
	for rows.Next() {
		var (
			date time.Time
			raw  []byte
		)
		if err := rows.Scan(&pKey, &base, &date, &raw); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		var rates map[string]decimal.Decimal
		if err := json.Unmarshal(raw, &rates); err != nil {
			return nil, fmt.Errorf("decode rates for %s/%s: %w", pKey, base, err)
		}
		if cur == nil || cur.ProviderKey != pKey || cur.BaseCurrency != base {
			out = append(out, application.ArchivedSeries{ProviderKey: pKey, BaseCurrency: base})
			cur = &out[len(out)-1]
		}
		cur.Snapshots = append(cur.Snapshots, domain.HistoricalRateSnapshot{
			Date:         domain.Day(date),
			BaseCurrency: base,
			Rates:        rates,
		})
	}
	return out, rows.Err()
}
