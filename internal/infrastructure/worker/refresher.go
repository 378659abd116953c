package worker

import (
	"context"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/config"
	infraconfig "fxconvert-service/internal/infrastructure/config"

	"go.uber.org/zap"
)

// Refresher keeps the latest-rate cache warm for a configured set of
// (provider, base) pairs by polling the service on a fixed interval. The
// service's own TTL gate decides whether each poll actually reaches the
// upstream.
type Refresher struct {
	Svc       *application.RateService
	Pairs     []config.RefreshPair
	PollEvery time.Duration
	Log       *zap.Logger
}

var _ application.Worker = (*Refresher)(nil)

func (r *Refresher) Start(ctx context.Context) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	if len(r.Pairs) == 0 || r.PollEvery <= 0 {
		log.Info("refresher.disabled")
		return
	}

	ticker := time.NewTicker(r.PollEvery)
	defer ticker.Stop()

	log.Info("refresher.start", zap.Int("pairs", len(r.Pairs)), zap.Duration("poll", r.PollEvery))
	for {
		select {
		case <-ctx.Done():
			log.Info("refresher.stop")
			return
		case <-ticker.C:
			for _, pair := range r.Pairs {
				r.refreshOne(ctx, pair, log)
			}
		}
	}
}

func (r *Refresher) refreshOne(ctx context.Context, pair config.RefreshPair, log *zap.Logger) {
	c, cancel := context.WithTimeout(ctx, infraconfig.DefaultRefreshTimeout)
	defer cancel()
	if _, err := r.Svc.GetLatestRate(c, pair.Provider, pair.Base); err != nil {
		log.Warn("refresher.refresh_failed",
			zap.String("provider", pair.Provider),
			zap.String("base", pair.Base),
			zap.Error(err),
		)
	}
}
