package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/config"
	"fxconvert-service/internal/domain"
	"fxconvert-service/internal/infrastructure/httpx"
	"fxconvert-service/internal/infrastructure/logx"
	"fxconvert-service/internal/infrastructure/memcache"
	"fxconvert-service/internal/infrastructure/pg"
	"fxconvert-service/internal/infrastructure/provider"
	redisstore "fxconvert-service/internal/infrastructure/redis"
	"fxconvert-service/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() config.Config { return config.Load() }

// ProvideLatestCache picks the latest-cache backend from CACHE_BACKEND.
func ProvideLatestCache(cfg config.Config) (application.LatestRateCache, func(), error) {
	switch cfg.CacheBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return redisstore.NewLatestCache(client, cfg.RedisTTL), func() { _ = client.Close() }, nil
	case "memory", "":
		return memcache.NewLatestCache(), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.CacheBackend)
	}
}

func ProvideHistoricalCache() *memcache.HistoricalCache {
	return memcache.NewHistoricalCache()
}

// ProvideRegistry builds the provider registry from config. Adapters are
// resolved here, at registration time.
func ProvideRegistry(cfg config.Config) *application.ProviderRegistry {
	registry := application.NewProviderRegistry()
	for _, pc := range cfg.Providers {
		registry.Register(domain.ProviderMetadata{
			Name:           pc.Name,
			LatestTTL:      pc.LatestTTL,
			UpdateInterval: pc.UpdateInterval,
			RetentionDays:  application.RetentionDays,
		}, buildAdapter(pc, cfg))
	}
	return registry
}

func buildAdapter(pc config.ProviderConfig, cfg config.Config) application.RateProvider {
	switch pc.Name {
	case "fake":
		return provider.NewFake(nil)
	default:
		return &provider.FrankfurterProvider{
			BaseURL: pc.BaseURL,
			Client: &httpx.Client{
				HTTP: &http.Client{Timeout: cfg.ProviderTimeout},
			},
		}
	}
}

// ProvideDB connects the optional Postgres archive database when STORAGE=pg;
// otherwise the returned DB is nil.
func ProvideDB(ctx context.Context, cfg config.Config, log *zap.Logger) (*pg.DB, func(), error) {
	if cfg.Storage != "pg" {
		return nil, func() {}, nil
	}
	if cfg.DatabaseURL == "" {
		return nil, func() {}, fmt.Errorf("DATABASE_URL is required for STORAGE=pg")
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, func() {}, err
	}
	cleanup := func() {
		log.Info("closing pg")
		db.Close()
	}
	return db, cleanup, nil
}

// ProvideArchiveRepo falls back to the no-op archive when no database is
// configured.
func ProvideArchiveRepo(db *pg.DB) application.RateArchive {
	if db == nil {
		return application.NoopArchive{}
	}
	return pg.NewArchiveRepo(db)
}

// ProvideReadyCheck combines the archive DB ping (when enabled) with a probe
// of every provider adapter that supports one.
func ProvideReadyCheck(registry *application.ProviderRegistry, db *pg.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				return fmt.Errorf("pg: %w", err)
			}
		}
		for key, adapter := range registry.Adapters() {
			p, ok := adapter.(application.Pinger)
			if !ok {
				continue
			}
			if err := p.Ping(ctx); err != nil {
				return fmt.Errorf("provider %s: %w", key, err)
			}
		}
		return nil
	}
}

// WarmFromArchive preloads archived series into the historical cache with a
// zero sync instant, so the first query for each key performs an incremental
// sync instead of a full cold start.
func WarmFromArchive(ctx context.Context, archive application.RateArchive, cache application.HistoricalRateCache, log *zap.Logger) {
	cutoff := domain.Day(time.Now().UTC()).AddDate(0, 0, -application.RetentionDays)
	series, err := archive.LoadSeries(ctx, cutoff)
	if err != nil {
		log.Warn("archive warm load failed", zap.Error(err))
		return
	}
	for _, s := range series {
		if err := cache.Merge(ctx, s.ProviderKey, s.BaseCurrency, s.Snapshots, time.Time{}); err != nil {
			log.Warn("archive warm merge failed",
				zap.String("provider", s.ProviderKey),
				zap.String("base", s.BaseCurrency),
				zap.Error(err),
			)
			continue
		}
		log.Info("archive warm loaded",
			zap.String("provider", s.ProviderKey),
			zap.String("base", s.BaseCurrency),
			zap.Int("snapshots", len(s.Snapshots)),
		)
	}
}

func ProvideRateService(cfg config.Config, registry *application.ProviderRegistry, latest application.LatestRateCache, historical *memcache.HistoricalCache, archive application.RateArchive, log *zap.Logger) *application.RateService {
	return application.NewRateService(registry, latest, historical,
		application.WithArchive(archive),
		application.WithLogger(log),
		application.WithRestrictedCurrencies(cfg.RestrictedCurrencies),
	)
}

// ProvideRefresher builds the optional background cache warmer; nil when
// REFRESH_PAIRS or REFRESH_EVERY_MS is unset.
func ProvideRefresher(svc *application.RateService, cfg config.Config, log *zap.Logger) application.Worker {
	if len(cfg.RefreshPairs) == 0 || cfg.RefreshEvery <= 0 {
		return nil
	}
	return &worker.Refresher{
		Svc:       svc,
		Pairs:     cfg.RefreshPairs,
		PollEvery: cfg.RefreshEvery,
		Log:       log,
	}
}
