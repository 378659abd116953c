package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fxconvert-service/internal/bootstrap"
	"fxconvert-service/internal/config"
	infraconfig "fxconvert-service/internal/infrastructure/config"
	httpserver "fxconvert-service/internal/infrastructure/http"
	"fxconvert-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logx.L()
	cfg := config.Load()
	addr := ":" + cfg.Port

	latestCache, closeLatest, err := bootstrap.ProvideLatestCache(cfg)
	if err != nil {
		logger.Fatal("bootstrap latest cache", zap.Error(err))
	}
	defer closeLatest()

	historicalCache := bootstrap.ProvideHistoricalCache()

	db, closeDB, err := bootstrap.ProvideDB(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("bootstrap archive db", zap.Error(err))
	}
	defer closeDB()
	archive := bootstrap.ProvideArchiveRepo(db)
	bootstrap.WarmFromArchive(ctx, archive, historicalCache, logger)

	registry := bootstrap.ProvideRegistry(cfg)
	svc := bootstrap.ProvideRateService(cfg, registry, latestCache, historicalCache, archive, logger)

	if refresher := bootstrap.ProvideRefresher(svc, cfg, logger); refresher != nil {
		go refresher.Start(ctx)
	}

	srv := httpserver.NewServer(svc).
		WithReadyCheck(bootstrap.ProvideReadyCheck(registry, db))

	server := &http.Server{
		Addr:    addr,
		Handler: httpserver.NewRouter(srv),
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, shCancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer shCancel()
	_ = server.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}
