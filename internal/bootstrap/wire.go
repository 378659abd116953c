//go:build wireinject

package bootstrap

import (
	"context"

	httpserver "fxconvert-service/internal/infrastructure/http"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideConfig,
	ProvideLatestCache,
	ProvideHistoricalCache,
	ProvideRegistry,
	ProvideDB,
	ProvideArchiveRepo,
	ProvideRateService,
)

// API injector: builds *httpserver.Server + cleanup.
func InitAPI(ctx context.Context) (*httpserver.Server, func(), error) {
	wire.Build(
		infraSet,
		httpserver.NewServer,
	)
	return nil, nil, nil
}
