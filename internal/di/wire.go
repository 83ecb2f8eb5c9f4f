//go:build wireinject
// +build wireinject

package di

import (
	"KryptoMarket/internal/handler/api"
	"KryptoMarket/pkg/config"
	"KryptoMarket/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// The returned cleanup closes the sink, the favorites store, the caches and
// the producer, in reverse order of creation.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideHTTPClient,
		ProvideExchangeClient,
		ProvideRedisCache,
		ProvideCache,
		ProvideKafkaProducer,
		ProvideClickHouseClient,

		// Repositories
		ProvideMarketData,
		ProvideFavoritesStore,
		ProvideSessionStore,
		ProvideSnapshotSink,

		// Use cases
		ProvideMarketUseCase,
		ProvideDashboardUseCase,
		ProvideFavoritesUseCase,
		ProvideAnalysisUseCase,
		ProvideViewManager,
		ProvideAuthUseCase,

		// HTTP
		api.NewMarketHandler,
		api.NewFavoritesHandler,
		api.NewAnalysisHandler,
		api.NewAuthHandler,
		api.NewRouter,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
