//go:build wireinject
// +build wireinject

package di

import (
	"PriceGate/pkg/config"
	"PriceGate/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideAssetStore,
		ProvideRedisCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideAssetCache,
		ProvidePriceSinks,
		ProvidePriceVendor,

		// Use cases
		ProvidePriceService,
		ProvideAssetService,
		ProvidePriceUpdater,
		ProvideScheduler,

		// Application server
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
