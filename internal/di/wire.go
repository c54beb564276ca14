//go:build wireinject
// +build wireinject

package di

import (
	"digitpulse/pkg/config"
	"digitpulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Storage
		ProvideTradeStore,
		ProvideTickArchive,
		ProvideStatsCache,
		ProvideTickStore,
		ProvideAnalyzer,

		// Market access
		ProvideMarketStream,
		ProvideExecutor,

		// Use cases
		ProvideTickProcessor,
		ProvideTickCollector,
		ProvideTradeRecorder,
		ProvideDecisionLimiter,
		ProvideRegistry,

		// HTTP surface and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
