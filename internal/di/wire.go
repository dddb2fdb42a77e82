//go:build wireinject
// +build wireinject

package di

import (
	"StockLens/internal/usecase"
	"StockLens/pkg/config"
	"StockLens/pkg/server"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideHTTPClient,
	ProvideBarCache,
	ProvidePriceSource,
	ProvideAnalysisConfig,
	ProvideAnalyzer,
	ProvideAlertPublisher,
	ProvideWatcher,
	ProvideDashboard,
	ProvideExporter,
)

// InitializeApp wires up all dependencies and returns the HTTP application.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		coreSet,
		ProvideRateLimiter,
		ProvideHealthHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeToolkit wires the usecases for the one-shot commands and the REPL.
func InitializeToolkit(cfg *config.Config) (*Toolkit, func(), error) {
	wire.Build(
		coreSet,
		ProvideToolkit,
	)
	return nil, nil, nil
}

// InitializeIngestor wires the Yahoo to ClickHouse ingest job.
func InitializeIngestor(cfg *config.Config) (*usecase.Ingestor, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideHTTPClient,
		ProvideIngestor,
	)
	return nil, nil, nil
}
