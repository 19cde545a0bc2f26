//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/config"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// The returned cleanup closes the store, producer and cache.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideProfiles,

		// Price input
		ProvideKlineFetcher,
		ProvidePriceSource,
		ProvideRiskScorer,

		// Sinks
		ProvideReportWriter,
		ProvideScoreStore,
		ProvideScorePublisher,
		ProvideReportCache,

		// Use cases
		ProvideRiskRunner,
		ProvideScheduler,
		ProvideScoresQuery,

		// Delivery
		ProvideScoresHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
