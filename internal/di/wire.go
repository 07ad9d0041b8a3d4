//go:build wireinject
// +build wireinject

package di

import (
	"SlipScope/pkg/config"
	"SlipScope/pkg/server"

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
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvideCache,

		// Repositories
		ProvideObservationStorage,
		ProvideObservationPublisher,
		ProvideMarketStream,

		// Use cases
		ProvideObservationProcessor,
		ProvideObservationCollector,
		ProvideKafkaObservationsHandler,
		ProvideSolver,
		ProvideFeatureService,
		ProvideJobQueue,
		ProvideRebalanceService,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
