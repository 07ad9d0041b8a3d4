package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"SlipScope/internal/domain/models"
	"SlipScope/internal/domain/repository"
	domsvc "SlipScope/internal/domain/service"
	"SlipScope/internal/handler/api"
	mid "SlipScope/internal/middleware"
	internalrepo "SlipScope/internal/repository"
	"SlipScope/internal/service/feed"
	"SlipScope/internal/service/solver"
	"SlipScope/internal/usecase"
	"SlipScope/pkg/cache"
	pkgch "SlipScope/pkg/clickhouse"
	"SlipScope/pkg/config"
	xhttp "SlipScope/pkg/http"
	pkgkafka "SlipScope/pkg/kafka"
	applogger "SlipScope/pkg/logger"
	"SlipScope/pkg/metrics"
	"SlipScope/pkg/queue"
	"SlipScope/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and prepares the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".observations (" +
			"ts DateTime64(3), symbol String, kind LowCardinality(String), " +
			"price Float64, volume Float64, " +
			"bid_price Float64, bid_size Float64, ask_price Float64, ask_size Float64" +
			") ENGINE=MergeTree ORDER BY (symbol, ts)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisCache creates the Redis cache client. Returns nil when
// Redis is disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache selects the cache backend: layered memory+Redis when
// Redis is enabled, in-process memory otherwise.
func ProvideCache(rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache()
	}
	return cache.NewLayeredCache(rc)
}

// ProvideObservationStorage creates ClickHouse storage repository.
func ProvideObservationStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".observations")
}

// ProvideObservationPublisher creates Kafka publisher repository.
func ProvideObservationPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideMarketStream creates the WebSocket market data stream.
func ProvideMarketStream(cfg *config.Config) repository.MarketStream {
	return feed.New(
		cfg.Feed.Token,
		cfg.Feed.WebSocketURL,
		cfg.Feed.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvideObservationProcessor creates the backend routing use case.
func ProvideObservationProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.ObservationProcessor {
	return usecase.NewObservationProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideObservationCollector creates the collector with its pipeline.
func ProvideObservationCollector(
	stream repository.MarketStream,
	processor *usecase.ObservationProcessor,
	metrics repository.Metrics,
) *usecase.ObservationCollector {
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewObservationCollector(stream, processor, metrics, pipe)
}

// ProvideKafkaObservationsHandler registers the handler for the observations topic.
func ProvideKafkaObservationsHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaObservationsHandler {
	return usecase.NewKafkaObservationsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideSolver creates the simplex linear solver.
func ProvideSolver(cfg *config.Config) domsvc.LinearSolver {
	return solver.NewSimplex(solver.WithTolerance(cfg.Rebalance.Tolerance))
}

// ProvideFeatureService creates the feature query use case.
func ProvideFeatureService(
	store repository.Storage,
	metrics repository.Metrics,
	c cache.Service,
	lgr *applogger.Logger,
	cfg *config.Config,
) *usecase.FeatureService {
	opts := []usecase.FeatureServiceOption{
		usecase.WithFeatureMetrics(metrics),
		usecase.WithFeatureLookback(cfg.Features.Lookback),
	}
	if cfg.Features.CacheTTL > 0 {
		opts = append(opts, usecase.WithFeatureCache(c, cfg.Features.CacheTTL))
	}
	return usecase.NewFeatureService(store, lgr, opts...)
}

// ProvideJobQueue creates the Redis-backed rebalance job queue. Returns
// nil when Redis or the queue is disabled; async solving is then off.
func ProvideJobQueue(cfg *config.Config, rc *cache.RedisCache, lgr *applogger.Logger) *queue.RedisQueue {
	if rc == nil || !cfg.Rebalance.Queue.Enabled {
		return nil
	}
	return queue.NewRedisQueue(lgr, &queue.QueueConfig{
		Workers:    cfg.Rebalance.Queue.Workers,
		QueueSize:  cfg.Rebalance.Queue.QueueSize,
		RetryLimit: cfg.Rebalance.Queue.RetryLimit,
		RetryDelay: cfg.Rebalance.Queue.RetryDelay,
	}, rc.Client(), queue.ModeProducerConsumer)
}

// ProvideRebalanceService creates the rebalance use case and, when the
// queue is available, registers the async solve job on it.
func ProvideRebalanceService(
	slv domsvc.LinearSolver,
	metrics repository.Metrics,
	c cache.Service,
	q *queue.RedisQueue,
	lgr *applogger.Logger,
	cfg *config.Config,
) *usecase.RebalanceService {
	costs := make([]models.AssetCost, 0, len(cfg.Rebalance.Costs))
	for _, ac := range cfg.AssetCosts() {
		costs = append(costs, models.AssetCost{Alpha: ac[0], Beta: ac[1]})
	}
	opts := []usecase.RebalanceServiceOption{
		usecase.WithDefaultCosts(costs),
		usecase.WithSolveTolerance(cfg.Rebalance.Tolerance),
		usecase.WithRebalanceMetrics(metrics),
	}
	if q != nil {
		opts = append(opts, usecase.WithJobQueue(q, c, cfg.Rebalance.Queue.ResultTTL))
	}
	svc := usecase.NewRebalanceService(slv, lgr, opts...)
	if q != nil {
		q.RegisterJob(usecase.NewRebalanceJob(svc))
	}
	return svc
}

// ProvideHTTPHandler creates the Echo API handler.
func ProvideHTTPHandler(
	lgr *applogger.Logger,
	feats *usecase.FeatureService,
	reb *usecase.RebalanceService,
) xhttp.Handler {
	return api.NewCostsEchoHandler(lgr, feats, reb)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.ObservationCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaObservationsHandler,
	chClient *pkgch.Client,
	q *queue.RedisQueue,
	handler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, lgr, collector, consumer, kh, chClient, q)
	app.SetHTTPHandler(handler)
	if collector != nil {
		app.ObsProc = collector.Processor()
	}
	return app
}
