package di

import (
	"context"
	"fmt"
	"time"

	drepo "StockCast/internal/domain/repository"
	"StockCast/internal/handler/api"
	internalrepo "StockCast/internal/repository"
	"StockCast/internal/service/alphavantage"
	"StockCast/internal/service/stream"
	"StockCast/internal/usecase"
	pkgcache "StockCast/pkg/cache"
	pkgch "StockCast/pkg/clickhouse"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	pkgkafka "StockCast/pkg/kafka"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/metrics"
	"StockCast/pkg/postgres"
	"StockCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvidePostgresPool creates the Postgres pool and ensures the schema.
func ProvidePostgresPool(cfg *config.Config) (*postgres.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}

	stmts := append(internalrepo.StockSchema(), internalrepo.PredictionSchema()...)
	if err := pool.InitSchema(ctx, stmts); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return pool, nil
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
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

	if err := client.InitSchema(ctx, internalrepo.PredictionLogSchema()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideCache creates the quote cache backend chosen in configuration.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if cfg.Cache.Backend == "redis" {
		svc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisAddr(cfg.Cache.Addr),
			pkgcache.WithRedisPassword(cfg.Cache.Password),
			pkgcache.WithRedisDB(cfg.Cache.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return svc, nil
	}
	return pkgcache.NewMemoryCache(), nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
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

// ProvideEventPublisher creates the forecast event publisher.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) drepo.EventPublisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideStockStore creates the Postgres stock repository.
func ProvideStockStore(pool *postgres.Pool) drepo.StockStore {
	return internalrepo.NewPGStockStore(pool)
}

// ProvidePredictionStore creates the Postgres prediction repository.
func ProvidePredictionStore(pool *postgres.Pool) drepo.PredictionStore {
	return internalrepo.NewPGPredictionStore(pool)
}

// ProvidePredictionLog creates the ClickHouse historical log repository.
func ProvidePredictionLog(chClient *pkgch.Client, l *applogger.Logger) drepo.PredictionLog {
	log := internalrepo.NewCHPredictionLog(chClient)
	log.SetLogger(l)
	return log
}

// ProvideQuoteProvider creates the rotating-key quote client.
func ProvideQuoteProvider(cfg *config.Config, l *applogger.Logger, m drepo.Metrics) drepo.QuoteProvider {
	return alphavantage.NewClient(alphavantage.Options{
		BaseURL:        cfg.Quotes.BaseURL,
		APIKeys:        cfg.Quotes.APIKeys,
		AttemptTimeout: cfg.Quotes.AttemptTimeout,
		RetryDelay:     cfg.Quotes.RetryDelay,
		RequestsPerSec: cfg.Quotes.RequestsPerSec,
		Logger:         l,
		Metrics:        m,
	})
}

// ProvideQuoteCache wraps the cache backend for quote lookups.
func ProvideQuoteCache(svc pkgcache.Service, cfg *config.Config) drepo.QuoteCache {
	return internalrepo.NewCachedQuotes(svc, cfg.Cache.QuoteTTL)
}

// ProvideForecaster creates the forecast pipeline.
func ProvideForecaster(
	predictions drepo.PredictionStore,
	log drepo.PredictionLog,
	events drepo.EventPublisher,
	m drepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Forecaster {
	return usecase.NewForecaster(predictions, log, events, m, l, usecase.ForecastSettings{
		HistoryLimit:    cfg.Forecast.HistoryLimit,
		MinHistory:      cfg.Forecast.MinHistory,
		WindowSize:      cfg.Forecast.WindowSize,
		Epochs:          cfg.Forecast.Epochs,
		BatchSize:       cfg.Forecast.BatchSize,
		LearningRate:    cfg.Forecast.LearningRate,
		ValidationSplit: cfg.Forecast.ValidationSplit,
	})
}

// ProvideRefresher creates the quote refresh orchestrator.
func ProvideRefresher(
	stocks drepo.StockStore,
	provider drepo.QuoteProvider,
	quoteCache drepo.QuoteCache,
	forecaster *usecase.Forecaster,
	m drepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.QuoteRefresher {
	return usecase.NewQuoteRefresher(stocks, provider, quoteCache, forecaster, m, l, cfg.Forecast.TriggerTimeout)
}

// ProvideHandler creates the HTTP API handler.
func ProvideHandler(
	refresher *usecase.QuoteRefresher,
	forecaster *usecase.Forecaster,
	m drepo.Metrics,
	l *applogger.Logger,
) xhttp.Handler {
	return api.NewStocksHandler(refresher, forecaster, m, l)
}

// ProvideTickCollector creates the live stream collector, or nil when the
// stream is disabled.
func ProvideTickCollector(
	cfg *config.Config,
	stocks drepo.StockStore,
	m drepo.Metrics,
	l *applogger.Logger,
) *usecase.TickCollector {
	if !cfg.Stream.Enabled {
		return nil
	}
	ms := stream.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		l,
	)
	return usecase.NewTickCollector(ms, stocks, m, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	refresher *usecase.QuoteRefresher,
	collector *usecase.TickCollector,
	events drepo.EventPublisher,
	cacheSvc pkgcache.Service,
	pool *postgres.Pool,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, l, handler, refresher, collector, events, cacheSvc, pool, chClient)
}
