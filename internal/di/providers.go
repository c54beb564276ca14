package di

import (
	"context"
	"fmt"
	"time"

	"digitpulse/internal/domain/repository"
	"digitpulse/internal/handler/api"
	mid "digitpulse/internal/middleware"
	internalrepo "digitpulse/internal/repository"
	icache "digitpulse/internal/service/cache"
	"digitpulse/internal/service/deriv"
	"digitpulse/internal/service/execution"
	"digitpulse/internal/service/ratelimit"
	"digitpulse/internal/service/tickstore"
	"digitpulse/internal/usecase"
	pkgch "digitpulse/pkg/clickhouse"
	"digitpulse/pkg/config"
	xhttp "digitpulse/pkg/http"
	pkgkafka "digitpulse/pkg/kafka"
	applogger "digitpulse/pkg/logger"
	"digitpulse/pkg/metrics"
	"digitpulse/pkg/queue"
	"digitpulse/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client when the history
// backend needs one. Returns nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.History.Backend != "clickhouse" {
		return nil, nil
	}

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

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer when the history backend
// is kafka. Returns nil otherwise.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.History.Backend != "kafka" {
		return nil, nil
	}

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

// ProvideTradeStore routes settled-trade persistence to the configured
// history backend.
func ProvideTradeStore(
	cfg *config.Config,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	log *applogger.Logger,
) repository.TradeStore {
	switch cfg.History.Backend {
	case "clickhouse":
		return internalrepo.NewCHTradeStore(chClient, log)
	case "kafka":
		return internalrepo.NewKafkaTradeStore(producer, cfg.Kafka.Topic)
	default:
		return internalrepo.NoopTradeStore{}
	}
}

// ProvideTickArchive creates the raw tick archive. Only the ClickHouse
// backend stores ticks; nil disables archiving.
func ProvideTickArchive(cfg *config.Config, chClient *pkgch.Client) repository.TickArchive {
	if cfg.History.Backend != "clickhouse" || chClient == nil {
		return nil
	}
	return internalrepo.NewCHTickArchive(chClient)
}

// ProvideStatsCache picks the digit-statistics cache backend.
func ProvideStatsCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideTickStore creates the in-memory tick ring buffers.
func ProvideTickStore(cfg *config.Config) *tickstore.Store {
	return tickstore.NewStore(cfg.Ticks.WindowCapacity)
}

// ProvideAnalyzer creates the cached digit-statistics analyzer.
func ProvideAnalyzer(store *tickstore.Store, c icache.BytesCache, cfg *config.Config) *tickstore.CachedAnalyzer {
	return tickstore.NewCachedAnalyzer(store, c, cfg.Ticks.StatsCacheTTL)
}

// ProvideMarketStream creates the Deriv WebSocket tick stream.
func ProvideMarketStream(cfg *config.Config, log *applogger.Logger) repository.MarketStream {
	return deriv.NewStream(
		cfg.Deriv.AppID,
		cfg.Deriv.WebSocketURL,
		cfg.Deriv.Symbols,
		cfg.Deriv.ReconnectDelay,
		cfg.Deriv.PingInterval,
		log,
	)
}

// ProvideExecutor selects the decision execution backend.
func ProvideExecutor(cfg *config.Config, log *applogger.Logger) repository.Executor {
	if cfg.Execution.Mode == "deriv" {
		return deriv.NewExecutor(
			cfg.Deriv.AppID,
			cfg.Deriv.APIToken,
			cfg.Deriv.WebSocketURL,
			cfg.Execution.SettleTimeout,
			log,
		)
	}
	return execution.NewSimulator(cfg.Execution.Payout, 0)
}

// ProvideTradeRecorder creates the queued trade persistence worker.
func ProvideTradeRecorder(cfg *config.Config, log *applogger.Logger, store repository.TradeStore) *usecase.TradeRecorder {
	return usecase.NewTradeRecorder(log, &queue.QueueConfig{
		Workers:    cfg.History.QueueWorkers,
		QueueSize:  cfg.History.QueueSize,
		RetryLimit: cfg.History.RetryLimit,
		RetryDelay: cfg.History.RetryDelay,
	}, store)
}

// ProvideTickProcessor creates the tick routing use case.
func ProvideTickProcessor(store *tickstore.Store, archive repository.TickArchive, m repository.Metrics) *usecase.TickProcessor {
	return usecase.NewTickProcessor(store, archive, m)
}

// ProvideTickCollector creates the stream-to-store collector with the
// validation/throttle pipeline in between.
func ProvideTickCollector(
	cfg *config.Config,
	stream repository.MarketStream,
	processor *usecase.TickProcessor,
	m repository.Metrics,
) *usecase.TickCollector {
	pipe := mid.NewTickPipeline(processor, m,
		mid.WithMaxRPS(cfg.Ticks.MaxRPS),
		mid.WithBufferSize(cfg.Ticks.BufferSize),
	)
	return usecase.NewTickCollector(stream, processor, m, pipe)
}

// ProvideDecisionLimiter creates the rolling-hour decision rate limiter
// shared by all bots.
func ProvideDecisionLimiter() *ratelimit.Limiter {
	return ratelimit.New(time.Hour)
}

// ProvideRegistry creates the bot registry.
func ProvideRegistry(
	cfg *config.Config,
	analyzer *tickstore.CachedAnalyzer,
	executor repository.Executor,
	recorder *usecase.TradeRecorder,
	limiter *ratelimit.Limiter,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Registry {
	return usecase.NewRegistry(analyzer, executor, recorder, limiter, m, log,
		cfg.Ticks.FetchTimeout, cfg.Execution.SettleTimeout)
}

// ProvideHTTPHandler creates the Echo route handler. Dependency probes and
// the trade history endpoint are attached only for backends that exist.
func ProvideHTTPHandler(
	log *applogger.Logger,
	registry *usecase.Registry,
	store *tickstore.Store,
	chClient *pkgch.Client,
	statsCache icache.BytesCache,
	tradeStore repository.TradeStore,
) xhttp.Handler {
	var opts []api.Option
	if chClient != nil {
		opts = append(opts, api.WithHealthCheck("clickhouse", chClient.Health))
	}
	if rc, ok := statsCache.(*icache.RedisCache); ok {
		opts = append(opts, api.WithHealthCheck("redis", rc.Ping))
	}
	if th, ok := tradeStore.(api.TradeHistory); ok {
		opts = append(opts, api.WithTradeHistory(th))
	}
	return api.NewBotsEchoHandler(log, registry, store, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.TickCollector,
	recorder *usecase.TradeRecorder,
	registry *usecase.Registry,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	tradeStore repository.TradeStore,
) *server.App {
	return server.New(cfg, log, collector, recorder, registry, handler, chClient, tradeStore)
}
