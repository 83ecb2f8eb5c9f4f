package di

import (
	"context"
	"fmt"
	"time"

	"KryptoMarket/internal/domain/repository"
	"KryptoMarket/internal/handler/api"
	internalrepo "KryptoMarket/internal/repository"
	"KryptoMarket/internal/service/binance"
	"KryptoMarket/internal/usecase"
	"KryptoMarket/pkg/cache"
	pkgch "KryptoMarket/pkg/clickhouse"
	"KryptoMarket/pkg/config"
	xhttp "KryptoMarket/pkg/http"
	pkgkafka "KryptoMarket/pkg/kafka"
	applogger "KryptoMarket/pkg/logger"
	"KryptoMarket/pkg/metrics"
	"KryptoMarket/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op one when metrics are off.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return repository.NoopMetrics{}
	}
	return metrics.New()
}

// ProvideHTTPClient creates the outbound client used for the exchange.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Exchange.Timeout),
		xhttp.WithRateLimit(cfg.Exchange.RequestsPerSec, cfg.Exchange.Burst),
		xhttp.WithRetry(200*time.Millisecond, cfg.Exchange.MaxRetryElapsed),
		xhttp.WithUserAgent(cfg.Exchange.UserAgent),
	)
}

// ProvideExchangeClient creates the Binance REST client.
func ProvideExchangeClient(hc *xhttp.Client, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *binance.Client {
	return binance.New(hc, cfg.Exchange.BaseURL, cfg.Exchange.QuoteAsset, m, l)
}

// ProvideRedisCache connects to Redis when the cache or the favorites store needs it.
// It returns nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, func(), error) {
	if cfg.Cache.Backend == "memory" && cfg.Favorites.Backend != "redis" {
		return nil, func() {}, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideCache builds the cache named by cache.backend. Layered and redis
// both sit on the shared Redis connection, which is closed separately.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) (cache.Service, func()) {
	switch cfg.Cache.Backend {
	case "redis":
		return rc, func() {}
	case "layered":
		lc := cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
			cache.WithLayeredMemoryTTL(cfg.Cache.TickerTTL),
			cache.WithLayeredMemoryCleanup(cfg.Cache.Cleanup),
		)
		return lc, func() { _ = lc.CloseLocal() }
	default:
		mc := cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			cache.WithMemoryCleanup(cfg.Cache.Cleanup),
		)
		return mc, func() { _ = mc.Close() }
	}
}

// ProvideMarketData decorates the exchange client with the cache.
func ProvideMarketData(client *binance.Client, c cache.Service, cfg *config.Config, l *applogger.Logger) repository.MarketData {
	return internalrepo.NewCachedMarketData(client, c, internalrepo.MarketCacheTTL{
		Tickers: cfg.Cache.TickerTTL,
		Klines:  cfg.Cache.KlineTTL,
		Symbols: cfg.Cache.SymbolTTL,
	}, l)
}

// ProvideFavoritesStore opens the store named by favorites.backend.
func ProvideFavoritesStore(cfg *config.Config, rc *cache.RedisCache) (repository.FavoritesStore, func(), error) {
	var store repository.FavoritesStore
	switch cfg.Favorites.Backend {
	case "redis":
		store = internalrepo.NewRedisFavorites(rc.Client(), rc.Prefix())
	case "sqlite":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := internalrepo.NewSQLiteFavorites(ctx, cfg.Favorites.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store = s
	default:
		store = internalrepo.NewMemoryFavorites()
	}
	return store, func() { _ = store.Close() }, nil
}

// ProvideSessionStore keeps login sessions apart from the market-data cache so
// that kline churn never evicts a pending nonce. Redis is used when it is
// connected anyway; otherwise sessions get their own bounded memory cache.
func ProvideSessionStore(cfg *config.Config, rc *cache.RedisCache) (repository.SessionStore, func()) {
	if rc != nil {
		return internalrepo.NewCacheSessionStore(rc), func() {}
	}
	mc := cache.NewMemoryCache(
		cache.WithMemoryMaxSize(cfg.Auth.MaxSessions),
		cache.WithMemoryCleanup(cfg.Cache.Cleanup),
	)
	return internalrepo.NewCacheSessionStore(mc), func() { _ = mc.Close() }
}

// ProvideKafkaProducer creates a Kafka producer when the sink or the log digest uses it.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if cfg.Sink.Type != "kafka" && !cfg.Log.Digest.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideClickHouseClient connects to ClickHouse when the sink writes there.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Sink.Type != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSnapshotSink picks the sink named by sink.type. The Kafka producer is
// shared with the log digest and closed by its own cleanup.
func ProvideSnapshotSink(cfg *config.Config, producer *pkgkafka.Producer, ch *pkgch.Client, l *applogger.Logger) (repository.SnapshotSink, func(), error) {
	var sink repository.SnapshotSink
	switch cfg.Sink.Type {
	case "kafka":
		sink = internalrepo.NewKafkaSnapshotSink(producer, cfg.Kafka.Topic, false)
	case "clickhouse":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := internalrepo.NewClickHouseSnapshotSink(ctx, ch, l)
		if err != nil {
			_ = ch.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		sink = s
	default:
		sink = internalrepo.NoopSink{}
	}
	return sink, func() { _ = sink.Close() }, nil
}

func ProvideMarketUseCase(data repository.MarketData, cfg *config.Config, l *applogger.Logger) *usecase.MarketUseCase {
	return usecase.NewMarketUseCase(data, usecase.MarketConfig{
		Quote:             cfg.Exchange.QuoteAsset,
		MinVolume:         cfg.Market.MinVolume,
		Movers:            cfg.Market.Movers,
		SparklineInterval: cfg.Market.SparklineInterval,
		SparklineLimit:    cfg.Market.SparklineLimit,
		Concurrency:       cfg.Analysis.Concurrency,
	}, l)
}

func ProvideDashboardUseCase(market *usecase.MarketUseCase, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.DashboardUseCase {
	return usecase.NewDashboardUseCase(market, usecase.DashboardConfig{
		Symbols:     cfg.Dashboard.Symbols,
		Interval:    cfg.Dashboard.Interval,
		Limit:       cfg.Dashboard.Limit,
		Concurrency: cfg.Analysis.Concurrency,
	}, m, l)
}

func ProvideFavoritesUseCase(store repository.FavoritesStore, market *usecase.MarketUseCase, cfg *config.Config, l *applogger.Logger) *usecase.FavoritesUseCase {
	return usecase.NewFavoritesUseCase(store, market, usecase.FavoritesConfig{
		HistoryInterval: cfg.Favorites.HistoryInterval,
		HistoryLimit:    cfg.Favorites.HistoryLimit,
		CandidatesLimit: cfg.Favorites.CandidatesLimit,
		Concurrency:     cfg.Analysis.Concurrency,
	}, l)
}

func ProvideAnalysisUseCase(market *usecase.MarketUseCase, sink repository.SnapshotSink, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(market, sink, usecase.AnalysisConfig{
		DefaultInterval: cfg.Analysis.DefaultInterval,
		Limit:           cfg.Analysis.Limit,
		ListInterval:    cfg.Analysis.ListInterval,
		ListLimit:       cfg.Analysis.ListLimit,
		Concurrency:     cfg.Analysis.Concurrency,
	}, m, l)
}

// ProvideViewManager creates the live view registry. Its views are stopped by App on shutdown.
func ProvideViewManager(analysis *usecase.AnalysisUseCase, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.ViewManager {
	return usecase.NewViewManager(analysis, cfg.Analysis.Refresh, m, l)
}

func ProvideAuthUseCase(sessions repository.SessionStore, cfg *config.Config) *usecase.AuthUseCase {
	return usecase.NewAuthUseCase(sessions, cfg.Auth.NonceTTL)
}

// ProvideHTTPServer builds the echo server around the API router. Connected
// Redis and ClickHouse clients are reported on /readyz.
func ProvideHTTPServer(cfg *config.Config, router *api.Router, rc *cache.RedisCache, ch *pkgch.Client, l *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path))
	}
	if rc != nil {
		opts = append(opts, xhttp.WithReadyCheck("redis", func(ctx context.Context) error {
			return rc.Client().Ping(ctx).Err()
		}))
	}
	if ch != nil {
		opts = append(opts, xhttp.WithReadyCheck("clickhouse", ch.Health))
	}
	return xhttp.NewServer(router, opts...)
}

// ProvideApp creates the application and attaches the error digest when enabled.
func ProvideApp(cfg *config.Config, srv *xhttp.Server, views *usecase.ViewManager, producer *pkgkafka.Producer, l *applogger.Logger) *server.App {
	if cfg.Log.Digest.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Digest.Interval,
			CountThreshold: cfg.Log.Digest.Threshold,
			Topic:          cfg.Log.Digest.Topic,
			Publisher:      producer,
		})
	}
	return server.New(cfg, srv, views, l)
}
