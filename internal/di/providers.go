package di

import (
	"context"
	"fmt"
	"time"

	"PriceGate/internal/domain/models"
	domrepo "PriceGate/internal/domain/repository"
	"PriceGate/internal/handler/api"
	internalrepo "PriceGate/internal/repository"
	"PriceGate/internal/scheduler"
	icache "PriceGate/internal/service/cache"
	"PriceGate/internal/service/ratelimit"
	"PriceGate/internal/service/twelvedata"
	"PriceGate/internal/usecase"
	pkgcache "PriceGate/pkg/cache"
	pkgch "PriceGate/pkg/clickhouse"
	"PriceGate/pkg/config"
	"PriceGate/pkg/database"
	xhttp "PriceGate/pkg/http"
	pkgkafka "PriceGate/pkg/kafka"
	applogger "PriceGate/pkg/logger"
	"PriceGate/pkg/metrics"
	"PriceGate/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideAssetStore opens the SQL store and creates its schema when auto_migrate is set.
func ProvideAssetStore(cfg *config.Config) (*internalrepo.SQLStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.Store.Driver, cfg.Store.DSN,
		database.WithPool(cfg.Store.MaxOpenConns, cfg.Store.MaxIdleConns, cfg.Store.ConnMaxLifetime),
	)
	if err != nil {
		return nil, fmt.Errorf("asset store: %w", err)
	}

	store := internalrepo.NewSQLStore(db, cfg.Store.Driver)
	if cfg.Store.AutoMigrate {
		if err := store.Init(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("asset store schema: %w", err)
		}
	}
	return store, nil
}

// ProvideRedisCache connects to Redis when enabled; nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideAssetCache picks the asset list cache: memory, or memory in front of Redis.
func ProvideAssetCache(cfg *config.Config, rc *pkgcache.RedisCache) pkgcache.Service {
	if rc == nil {
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	}
	return pkgcache.NewLayeredCache(rc,
		pkgcache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
		pkgcache.WithLayeredMemoryTTL(cfg.Cache.AssetListTTL),
	)
}

// ProvidePriceVendor creates the Twelve Data client.
func ProvidePriceVendor(cfg *config.Config, l *applogger.Logger, rec *metrics.Recorder) *twelvedata.Client {
	return twelvedata.New(cfg.Vendor.APIKey,
		twelvedata.WithBaseURL(cfg.Vendor.BaseURL),
		twelvedata.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Vendor.Timeout))),
		twelvedata.WithRateLimit(ratelimit.New(), cfg.Vendor.RateLimitPerMinute),
		twelvedata.WithLogger(l.With(applogger.String("component", "twelvedata"))),
		twelvedata.WithMetrics(rec),
	)
}

// ProvidePriceService creates the quote service and its cache.
func ProvidePriceService(cfg *config.Config, vendor *twelvedata.Client, l *applogger.Logger, rec *metrics.Recorder) *usecase.PriceService {
	return usecase.NewPriceService(vendor,
		usecase.WithSpreadBps(cfg.Pricing.SpreadBps),
		usecase.WithQuoteCache(
			icache.WithTTL(cfg.Cache.QuoteTTL),
			icache.WithParallelism(cfg.Cache.BatchParallelism),
		),
		usecase.WithPriceLogger(l),
		usecase.WithPriceMetrics(rec),
	)
}

// ProvideAssetService creates the cached asset reference service.
func ProvideAssetService(cfg *config.Config, store *internalrepo.SQLStore, c pkgcache.Service) *usecase.AssetService {
	return usecase.NewAssetService(store, c, cfg.Cache.AssetListTTL)
}

// ProvideClickHouseClient connects to ClickHouse and creates the history table when enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(5, 2),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, 30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append([]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database},
		internalrepo.HistorySchema(historyTable(cfg))...)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates the price update producer when enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePriceSinks collects the enabled fan-out targets of a batch refresh.
func ProvidePriceSinks(cfg *config.Config, producer *pkgkafka.Producer, ch *pkgch.Client, rc *pkgcache.RedisCache) []domrepo.PriceSink {
	var sinks []domrepo.PriceSink
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic))
	}
	if ch != nil {
		sinks = append(sinks, internalrepo.NewClickHouseHistory(ch.DB(), historyTable(cfg)))
	}
	if rc != nil {
		sinks = append(sinks, internalrepo.NewRedisSnapshot(rc.Client(), pkgcache.GenerateKey(rc.Prefix(), cfg.Redis.SnapshotKey)))
	}
	return sinks
}

// ProvidePriceUpdater creates the batch refresh use case.
func ProvidePriceUpdater(vendor *twelvedata.Client, store *internalrepo.SQLStore, sinks []domrepo.PriceSink, l *applogger.Logger, rec *metrics.Recorder) *usecase.PriceUpdater {
	return usecase.NewPriceUpdater(vendor, store, sinks, l.With(applogger.String("component", "updater")), rec)
}

// ProvideScheduler registers the in-process refresh schedule.
func ProvideScheduler(cfg *config.Config, updater *usecase.PriceUpdater, l *applogger.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.New(updater, cfg.Cron.Timeout, l.With(applogger.String("component", "scheduler")))
	if err := s.Register(cfg.Cron.UpdatePrices); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideHTTPServer registers every route on the Echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	rec *metrics.Recorder,
	prices *usecase.PriceService,
	assets *usecase.AssetService,
	updater *usecase.PriceUpdater,
	store *internalrepo.SQLStore,
) *xhttp.Server {
	handlers := xhttp.Handlers{
		api.NewPricesEchoHandler(l, prices, assets),
		api.NewCronEchoHandler(l, updater, cfg.Cron.Secret),
		api.NewStreamHandler(l, prices, assets, cfg.Stream.Interval, cfg.Stream.MaxSymbols),
		api.NewHealthHandler(l, store),
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(handlers,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithLogger(l),
		xhttp.WithMetrics(rec, metricsPath, prometheus.DefaultGatherer, cfg.Server.SlowRequest),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	store *internalrepo.SQLStore,
	assets *usecase.AssetService,
	sinks []domrepo.PriceSink,
	rc *pkgcache.RedisCache,
	ch *pkgch.Client,
) *server.App {
	app := server.New(cfg, l, httpServer, sched, store, assets, seedAssets(cfg))
	// Kafka producer is closed by its publisher sink.
	for _, s := range sinks {
		app.AddCloser(s.Name(), s)
	}
	if ch != nil {
		app.AddCloser("clickhouse", ch)
	}
	if rc != nil {
		app.AddCloser("redis", rc)
	}
	return app
}

func historyTable(cfg *config.Config) string {
	return cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
}

func seedAssets(cfg *config.Config) []models.Asset {
	out := make([]models.Asset, 0, len(cfg.SeedAssets))
	for _, s := range cfg.SeedAssets {
		class, _ := models.ParseAssetClass(s.Class)
		out = append(out, models.Asset{
			Symbol:        models.NormalizeSymbol(s.Symbol),
			Name:          s.Name,
			Class:         class,
			BaseCurrency:  s.BaseCurrency,
			QuoteCurrency: s.QuoteCurrency,
			Precision:     s.Precision,
			LotSize:       s.LotSize,
			IsActive:      s.IsActive(),
		})
	}
	return out
}
