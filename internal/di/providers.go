package di

import (
	"fmt"

	domrepo "StockLens/internal/domain/repository"
	"StockLens/internal/handler/api"
	internalrepo "StockLens/internal/repository"
	svcmetrics "StockLens/internal/service/metrics"
	"StockLens/internal/service/ratelimit"
	"StockLens/internal/services/anomaly"
	"StockLens/internal/services/indicators"
	"StockLens/internal/usecase"
	"StockLens/pkg/cache"
	pkgch "StockLens/pkg/clickhouse"
	"StockLens/pkg/config"
	xhttp "StockLens/pkg/http"
	pkgkafka "StockLens/pkg/kafka"
	applogger "StockLens/pkg/logger"
	"StockLens/pkg/metrics"
	"StockLens/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// Toolkit bundles the usecases the one-shot CLI commands and the REPL need.
type Toolkit struct {
	Config    *config.Config
	Logger    *applogger.Logger
	Analyzer  *usecase.Analyzer
	Dashboard *usecase.Dashboard
	Exporter  *usecase.Exporter
	Watcher   *usecase.Watcher
}

// ProvideLogger creates the application logger from the logging section.
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

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op one when
// metrics are disabled.
func ProvideMetrics(cfg *config.Config) domrepo.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Noop{}
	}
	svcmetrics.Register()
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideHTTPClient creates the outbound client used by the Yahoo source.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Yahoo.Timeout))
}

// ProvideBarCache creates the bar cache. Redis is layered behind an
// in-process LRU when enabled.
func ProvideBarCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Cache.Enabled {
		return nil, func() {}, nil
	}
	if cfg.Cache.Redis.Enabled {
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
			cache.WithRedisAuth(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		lc := cache.NewLayeredCache(rc, cfg.Cache.MemoryMaxSize, 0)
		l.Info("bar cache ready", applogger.String("backend", "redis"),
			applogger.String("addr", fmt.Sprintf("%s:%d", cfg.Cache.Redis.Host, cfg.Cache.Redis.Port)))
		return lc, func() { _ = lc.Close() }, nil
	}

	mc := cache.NewMemoryCache(
		cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
		cache.WithMemoryDefaultTTL(cfg.Cache.TTL),
	)
	l.Info("bar cache ready", applogger.String("backend", "memory"), applogger.Int("max_size", cfg.Cache.MemoryMaxSize))
	return mc, func() { _ = mc.Close() }, nil
}

// ProvidePriceSource builds the configured source with its breaker and
// cache decorators.
func ProvidePriceSource(cfg *config.Config, client *xhttp.Client, c cache.Service, m domrepo.Metrics, l *applogger.Logger) (domrepo.PriceSource, func(), error) {
	var (
		src     domrepo.PriceSource
		cleanup = func() {}
	)

	switch cfg.Source.Type {
	case "clickhouse":
		ch, err := newClickHouseSource(cfg, m, l)
		if err != nil {
			return nil, nil, err
		}
		src = ch
		cleanup = func() { _ = ch.Close() }
	default:
		src = newYahooSource(cfg, client, m, l)
	}

	if c != nil {
		src = internalrepo.NewCachedPriceSource(src, c, cfg.Cache.TTL, m, l)
	}
	l.Info("price source ready", applogger.String("source", src.Name()), applogger.Bool("cached", c != nil))
	return src, cleanup, nil
}

// newYahooSource wraps the Yahoo chart client in a circuit breaker.
func newYahooSource(cfg *config.Config, client *xhttp.Client, m domrepo.Metrics, l *applogger.Logger) *internalrepo.BreakerPriceSource {
	yahoo := internalrepo.NewYahooPriceSource(client,
		internalrepo.WithYahooBaseURL(cfg.Yahoo.BaseURL),
		internalrepo.WithYahooInterval(cfg.Yahoo.Interval),
		internalrepo.WithYahooRateLimit(cfg.Yahoo.RequestsPerSecond),
		internalrepo.WithYahooRetry(internalrepo.RetryConfig{
			MaxRetries:     cfg.Yahoo.Retry.MaxRetries,
			InitialBackoff: cfg.Yahoo.Retry.InitialBackoff,
			MaxBackoff:     cfg.Yahoo.Retry.MaxBackoff,
		}),
		internalrepo.WithYahooMetrics(m),
		internalrepo.WithYahooLogger(l),
	)
	return internalrepo.NewBreakerPriceSource(yahoo, internalrepo.BreakerConfig{
		MaxRequests: cfg.Yahoo.Breaker.MaxRequests,
		Interval:    cfg.Yahoo.Breaker.Interval,
		Timeout:     cfg.Yahoo.Breaker.Timeout,
	}, m, l)
}

// chSource owns the client it was opened with.
type chSource struct {
	*internalrepo.CHPriceSource
	client *pkgch.Client
}

func (s chSource) Close() error { return s.client.Close() }

func newClickHouseSource(cfg *config.Config, m domrepo.Metrics, l *applogger.Logger) (chSource, error) {
	client, err := pkgch.NewClient(pkgch.Config{
		Host:        cfg.ClickHouse.Host,
		Port:        cfg.ClickHouse.Port,
		Database:    cfg.ClickHouse.Database,
		User:        cfg.ClickHouse.User,
		Password:    cfg.ClickHouse.Password,
		UseHTTP:     cfg.ClickHouse.UseHTTP,
		DialTimeout: cfg.ClickHouse.DialTimeout,
		ReadTimeout: cfg.ClickHouse.ReadTimeout,
		MaxExecTime: cfg.ClickHouse.MaxExecutionTime,
		InsertChunk: cfg.ClickHouse.InsertChunk,
	})
	if err != nil {
		return chSource{}, fmt.Errorf("clickhouse client: %w", err)
	}
	src, err := internalrepo.NewCHPriceSource(client, cfg.ClickHouse.Database, cfg.ClickHouse.Table, m, l)
	if err != nil {
		_ = client.Close()
		return chSource{}, err
	}
	return chSource{CHPriceSource: src, client: client}, nil
}

// ProvideIngestor copies Yahoo bars into ClickHouse regardless of the
// configured read source.
func ProvideIngestor(cfg *config.Config, client *xhttp.Client, m domrepo.Metrics, l *applogger.Logger) (*usecase.Ingestor, func(), error) {
	store, err := newClickHouseSource(cfg, m, l)
	if err != nil {
		return nil, nil, err
	}
	return usecase.NewIngestor(newYahooSource(cfg, client, m, l), store, l), func() { _ = store.Close() }, nil
}

// ProvideHealthHandler checks the price source (and its cache) when it can
// be pinged.
func ProvideHealthHandler(src domrepo.PriceSource) xhttp.HealthHandler {
	checks := map[string]xhttp.HealthCheck{}
	if p, ok := src.(domrepo.Pinger); ok {
		checks["price_source"] = p.Ping
	}
	return xhttp.HealthHandler{Checks: checks}
}

// ProvideAnalysisConfig maps the analysis section onto usecase parameters.
func ProvideAnalysisConfig(cfg *config.Config) (usecase.AnalysisConfig, error) {
	divisor, err := indicators.ParseDivisorMode(cfg.Analysis.SMADivisor)
	if err != nil {
		return usecase.AnalysisConfig{}, err
	}
	return usecase.AnalysisConfig{
		SMAWindow:        cfg.Analysis.SMAWindow,
		RSIWindow:        cfg.Analysis.RSIWindow,
		AnomalyThreshold: cfg.Analysis.AnomalyThreshold,
		Divisor:          divisor,
		ZScore: anomaly.ZScoreOptions{
			Window:     cfg.Analysis.ZScore.Window,
			Threshold:  cfg.Analysis.ZScore.Threshold,
			MinNonNull: cfg.Analysis.ZScore.MinNonNull,
		},
		Timeout: cfg.Analysis.Timeout,
	}, nil
}

func ProvideAnalyzer(src domrepo.PriceSource, ac usecase.AnalysisConfig, m domrepo.Metrics, l *applogger.Logger) *usecase.Analyzer {
	return usecase.NewAnalyzer(src, ac, m, l)
}

// ProvideAlertPublisher creates the Kafka publisher, or a no-op one when
// Kafka is disabled.
func ProvideAlertPublisher(cfg *config.Config, l *applogger.Logger) (domrepo.AlertPublisher, func(), error) {
	k := cfg.Alerts.Kafka
	if !cfg.Alerts.Enabled || !k.Enabled {
		return internalrepo.NoopAlertPublisher{}, func() {}, nil
	}
	var reg prometheus.Registerer
	if cfg.Metrics.Enabled {
		reg = prometheus.DefaultRegisterer
	}
	producer, err := pkgkafka.NewProducer(pkgkafka.Config{
		Brokers:      k.Brokers,
		Topic:        k.Topic,
		Acks:         k.Acks,
		Compression:  k.Compression,
		MaxAttempts:  k.MaxAttempts,
		WriteTimeout: k.WriteTimeout,
	}, reg)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaAlertPublisher(producer, l)
	return pub, func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}, nil
}

func ProvideWatcher(cfg *config.Config, analyzer *usecase.Analyzer, pub domrepo.AlertPublisher, l *applogger.Logger) *usecase.Watcher {
	return usecase.NewWatcher(analyzer, pub, usecase.WatchConfig{
		Schedule:     cfg.Alerts.Schedule,
		Watchlist:    cfg.Alerts.Watchlist,
		LookbackDays: cfg.Alerts.LookbackDays,
		ZScore: anomaly.ZScoreOptions{
			Window:     cfg.Analysis.ZScore.Window,
			Threshold:  cfg.Analysis.ZScore.Threshold,
			MinNonNull: cfg.Analysis.ZScore.MinNonNull,
		},
	}, l)
}

// ProvideDashboard creates the dashboard and loads the configured portfolio
// CSV. A CSV that fails to load is logged and the portfolio starts empty.
func ProvideDashboard(cfg *config.Config, src domrepo.PriceSource, watcher *usecase.Watcher, l *applogger.Logger) *usecase.Dashboard {
	d := usecase.NewDashboard(src, usecase.DashboardConfig{
		MaxNews:     cfg.Dashboard.MaxNews,
		HistoryDays: cfg.Dashboard.HistoryDays,
	}, watcher, l)
	if path := cfg.Dashboard.PortfolioCSV; path != "" {
		if _, err := d.LoadPortfolio(path); err != nil {
			l.Warn("portfolio csv not loaded", applogger.String("path", path), applogger.Error(err))
		}
	}
	return d
}

func ProvideExporter(cfg *config.Config, l *applogger.Logger) *usecase.Exporter {
	return usecase.NewExporter(cfg.Export.Dir, cfg.State.Path, l)
}

// ProvideRateLimiter returns nil when inbound limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Burst, cfg.RateLimit.RefillPerSec)
}

// ProvideHTTPServer registers every API handler on the echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	limiter *ratelimit.Limiter,
	analyzer *usecase.Analyzer,
	exporter *usecase.Exporter,
	dashboard *usecase.Dashboard,
	watcher *usecase.Watcher,
	health xhttp.HealthHandler,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithAddr(cfg.Server.Host, cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
	}
	if !cfg.Server.CORS {
		opts = append(opts, xhttp.WithCORS(nil))
	}
	if limiter != nil {
		opts = append(opts, xhttp.WithRateLimiter(limiter))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer, cfg.Metrics.Path))
	}

	return xhttp.NewServer([]xhttp.Handler{
		health,
		api.NewAnalysisEchoHandler(l, analyzer, exporter),
		api.NewDashboardEchoHandler(l, dashboard, watcher),
	}, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, watcher *usecase.Watcher, limiter *ratelimit.Limiter) *server.App {
	return server.New(cfg, l, srv, watcher, limiter)
}

func ProvideToolkit(cfg *config.Config, l *applogger.Logger, analyzer *usecase.Analyzer, dashboard *usecase.Dashboard, exporter *usecase.Exporter, watcher *usecase.Watcher) *Toolkit {
	return &Toolkit{
		Config:    cfg,
		Logger:    l,
		Analyzer:  analyzer,
		Dashboard: dashboard,
		Exporter:  exporter,
		Watcher:   watcher,
	}
}
