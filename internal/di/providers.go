package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/repository"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/service"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/handler/api"
	internalrepo "github.com/Prizeman-Enterprise/crypto-super-hub/internal/repository"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/scheduler"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/service/binance"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/service/cache"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/service/pricefeed"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/services/risk"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/usecase"
	pkgch "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/clickhouse"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/config"
	xhttp "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/http"
	pkgkafka "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/kafka"
	applogger "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/logger"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/metrics"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideLogger builds the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.NewWithRegistry(prometheus.DefaultRegisterer)
}

func ProvideProfiles(cfg *config.Config) ([]models.AssetProfile, error) {
	return cfg.Profiles()
}

// ProvideKlineFetcher creates the Binance client.
func ProvideKlineFetcher(cfg *config.Config, l *applogger.Logger) repository.KlineFetcher {
	b := cfg.Binance
	return binance.New(
		binance.WithBaseURL(b.BaseURL),
		binance.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(b.Timeout))),
		binance.WithRetry(b.MaxRetries, b.RetryDelay),
		binance.WithRateLimit(b.Burst, b.RequestsPerSecond),
		binance.WithPageLimit(b.PageLimit),
		binance.WithLogger(l),
	)
}

// ProvidePriceSource merges the embedded pre-listing table with exchange data.
func ProvidePriceSource(fetcher repository.KlineFetcher, l *applogger.Logger) (repository.PriceSource, error) {
	anchors, err := pricefeed.DefaultAnchors()
	if err != nil {
		return nil, fmt.Errorf("pre-listing table: %w", err)
	}
	return pricefeed.NewSource(fetcher, anchors, l), nil
}

func ProvideRiskScorer() service.RiskScorer {
	return risk.NewScorer()
}

func ProvideReportWriter(cfg *config.Config) repository.ReportWriter {
	return internalrepo.NewFileWriter(cfg.Output.Dir, cfg.Engine.PrimaryAsset, cfg.Output.LegacyLatest)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	c := cfg.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(c.Host),
		pkgch.WithPort(c.Port),
		pkgch.WithDatabase(c.Database),
		pkgch.WithCredentials(c.User, c.Password),
		pkgch.WithMaxConnections(4, 2),
		pkgch.WithHTTP(c.UseHTTP),
		pkgch.WithTimeouts(c.DialTimeout, c.ReadTimeout),
		pkgch.WithMaxExecutionTime(c.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideScoreStore opens the configured history backend and ensures its schema.
func ProvideScoreStore(cfg *config.Config, l *applogger.Logger) (repository.ScoreStore, func(), error) {
	var (
		store   repository.ScoreStore
		cleanup = func() {}
	)

	switch cfg.Store.Backend {
	case "clickhouse":
		client, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		store = internalrepo.NewCHScoreStore(client, cfg.ClickHouse.Table, l)
		cleanup = func() {
			if err := client.Close(); err != nil {
				l.Warn("clickhouse close error", applogger.Error(err))
			}
		}
	case "sqlite":
		s, err := internalrepo.NewSQLiteScoreStore(cfg.Store.SQLitePath, l)
		if err != nil {
			return nil, nil, err
		}
		store = s
		cleanup = func() {
			if err := s.Close(); err != nil {
				l.Warn("sqlite close error", applogger.Error(err))
			}
		}
	default:
		return internalrepo.NoopScoreStore{}, cleanup, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%s schema: %w", cfg.Store.Backend, err)
	}
	l.Info("score store ready", applogger.String("backend", cfg.Store.Backend))
	return store, cleanup, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	k := cfg.Kafka
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithMaxAttempts(k.MaxAttempts),
		pkgkafka.WithTimeouts(k.WriteTimeout, k.ReadTimeout),
		pkgkafka.WithAutoCreateTopic(k.AutoCreateTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideScorePublisher returns the Kafka publisher, or a no-op when Kafka is off.
func ProvideScorePublisher(cfg *config.Config, l *applogger.Logger) (repository.ScorePublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, func() {}, nil
	}
	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, nil, err
	}
	pub := internalrepo.NewKafkaScorePublisher(producer, cfg.Kafka.Topic)
	l.Info("kafka publisher ready",
		applogger.Strings("brokers", cfg.Kafka.Brokers),
		applogger.String("topic", cfg.Kafka.Topic),
	)
	return pub, func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}, nil
}

// ProvideReportCache uses Redis when enabled and an in-process cache otherwise.
func ProvideReportCache(cfg *config.Config, profiles []models.AssetProfile, l *applogger.Logger) (*cache.ReportCache, func(), error) {
	var backend cache.BytesCache = cache.NewTTLCache()
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
		defer cancel()
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		backend = rc
		l.Info("redis cache ready", applogger.String("addr", cfg.Redis.Addr))
	}
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.AssetID)
	}
	rc := cache.NewReportCache(backend, cfg.Redis.TTL, ids...)
	return rc, func() {
		if err := rc.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}, nil
}

func ProvideRiskRunner(
	cfg *config.Config,
	profiles []models.AssetProfile,
	source repository.PriceSource,
	scorer service.RiskScorer,
	writer repository.ReportWriter,
	store repository.ScoreStore,
	publisher repository.ScorePublisher,
	rc *cache.ReportCache,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.RiskRunner {
	return usecase.NewRiskRunner(profiles, source, scorer, writer, store, publisher,
		usecase.WithWorkers(cfg.Engine.Workers),
		usecase.WithPrimaryAsset(cfg.Engine.PrimaryAsset),
		usecase.WithEngineVersion(cfg.Engine.EngineVersion),
		usecase.WithHistoryCSV(cfg.Output.WriteCSV),
		usecase.WithSnapshotCache(rc),
		usecase.WithRunLocker(rc, cfg.Engine.LockTTL),
		usecase.WithRunnerMetrics(m),
		usecase.WithRunnerLogger(l),
	)
}

func ProvideScheduler(cfg *config.Config, runner *usecase.RiskRunner, l *applogger.Logger) (*scheduler.Scheduler, error) {
	return scheduler.New(runner, cfg.Schedule.Cron, cfg.Engine.RunTimeout, l)
}

func ProvideScoresQuery(
	runner *usecase.RiskRunner,
	rc *cache.ReportCache,
	store repository.ScoreStore,
	profiles []models.AssetProfile,
	l *applogger.Logger,
) *usecase.ScoresQueryUseCase {
	return usecase.NewScoresQueryUseCase(runner, rc, store, profiles, l)
}

func ProvideScoresHandler(l *applogger.Logger, uc *usecase.ScoresQueryUseCase, sched *scheduler.Scheduler) *api.ScoresEchoHandler {
	return api.NewScoresEchoHandler(l, uc, sched)
}

// ProvideHTTPServer builds the Echo server; nil when the server is disabled.
func ProvideHTTPServer(cfg *config.Config, h *api.ScoresEchoHandler, l *applogger.Logger) *xhttp.Server {
	if !cfg.Server.Enabled {
		return nil
	}
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{h},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(metricsPath, prometheus.DefaultRegisterer, prometheus.DefaultGatherer),
		xhttp.WithLogger(l, cfg.Server.SlowRequest),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	runner *usecase.RiskRunner,
	sched *scheduler.Scheduler,
	httpServer *xhttp.Server,
) *server.App {
	return server.New(cfg, l, runner, sched, httpServer)
}
