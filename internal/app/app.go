package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	rediscache "github.com/utafrali/ecommerce-catalog/internal/cache/redis"
	"github.com/utafrali/ecommerce-catalog/internal/config"
	"github.com/utafrali/ecommerce-catalog/internal/event"
	handler "github.com/utafrali/ecommerce-catalog/internal/handler/http"
	"github.com/utafrali/ecommerce-catalog/internal/repository"
	"github.com/utafrali/ecommerce-catalog/internal/repository/postgres"
	"github.com/utafrali/ecommerce-catalog/internal/service"
	"github.com/utafrali/ecommerce-catalog/migrations"
	"github.com/utafrali/ecommerce-catalog/pkg/database"
	"github.com/utafrali/ecommerce-catalog/pkg/health"
	pkgkafka "github.com/utafrali/ecommerce-catalog/pkg/kafka"
	"github.com/utafrali/ecommerce-catalog/pkg/middleware"
	"github.com/utafrali/ecommerce-catalog/pkg/tracing"
)

const (
	// eventDedupTTL bounds how long a processed event ID is remembered.
	eventDedupTTL    = 24 * time.Hour
	eventDedupPrefix = "catalog:events:"
)

// pinger is satisfied by the postgres pool, the search cache and the kafka
// consumer.
type pinger interface {
	Ping(ctx context.Context) error
}

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	consumer       *pkgkafka.Consumer
	dlq            *pkgkafka.DLQProducer
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		_ = a.closeResources()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, config.ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			_ = a.closeResources()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")
	}

	if threshold := cfg.SlowQueryThreshold(); threshold > 0 {
		database.SetSlowQueryLogging(threshold, logger)
	}

	var (
		searchCache repository.SearchCache
		cachePinger pinger
	)
	if cfg.SearchCacheEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis(), logger)
		if err != nil {
			_ = a.closeResources()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		c := rediscache.NewSearchCache(client, cfg.SearchCacheTTL())
		searchCache, cachePinger = c, c
		logger.Info("search cache enabled",
			slog.String("addr", cfg.Redis().Addr()),
			slog.Duration("ttl", cfg.SearchCacheTTL()),
		)
	}

	// Build the dependency graph.
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	searchService := service.NewSearchService(productRepo, searchCache, logger)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, logger)

	var consumerPinger pinger
	if cfg.KafkaEnabled {
		a.consumer, a.dlq = newEventConsumer(cfg, searchService, a.redis, logger)
		consumerPinger = a.consumer
		logger.Info("kafka consumer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("group", cfg.KafkaConsumerGroup),
			slog.Any("topics", event.Topics()),
		)
	}

	healthHandler := health.NewHandler()
	registerHealthChecks(healthHandler, pool, cachePinger, consumerPinger)

	routerCfg := handler.DefaultRouterConfig(config.ServiceName)
	routerCfg.CORS = middleware.NewCORSConfig(cfg.CORSAllowedOrigins, cfg.Environment)
	router := handler.NewRouter(searchService, catalogService, healthHandler, logger, routerCfg)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// newEventConsumer builds the catalog change consumer. Processed event IDs
// are shared through redis when it is available so replicas skip each
// other's redeliveries.
func newEventConsumer(cfg *config.Config, invalidator event.CacheInvalidator, client *goredis.Client, logger *slog.Logger) (*pkgkafka.Consumer, *pkgkafka.DLQProducer) {
	handlerFn := event.NewConsumer(invalidator, logger).Handler(newIdempotencyStore(client))
	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)

	consumerCfg := pkgkafka.DefaultConsumerConfig(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, event.Topics()...)
	consumer := pkgkafka.NewConsumer(consumerCfg, handlerFn, logger).WithDeadLetter(dlq)
	return consumer, dlq
}

func newIdempotencyStore(client *goredis.Client) pkgkafka.IdempotencyStore {
	if client == nil {
		return pkgkafka.NewMemoryIdempotencyStore(eventDedupTTL)
	}
	return pkgkafka.NewRedisIdempotencyStore(client, eventDedupPrefix, eventDedupTTL)
}

// registerHealthChecks marks postgres critical; the cache and the broker
// only degrade readiness. Nil pingers are skipped.
func registerHealthChecks(h *health.Handler, db, cache, broker pinger) {
	h.RegisterCritical("postgres", db.Ping)
	if cache != nil {
		h.RegisterNonCritical("redis", cache.Ping)
	}
	if broker != nil {
		h.RegisterNonCritical("kafka", broker.Ping)
	}
}

// Run starts the HTTP server and the Kafka consumer, blocking until the
// context is canceled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		a.logger.Error("component failed, shutting down", slog.String("error", runErr.Error()))
	}

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components in order: HTTP server, Kafka
// consumer and DLQ producer, tracer, then the redis client and postgres pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	errs = append(errs, a.closeResources())

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources flushes spans and closes the storage clients that were
// opened. It is also used to unwind a partially built App.
func (a *App) closeResources() error {
	var errs []error

	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.redis = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	return errors.Join(errs...)
}
