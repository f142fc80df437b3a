package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/ecommerce-catalog/pkg/health"
	"github.com/utafrali/ecommerce-catalog/pkg/middleware"
)

// RouterConfig holds the cross-cutting HTTP settings.
type RouterConfig struct {
	ServiceName    string
	CORS           middleware.CORSConfig
	RequestTimeout time.Duration
	// SearchMaxAge is the Cache-Control max-age sent with search results.
	SearchMaxAge time.Duration
}

// DefaultRouterConfig returns development defaults for serviceName.
func DefaultRouterConfig(serviceName string) RouterConfig {
	return RouterConfig{
		ServiceName:    serviceName,
		CORS:           middleware.DefaultCORSConfig(),
		RequestTimeout: 30 * time.Second,
		SearchMaxAge:   30 * time.Second,
	}
}

// NewRouter creates a chi router with all catalog routes registered.
func NewRouter(
	searcher Searcher,
	catalog Catalog,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	searchHandler := NewSearchHandler(searcher, logger)
	productHandler := NewProductHandler(catalog, logger)
	categoryHandler := NewCategoryHandler(catalog, logger)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.With(middleware.CacheControl(cfg.SearchMaxAge)).Get("/search", searchHandler.Search)
		r.Get("/{id}", productHandler.GetProduct)
	})

	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", categoryHandler.ListCategories)
	})

	return r
}
