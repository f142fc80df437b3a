package redis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts search lookups answered from Redis.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_search_cache_hits_total",
		Help: "Total number of product search results served from cache",
	})

	// CacheMisses counts search lookups that found no cached result.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_search_cache_misses_total",
		Help: "Total number of product search cache misses",
	})

	// CacheErrors counts failed Redis operations by operation name.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_search_cache_errors_total",
			Help: "Total number of failed search cache operations",
		},
		[]string{"operation"},
	)

	// CacheInvalidatedKeys counts keys removed by namespace invalidation.
	CacheInvalidatedKeys = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_search_cache_invalidated_keys_total",
		Help: "Total number of search cache keys removed by invalidation",
	})
)
