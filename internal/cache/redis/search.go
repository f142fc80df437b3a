package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/ecommerce-catalog/internal/domain"
	"github.com/utafrali/ecommerce-catalog/internal/search"
)

// scanBatchSize is the COUNT hint passed to SCAN during invalidation.
const scanBatchSize = 200

// SearchCache implements repository.SearchCache using Redis.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSearchCache creates a new Redis-backed search result cache.
func NewSearchCache(client *redis.Client, ttl time.Duration) *SearchCache {
	return &SearchCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached result stored under key, or nil on a miss.
func (c *SearchCache) Get(ctx context.Context, key string) (*domain.SearchResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return nil, nil
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get search result: %w", err)
	}

	var result domain.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		CacheErrors.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("unmarshal search result: %w", err)
	}

	CacheHits.Inc()
	return &result, nil
}

// Set stores result under key with the configured TTL.
func (c *SearchCache) Set(ctx context.Context, key string, result *domain.SearchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal search result: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set search result: %w", err)
	}

	return nil
}

// InvalidateAll deletes every key in the search cache namespace.
func (c *SearchCache) InvalidateAll(ctx context.Context) error {
	var (
		cursor  uint64
		removed int64
	)

	for {
		keys, next, err := c.client.Scan(ctx, cursor, search.CacheKeyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			CacheErrors.WithLabelValues("scan").Inc()
			return fmt.Errorf("redis scan search keys: %w", err)
		}

		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				CacheErrors.WithLabelValues("del").Inc()
				return fmt.Errorf("redis del search keys: %w", err)
			}
			removed += n
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	CacheInvalidatedKeys.Add(float64(removed))
	return nil
}

// Ping checks connectivity to Redis.
func (c *SearchCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
