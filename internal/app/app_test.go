package app

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ecommerce-catalog/pkg/health"
	pkgkafka "github.com/utafrali/ecommerce-catalog/pkg/kafka"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func up() pinger   { return pingFunc(func(context.Context) error { return nil }) }
func down() pinger { return pingFunc(func(context.Context) error { return errors.New("unreachable") }) }

func TestNewIdempotencyStore(t *testing.T) {
	t.Run("memory without redis", func(t *testing.T) {
		_, ok := newIdempotencyStore(nil).(*pkgkafka.MemoryIdempotencyStore)
		assert.True(t, ok)
	})

	t.Run("redis when available", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		store := newIdempotencyStore(client)
		_, ok := store.(*pkgkafka.RedisIdempotencyStore)
		require.True(t, ok)

		require.NoError(t, store.Add(context.Background(), "evt-1"))
		assert.True(t, mr.Exists(eventDedupPrefix+"evt-1"))
		assert.Equal(t, eventDedupTTL, mr.TTL(eventDedupPrefix+"evt-1"))
	})
}

func TestRegisterHealthChecks(t *testing.T) {
	tests := []struct {
		name          string
		db            pinger
		cache, broker pinger
		want          health.Status
		checks        []string
	}{
		{"all up", up(), up(), up(), health.StatusUp, []string{"postgres", "redis", "kafka"}},
		{"optional deps skipped", up(), nil, nil, health.StatusUp, []string{"postgres"}},
		{"cache down degrades", up(), down(), up(), health.StatusDegraded, []string{"postgres", "redis", "kafka"}},
		{"broker down degrades", up(), nil, down(), health.StatusDegraded, []string{"postgres", "kafka"}},
		{"postgres down", down(), up(), up(), health.StatusDown, []string{"postgres", "redis", "kafka"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := health.NewHandler()
			registerHealthChecks(h, tt.db, tt.cache, tt.broker)

			resp := h.Check(context.Background())
			assert.Equal(t, tt.want, resp.Status)
			assert.Len(t, resp.Checks, len(tt.checks))
			for _, name := range tt.checks {
				assert.Contains(t, resp.Checks, name)
			}
		})
	}
}
