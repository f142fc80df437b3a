package database

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func describe(c prometheus.Collector) []string {
	ch := make(chan *prometheus.Desc, 32)
	c.Describe(ch)
	close(ch)

	var out []string
	for d := range ch {
		out = append(out, d.String())
	}
	return out
}

func TestPoolStatsCollector_Describe(t *testing.T) {
	descs := describe(NewPoolStatsCollector(nil, "catalog-service"))
	require.Len(t, descs, 10)

	for _, name := range []string{
		"db_pool_acquired_connections",
		"db_pool_idle_connections",
		"db_pool_total_connections",
		"db_pool_max_connections",
		"db_pool_acquire_duration_seconds_total",
		"db_pool_new_connections_total",
	} {
		found := false
		for _, d := range descs {
			if strings.Contains(d, `"`+name+`"`) {
				found = true
				break
			}
		}
		assert.True(t, found, name)
	}
}

func TestRegisterPoolMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, RegisterPoolMetrics(reg, nil, "catalog-service"))

	err := RegisterPoolMetrics(reg, nil, "catalog-service")
	var already prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &already)
}
