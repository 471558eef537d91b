package route

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// regexCacheMetrics contains Prometheus metrics for the route regex cache.
type regexCacheMetrics struct {
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter
	cacheSize      prometheus.Gauge
}

var (
	regexCacheMetricsInstance *regexCacheMetrics
	regexCacheMetricsOnce     sync.Once
)

// getRegexCacheMetrics returns the singleton regex cache metrics instance.
func getRegexCacheMetrics() *regexCacheMetrics {
	regexCacheMetricsOnce.Do(func() {
		opts := func(name, help string) prometheus.CounterOpts {
			return prometheus.CounterOpts{
				Namespace: "webfunc",
				Subsystem: "route",
				Name:      name,
				Help:      help,
			}
		}
		regexCacheMetricsInstance = &regexCacheMetrics{
			cacheHits: promauto.NewCounter(opts(
				"regex_cache_hits_total", "Total number of route regex cache hits")),
			cacheMisses: promauto.NewCounter(opts(
				"regex_cache_misses_total", "Total number of route regex cache misses")),
			cacheEvictions: promauto.NewCounter(opts(
				"regex_cache_evictions_total", "Total number of route regex cache evictions")),
			cacheSize: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "webfunc",
				Subsystem: "route",
				Name:      "regex_cache_size",
				Help:      "Current number of entries in the route regex cache",
			}),
		}
	})
	return regexCacheMetricsInstance
}
