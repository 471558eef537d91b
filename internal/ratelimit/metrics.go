package ratelimit

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// redisLimiterMetrics contains Prometheus metrics for the Redis limiter.
type redisLimiterMetrics struct {
	operations *prometheus.CounterVec
	duration   prometheus.Histogram
	fallbacks  prometheus.Counter
}

var (
	redisLimiterMetricsInstance *redisLimiterMetrics
	redisLimiterMetricsOnce     sync.Once
)

// getRedisLimiterMetrics returns the singleton Redis limiter metrics.
func getRedisLimiterMetrics() *redisLimiterMetrics {
	redisLimiterMetricsOnce.Do(func() {
		redisLimiterMetricsInstance = &redisLimiterMetrics{
			operations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "webfunc",
					Subsystem: "ratelimit",
					Name:      "redis_operations_total",
					Help:      "Total number of Redis rate limit operations",
				},
				[]string{"status"},
			),
			duration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "webfunc",
					Subsystem: "ratelimit",
					Name:      "redis_operation_duration_seconds",
					Help:      "Duration of Redis rate limit operations in seconds",
					Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
				},
			),
			fallbacks: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "webfunc",
					Subsystem: "ratelimit",
					Name:      "redis_fallback_total",
					Help:      "Total number of checks answered by the fallback limiter",
				},
			),
		}
	})
	return redisLimiterMetricsInstance
}
