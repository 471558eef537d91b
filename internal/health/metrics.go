package health

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// healthMetrics holds Prometheus metrics for health checks.
type healthMetrics struct {
	checksTotal   *prometheus.CounterVec
	checkStatus   *prometheus.GaugeVec
	checkDuration *prometheus.HistogramVec
}

var (
	healthMetricsInstance *healthMetrics
	healthMetricsOnce     sync.Once
)

// getHealthMetrics returns the singleton health metrics instance.
func getHealthMetrics() *healthMetrics {
	healthMetricsOnce.Do(func() {
		healthMetricsInstance = &healthMetrics{
			checksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "webfunc",
					Subsystem: "health",
					Name:      "checks_total",
					Help:      "Total number of health checks performed",
				},
				[]string{"check", "result"},
			),
			checkStatus: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "webfunc",
					Subsystem: "health",
					Name:      "check_status",
					Help:      "Current health check status (1=healthy, 0=unhealthy)",
				},
				[]string{"check"},
			),
			checkDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "webfunc",
					Subsystem: "health",
					Name:      "check_duration_seconds",
					Help:      "Duration of health checks in seconds",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"check"},
			),
		}
	})
	return healthMetricsInstance
}

func (m *healthMetrics) record(check string, healthy bool, d time.Duration) {
	result, status := "success", 1.0
	if !healthy {
		result, status = "failure", 0
	}
	m.checksTotal.WithLabelValues(check, result).Inc()
	m.checkStatus.WithLabelValues(check).Set(status)
	m.checkDuration.WithLabelValues(check).Observe(d.Seconds())
}
