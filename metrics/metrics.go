// Package metrics exposes dbcx pool/health observability as Prometheus
// metrics, grounded on dbbouncer's internal/metrics.Collector: the same
// gauge/histogram/counter shapes, re-keyed by (backend, pool) instead of
// (tenant, db_type) since a client library has pools, not tenants.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds every Prometheus metric dbcx emits about its pools.
type Collector struct {
	Registry *prometheus.Registry

	connectionsActive *prometheus.GaugeVec
	connectionsIdle   *prometheus.GaugeVec
	connectionsTotal  *prometheus.GaugeVec
	poolExhausted     *prometheus.CounterVec
	poolHealth        *prometheus.GaugeVec

	borrowWaitDuration  *prometheus.HistogramVec
	validationFailures  *prometheus.CounterVec
	healthCheckDuration *prometheus.HistogramVec
	healthCheckErrors   *prometheus.CounterVec
}

// New creates and registers all dbcx metrics on a fresh, independent
// registry — safe to call more than once (e.g. once per test), the same
// property dbbouncer's metrics.New documents.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		Registry: reg,
		connectionsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dbcx_connections_active",
				Help: "Number of borrowed connections per pool",
			},
			[]string{"backend", "pool"},
		),
		connectionsIdle: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dbcx_connections_idle",
				Help: "Number of idle connections per pool",
			},
			[]string{"backend", "pool"},
		),
		connectionsTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dbcx_connections_total",
				Help: "Total number of connections owned per pool",
			},
			[]string{"backend", "pool"},
		),
		poolExhausted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbcx_pool_exhausted_total",
				Help: "Number of wait steps borrows took because no connection was free",
			},
			[]string{"backend", "pool"},
		),
		poolHealth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dbcx_pool_health",
				Help: "Health status of a pool's backend (1=healthy, 0=unhealthy)",
			},
			[]string{"pool"},
		),
		borrowWaitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbcx_borrow_wait_duration_seconds",
				Help:    "Time spent waiting inside Pool.Borrow",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
			},
			[]string{"backend", "pool"},
		),
		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbcx_validation_failures_total",
				Help: "Validation-on-borrow/return failures per pool",
			},
			[]string{"backend", "pool"},
		),
		healthCheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbcx_health_check_duration_seconds",
				Help:    "Duration of a registered pool's health probe",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"pool", "status"},
		),
		healthCheckErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbcx_health_check_errors_total",
				Help: "Health check errors by pool",
			},
			[]string{"pool"},
		),
	}

	reg.MustRegister(
		c.connectionsActive,
		c.connectionsIdle,
		c.connectionsTotal,
		c.poolExhausted,
		c.poolHealth,
		c.borrowWaitDuration,
		c.validationFailures,
		c.healthCheckDuration,
		c.healthCheckErrors,
	)

	return c
}

// UpdatePoolStats records a pool's current active/idle/total counts.
func (c *Collector) UpdatePoolStats(backend, poolName string, active, idle, total int) {
	c.connectionsActive.WithLabelValues(backend, poolName).Set(float64(active))
	c.connectionsIdle.WithLabelValues(backend, poolName).Set(float64(idle))
	c.connectionsTotal.WithLabelValues(backend, poolName).Set(float64(total))
}

// PoolExhausted increments the exhaustion counter for a pool.
func (c *Collector) PoolExhausted(backend, poolName string) {
	c.poolExhausted.WithLabelValues(backend, poolName).Inc()
}

// ValidationFailed increments the validation-failure counter for a pool.
func (c *Collector) ValidationFailed(backend, poolName string) {
	c.validationFailures.WithLabelValues(backend, poolName).Inc()
}

// BorrowWaitDuration observes how long a Borrow call waited.
func (c *Collector) BorrowWaitDuration(backend, poolName string, d time.Duration) {
	c.borrowWaitDuration.WithLabelValues(backend, poolName).Observe(d.Seconds())
}

// SetPoolHealth sets the health gauge for a registered pool.
func (c *Collector) SetPoolHealth(poolName string, healthy bool) {
	val := 0.0
	if healthy {
		val = 1.0
	}
	c.poolHealth.WithLabelValues(poolName).Set(val)
}

// HealthCheckCompleted records a health probe's duration and outcome.
func (c *Collector) HealthCheckCompleted(poolName string, d time.Duration, healthy bool) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	c.healthCheckDuration.WithLabelValues(poolName, status).Observe(d.Seconds())
}

// HealthCheckError increments the health-check error counter for a pool.
func (c *Collector) HealthCheckError(poolName string) {
	c.healthCheckErrors.WithLabelValues(poolName).Inc()
}

// RemovePool drops every metric series associated with a pool that has
// been closed and unregistered, mirroring dbbouncer's RemoveTenant.
func (c *Collector) RemovePool(backend, poolName string) {
	c.connectionsActive.DeleteLabelValues(backend, poolName)
	c.connectionsIdle.DeleteLabelValues(backend, poolName)
	c.connectionsTotal.DeleteLabelValues(backend, poolName)
	c.poolExhausted.DeleteLabelValues(backend, poolName)
	c.poolHealth.DeleteLabelValues(poolName)
	c.borrowWaitDuration.DeletePartialMatch(prometheus.Labels{"pool": poolName})
	c.validationFailures.DeletePartialMatch(prometheus.Labels{"pool": poolName})
	c.healthCheckDuration.DeletePartialMatch(prometheus.Labels{"pool": poolName})
	c.healthCheckErrors.DeleteLabelValues(poolName)
}
