// Package metrics collects and exposes Prometheus metrics for the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records gateway activity. All methods are safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	operations      *prometheus.CounterVec
	operationErrors *prometheus.CounterVec
	remoteStatus    *prometheus.CounterVec
	remoteLatency   prometheus.Histogram
	activeSessions  prometheus.Gauge
	sweptSessions   prometheus.Counter
	clonesStarted   prometheus.Counter
}

// NewCollector creates a Collector backed by its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_operations_total",
			Help: "Gateway operations by name",
		}, []string{"operation"}),
		operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_operation_errors_total",
			Help: "Gateway operation failures by error kind",
		}, []string{"operation", "kind"}),
		remoteStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_remote_status_total",
			Help: "Responses from the remote API by HTTP status code",
		}, []string{"status_code"}),
		remoteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_remote_latency_seconds",
			Help:    "Latency of remote API calls in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_active_sessions",
			Help: "Number of live sessions in the store",
		}),
		sweptSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_swept_sessions_total",
			Help: "Sessions removed by expiry sweeps",
		}),
		clonesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_clones_started_total",
			Help: "Clone operations started",
		}),
	}

	reg.MustRegister(
		c.operations,
		c.operationErrors,
		c.remoteStatus,
		c.remoteLatency,
		c.activeSessions,
		c.sweptSessions,
		c.clonesStarted,
	)

	return c
}

func (c *Collector) RecordOperation(operation string) {
	c.operations.WithLabelValues(operation).Inc()
}

func (c *Collector) RecordOperationError(operation, kind string) {
	c.operationErrors.WithLabelValues(operation, kind).Inc()
}

func (c *Collector) RecordRemoteStatus(statusCode int) {
	c.remoteStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordRemoteLatency(d time.Duration) {
	c.remoteLatency.Observe(d.Seconds())
}

func (c *Collector) SetActiveSessions(n int) {
	c.activeSessions.Set(float64(n))
}

func (c *Collector) RecordSweep(removed int) {
	c.sweptSessions.Add(float64(removed))
}

func (c *Collector) RecordCloneStarted() {
	c.clonesStarted.Inc()
}

// Handler returns the HTTP handler exposing the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
