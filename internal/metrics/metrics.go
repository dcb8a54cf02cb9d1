// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "policydesk"

// Fan-out lookup outcomes.
const (
	LookupOK     = "ok"
	LookupFailed = "failed"
)

// Metrics holds all Prometheus metrics for the application.
//
// Methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	FanOutLookups       *prometheus.CounterVec
	PoliciesCreated     prometheus.Counter
}

// New creates a registry with the Go and process collectors and registers
// every application metric on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		FanOutLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fanout_policy_lookups_total",
			Help:      "Per-applicant policy lookups issued by the fan-out lister",
		}, []string{"outcome"}),
		PoliciesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policies_created_total",
			Help:      "Total number of policies created",
		}),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterPool exposes live connection pool statistics.
func (m *Metrics) RegisterPool(pool *pgxpool.Pool) {
	if m == nil || pool == nil {
		return
	}
	gauge := func(name, help string, value func(*pgxpool.Stat) int32) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value(pool.Stat())) })
	}
	m.registry.MustRegister(
		gauge("acquired_conns", "Connections currently checked out of the pool", (*pgxpool.Stat).AcquiredConns),
		gauge("idle_conns", "Idle connections held by the pool", (*pgxpool.Stat).IdleConns),
		gauge("total_conns", "All connections held by the pool", (*pgxpool.Stat).TotalConns),
		gauge("max_conns", "Upper bound of pool connections", (*pgxpool.Stat).MaxConns),
	)
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveFanOutLookup(outcome string) {
	if m == nil {
		return
	}
	m.FanOutLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementPoliciesCreated() {
	if m == nil {
		return
	}
	m.PoliciesCreated.Inc()
}
