package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name
const Namespace = "finboard"

// Collector holds the application's Prometheus metrics on a private registry
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Commands      *prometheus.CounterVec
	ImportedRows  *prometheus.CounterVec
	Transactions  prometheus.Gauge
	StorageErrors *prometheus.CounterVec

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry, so tests can build
// as many as they like.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "ledger_commands_total",
				Help:      "Ledger commands applied, by command and outcome",
			},
			[]string{"command", "status"},
		),
		ImportedRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "imported_transactions_total",
				Help:      "Transactions added through file import",
			},
			[]string{"format"},
		),
		Transactions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "ledger_transactions",
				Help:      "Number of transactions currently in the ledger",
			},
		),
		StorageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "storage_errors_total",
				Help:      "Failed key-value store operations",
			},
			[]string{"operation", "key"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Commands,
		c.ImportedRows,
		c.Transactions,
		c.StorageErrors,
		c.CacheHits,
		c.CacheMisses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the registry the metrics live on
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveCommand counts a ledger command; err decides the status label
func (c *Collector) ObserveCommand(command string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.Commands.WithLabelValues(command, status).Inc()
}

func (c *Collector) ObserveImport(format string, rows int) {
	c.ImportedRows.WithLabelValues(format).Add(float64(rows))
}

func (c *Collector) SetTransactionCount(n int) {
	c.Transactions.Set(float64(n))
}

func (c *Collector) StorageError(operation, key string) {
	c.StorageErrors.WithLabelValues(operation, key).Inc()
}

func (c *Collector) CacheHit(name string) {
	c.CacheHits.WithLabelValues(name).Inc()
}

func (c *Collector) CacheMiss(name string) {
	c.CacheMisses.WithLabelValues(name).Inc()
}
