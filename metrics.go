package vello

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector exposes Prometheus metrics for the request pipeline. All
// methods are nil-safe so the client can run without metrics. It is safe for
// concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   *prometheus.GaugeVec

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vello_requests_total",
				Help: "Total number of HTTP requests completed",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vello_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vello_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vello_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"method", "endpoint", "attempt"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vello_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"method", "endpoint"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vello_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"method", "endpoint"},
		),
		cacheSize: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vello_cache_size_entries",
				Help: "Number of entries currently cached",
			},
			[]string{"backend"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vello_errors_total",
				Help: "Total number of request errors by classification code",
			},
			[]string{"code", "method", "endpoint"},
		),
	}
}

// RecordRequestStart marks a request in flight.
func (m *MetricsCollector) RecordRequestStart(method, endpoint string) {
	if m == nil {
		return
	}
	m.requestsInFlight.WithLabelValues(method, endpoint).Inc()
}

// RecordRequestEnd clears the in-flight marker.
func (m *MetricsCollector) RecordRequestEnd(method, endpoint string) {
	if m == nil {
		return
	}
	m.requestsInFlight.WithLabelValues(method, endpoint).Dec()
}

// RecordRequest observes a completed request. statusCode 0 means the request
// failed before a response was received.
func (m *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(statusCode)
	m.requestsTotal.WithLabelValues(method, code, endpoint).Inc()
	m.requestDuration.WithLabelValues(method, code, endpoint).Observe(duration.Seconds())
}

// RecordRetry counts one retry attempt.
func (m *MetricsCollector) RecordRetry(method, endpoint string, attempt int) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(method, endpoint, strconv.Itoa(attempt)).Inc()
}

// RecordCacheHit counts a cache-served response.
func (m *MetricsCollector) RecordCacheHit(method, endpoint string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(method, endpoint).Inc()
}

// RecordCacheMiss counts an eligible request that missed the cache.
func (m *MetricsCollector) RecordCacheMiss(method, endpoint string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(method, endpoint).Inc()
}

// RecordCacheSize sets the entry count gauge for a backend.
func (m *MetricsCollector) RecordCacheSize(backend string, size int) {
	if m == nil {
		return
	}
	m.cacheSize.WithLabelValues(backend).Set(float64(size))
}

// RecordError counts a raised error by classification code.
func (m *MetricsCollector) RecordError(code, method, endpoint string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(code, method, endpoint).Inc()
}
