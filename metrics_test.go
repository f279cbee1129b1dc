package vello

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordedForRequests(t *testing.T) {
	server, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)
	client := New(WithBaseURL(server.URL), WithMetricsCollector(collector))

	_, err := client.Get(context.Background(), "/users", nil)
	require.NoError(t, err)

	endpoint := endpointLabel(&RequestConfig{URL: server.URL + "/users"})
	got := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("GET", "200", endpoint))
	assert.Equal(t, 1.0, got)

	inFlight := testutil.ToFloat64(collector.requestsInFlight.WithLabelValues("GET", endpoint))
	assert.Equal(t, 0.0, inFlight)
}

func TestMetricsRecordRetriesAndErrors(t *testing.T) {
	server, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)
	client := New(
		WithBaseURL(server.URL),
		WithMetricsCollector(collector),
		WithRetry(RetryPolicy{MaxRetries: 2, Delay: time.Millisecond}),
	)

	_, err := client.Get(context.Background(), "/flaky", nil)
	require.Error(t, err)

	endpoint := endpointLabel(&RequestConfig{URL: server.URL + "/flaky"})
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.retriesTotal.WithLabelValues("GET", endpoint, "1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.retriesTotal.WithLabelValues("GET", endpoint, "2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.errorsTotal.WithLabelValues("500", "GET", endpoint)))
}

func TestMetricsRecordCacheHitsAndMisses(t *testing.T) {
	server, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)
	client := New(
		WithBaseURL(server.URL),
		WithMetricsCollector(collector),
		WithCache(CachePolicy{Enabled: true, TTL: time.Minute}),
	)
	ctx := context.Background()

	_, err := client.Get(ctx, "/users", nil)
	require.NoError(t, err)
	_, err = client.Get(ctx, "/users", nil)
	require.NoError(t, err)

	endpoint := endpointLabel(&RequestConfig{URL: server.URL + "/users"})
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.cacheMisses.WithLabelValues("GET", endpoint)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.cacheHits.WithLabelValues("GET", endpoint)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.cacheSize.WithLabelValues("memory")))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var m *MetricsCollector
	m.RecordRequestStart("GET", "e")
	m.RecordRequestEnd("GET", "e")
	m.RecordRequest("GET", "e", 200, time.Millisecond)
	m.RecordRetry("GET", "e", 1)
	m.RecordCacheHit("GET", "e")
	m.RecordCacheMiss("GET", "e")
	m.RecordCacheSize("memory", 1)
	m.RecordError(CodeTimeout, "GET", "e")
}
