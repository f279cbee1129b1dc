package vello

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigLibraryDefaults(t *testing.T) {
	client := New()
	cfg := client.resolveConfig("/x", nil)

	assert.Equal(t, "GET", cfg.Method)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, contentTypeJSON, cfg.Headers[headerContentType])
	assert.Equal(t, 0, cfg.Retry.MaxRetries)
	assert.Equal(t, DefaultRetryDelay, cfg.Retry.Delay)
	require.NotNil(t, cfg.Retry.Condition)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, StorageMemory, cfg.Cache.Storage)
}

func TestResolveConfigPrecedence(t *testing.T) {
	client := New(
		WithBaseURL("https://api.test"),
		WithTimeout(20*time.Second),
		WithRetry(RetryPolicy{MaxRetries: 5, Delay: 2 * time.Second}),
	)

	cfg := client.resolveConfig("/users", &RequestOptions{
		Timeout: 3 * time.Second,
		Retry:   &RetryPolicy{MaxRetries: 1},
	})

	assert.Equal(t, "https://api.test/users", cfg.URL)
	assert.Equal(t, 3*time.Second, cfg.Timeout, "per-call timeout wins")
	assert.Equal(t, 1, cfg.Retry.MaxRetries, "per-call retries win")
	assert.Equal(t, 2*time.Second, cfg.Retry.Delay, "unset per-call fields inherit")
}

func TestResolveConfigContentTypeOverride(t *testing.T) {
	client := New(WithHeader("Content-Type", "application/xml"))
	cfg := client.resolveConfig("/x", nil)
	assert.Equal(t, "application/xml", cfg.Headers[headerContentType])

	cfg = client.resolveConfig("/x", &RequestOptions{
		Headers: map[string]string{"Content-Type": "text/csv"},
	})
	assert.Equal(t, "text/csv", cfg.Headers[headerContentType])
}

func TestResolveConfigCanonicalizesHeaderNames(t *testing.T) {
	client := New(WithHeader("x-api-version", "v2"))
	cfg := client.resolveConfig("/x", &RequestOptions{
		Headers: map[string]string{"content-type": "application/graphql"},
	})

	assert.Equal(t, "v2", cfg.Headers["X-Api-Version"])
	assert.Equal(t, "application/graphql", cfg.Headers[headerContentType])
	assert.NotContains(t, cfg.Headers, "content-type", "casing variants collapse into one key")
}

func TestMergeRetryZeroValuesInherit(t *testing.T) {
	base := RetryPolicy{MaxRetries: 4, Delay: 30 * time.Millisecond}

	merged := mergeRetry(base, nil)
	assert.Equal(t, 4, merged.MaxRetries)
	assert.Equal(t, 30*time.Millisecond, merged.Delay)
	require.NotNil(t, merged.Condition)

	merged = mergeRetry(base, &RetryPolicy{Delay: time.Minute})
	assert.Equal(t, 0, merged.MaxRetries, "explicit per-call policy sets MaxRetries verbatim")
	assert.Equal(t, time.Minute, merged.Delay)
}

func TestMergeCache(t *testing.T) {
	base := CachePolicy{Enabled: true, TTL: time.Minute, SafePaths: []string{"/reports"}}

	merged := mergeCache(base, nil)
	assert.True(t, merged.Enabled)
	assert.Equal(t, time.Minute, merged.TTL)
	assert.Equal(t, []string{"/reports"}, merged.SafePaths)

	merged = mergeCache(base, &CachePolicy{Enabled: false})
	assert.False(t, merged.Enabled, "explicit per-call policy decides Enabled")
	assert.Equal(t, time.Minute, merged.TTL, "unset per-call fields inherit")

	merged = mergeCache(CachePolicy{}, &CachePolicy{Enabled: true, TTL: 5 * time.Second})
	assert.True(t, merged.Enabled)
	assert.Equal(t, 5*time.Second, merged.TTL)
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"https://api.test", "/users", "https://api.test/users"},
		{"https://api.test/", "/users", "https://api.test/users"},
		{"https://api.test/v1", "users", "https://api.test/v1/users"},
		{"https://api.test", "", "https://api.test"},
		{"", "https://other.test/x", "https://other.test/x"},
		{"https://api.test", "https://other.test/x", "https://other.test/x"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, joinURL(tt.base, tt.path), "join(%q,%q)", tt.base, tt.path)
	}
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "api.test/users", endpointLabel(&RequestConfig{URL: "https://api.test/users"}))
	assert.Equal(t, "api.test/", endpointLabel(&RequestConfig{URL: "https://api.test"}))
	assert.Equal(t, "/weird", endpointLabel(&RequestConfig{URL: "/weird"}))
}
