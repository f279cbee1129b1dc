package vello

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Client is an HTTP client that runs every request through a fixed pipeline:
// config merge, request interceptor, cache lookup, network attempts with
// timeout and retry, response/error interceptor, cache write. It is safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *MetricsCollector
	logger     Logger
	debug      *DebugConfig
	durableDir string

	mu     sync.RWMutex
	config Config

	backendsMu sync.Mutex
	backends   map[StorageKind]Cache

	validationError error
}

// New constructs a Client from functional options. A best effort validation
// is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		backends:   make(map[StorageKind]Cache),
		durableDir: filepath.Join(os.TempDir(), "vello-cache"),
	}

	for _, option := range options {
		option(c)
	}

	if err := c.validate(); err != nil {
		c.validationError = err
	}

	return c
}

// NewWithBaseURL constructs a Client with defaults and the given base URL.
func NewWithBaseURL(baseURL string) *Client {
	return New(WithBaseURL(baseURL))
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, path, withMethod(opts, http.MethodGet, nil))
}

// Post performs a POST request with the given body. Strings, byte slices and
// readers are sent as-is; anything else is JSON encoded.
func (c *Client) Post(ctx context.Context, path string, body any, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, path, withMethod(opts, http.MethodPost, body))
}

// Put performs a PUT request with the given body.
func (c *Client) Put(ctx context.Context, path string, body any, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, path, withMethod(opts, http.MethodPut, body))
}

// Patch performs a PATCH request with the given body.
func (c *Client) Patch(ctx context.Context, path string, body any, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, path, withMethod(opts, http.MethodPatch, body))
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, path, withMethod(opts, http.MethodDelete, nil))
}

// GetJSON performs a GET request and decodes the response body into v.
func (c *Client) GetJSON(ctx context.Context, path string, v any) error {
	resp, err := c.Get(ctx, path, nil)
	if err != nil {
		return err
	}
	return resp.JSON(v)
}

// PostJSON performs a POST request with a JSON body and decodes the response
// body into v.
func (c *Client) PostJSON(ctx context.Context, path string, body, v any) error {
	resp, err := c.Post(ctx, path, body, nil)
	if err != nil {
		return err
	}
	return resp.JSON(v)
}

// withMethod clones opts with the verb's method and body applied. The
// caller's options value is never mutated.
func withMethod(opts *RequestOptions, method string, body any) *RequestOptions {
	var out RequestOptions
	if opts != nil {
		out = *opts
	}
	out.Method = method
	if body != nil {
		out.Body = body
	}
	return &out
}

// Request executes the full pipeline for an endpoint path. It returns
// exactly one of a *Response or a *ClientError.
func (c *Client) Request(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	start := time.Now()
	cfg := c.resolveConfig(path, opts)
	onRequest, onResponse, onError := c.interceptors(opts)

	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		cfg.RequestID = c.debug.RequestIDGen()
	}

	endpoint := endpointLabel(cfg)
	c.debugLog(func(d *DebugConfig) bool { return d.LogRequests },
		"starting request", "requestID", cfg.RequestID, "method", cfg.Method, "url", cfg.URL)

	c.metrics.RecordRequestStart(cfg.Method, endpoint)
	defer c.metrics.RecordRequestEnd(cfg.Method, endpoint)

	fail := func(cerr *ClientError) (*Response, error) {
		c.metrics.RecordError(cerr.Code, cfg.Method, endpoint)
		if onError != nil {
			// Observation only: the interceptor cannot suppress the error.
			onError(ctx, cerr)
		}
		return nil, cerr
	}

	if onRequest != nil {
		next, err := onRequest(ctx, cfg)
		if err != nil {
			return fail(newClientError(CodeUnknown, "request interceptor failed", err, cfg))
		}
		if next != nil {
			cfg = next
		}
	}

	if err := cfg.serialize(); err != nil {
		return fail(newClientError(CodeUnknown, err.Error(), err, cfg))
	}

	cacheEligible := cfg.Cache.Enabled && cfg.Cache.eligible(cfg.Method, cfg.Path, cfg.Headers[headerContentType])
	var cache Cache
	var cacheKey string
	if cacheEligible {
		cache = c.backendFor(cfg.Cache)
		cacheEligible = cache != nil
	}

	if cacheEligible {
		cacheKey = cfg.Cache.cacheKey(cfg)
		if entry, found := c.readCache(cache, cacheKey); found {
			if resp, err := responseFromEntry(cfg, entry); err == nil {
				c.debugLog(func(d *DebugConfig) bool { return d.LogCache },
					"cache hit", "requestID", cfg.RequestID, "cacheKey", cacheKey)
				c.metrics.RecordCacheHit(cfg.Method, endpoint)
				c.metrics.RecordRequest(cfg.Method, endpoint, entry.StatusCode, time.Since(start))

				if onResponse != nil {
					next, ierr := onResponse(ctx, resp)
					if ierr != nil {
						return fail(newClientError(CodeUnknown, "response interceptor failed", ierr, cfg))
					}
					if next != nil {
						resp = next
					}
				}
				return resp, nil
			}
			// Undecodable entry: fall through to the network.
		}
		c.metrics.RecordCacheMiss(cfg.Method, endpoint)
	}

	resp, cerr := c.doWithRetry(ctx, cfg, endpoint)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	} else if cerr != nil {
		statusCode = cerr.StatusCode()
	}
	c.metrics.RecordRequest(cfg.Method, endpoint, statusCode, time.Since(start))

	if cerr != nil {
		return fail(cerr)
	}

	if onResponse != nil {
		next, ierr := onResponse(ctx, resp)
		if ierr != nil {
			return fail(newClientError(CodeUnknown, "response interceptor failed", ierr, cfg))
		}
		if next != nil {
			resp = next
		}
	}

	if cacheEligible && resp.IsSuccess() {
		c.writeCache(cache, cacheKey, cfg, resp)
	}

	return resp, nil
}

// doWithRetry runs the attempt loop. The loop is explicit, not recursive, so
// stack depth stays bounded under pathological retry counts.
func (c *Client) doWithRetry(ctx context.Context, cfg *RequestConfig, endpoint string) (*Response, *ClientError) {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.debugLog(func(d *DebugConfig) bool { return d.LogRetries },
				"retry attempt", "requestID", cfg.RequestID, "attempt", attempt, "maxRetries", cfg.Retry.MaxRetries)
			c.metrics.RecordRetry(cfg.Method, endpoint, attempt)
		}

		resp, cerr := c.attempt(ctx, cfg)
		if cerr == nil {
			return resp, nil
		}
		cerr.Attempts = attempt + 1

		if attempt >= cfg.Retry.MaxRetries || cfg.Retry.Condition == nil || !cfg.Retry.Condition(cerr) {
			return nil, cerr
		}

		delay := cfg.Retry.delayFor(attempt, cerr)
		c.debugLog(func(d *DebugConfig) bool { return d.LogRetries },
			"scheduling retry", "requestID", cfg.RequestID, "attempt", attempt+1, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			werr := classifyTransportError(ctx.Err(), cfg)
			werr.Attempts = attempt + 1
			return nil, werr
		}
	}
}

// attempt performs one network call bounded by its own timeout. The returned
// error carries a fresh classification.
func (c *Client) attempt(ctx context.Context, cfg *RequestConfig) (*Response, *ClientError) {
	attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(attemptCtx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, classifyTransportError(err, cfg)
			}
			return nil, newClientError(CodeRateLimited, "rate limit exceeds request deadline", err, cfg)
		}
	}

	var body io.Reader
	if len(cfg.bodyBytes) > 0 {
		body = bytes.NewReader(cfg.bodyBytes)
	}
	req, err := http.NewRequestWithContext(attemptCtx, cfg.Method, cfg.URL, body)
	if err != nil {
		return nil, newClientError(CodeUnknown, "building request failed", err, cfg)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	if cfg.RequestID != "" {
		req.Header.Set("X-Request-ID", cfg.RequestID)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, cfg)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classifyTransportError(err, cfg)
	}

	statusText := statusTextOf(httpResp)
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		resp := &Response{
			Data:       bestEffortParse(raw),
			RawBody:    raw,
			StatusCode: httpResp.StatusCode,
			StatusText: statusText,
			Header:     httpResp.Header,
			Config:     cfg,
		}
		return nil, newStatusError(resp)
	}

	resp, perr := newResponse(cfg, httpResp.StatusCode, statusText, httpResp.Header, raw)
	if perr != nil {
		return nil, newClientError(CodeUnknown, perr.Error(), perr, cfg)
	}
	return resp, nil
}

// readCache looks up a key, absorbing backend panics so a misbehaving custom
// cache can never fail the request.
func (c *Client) readCache(cache Cache, key string) (entry *CacheEntry, found bool) {
	defer func() {
		if r := recover(); r != nil {
			c.warnLog("cache read failed", "key", key, "panic", r)
			entry, found = nil, false
		}
	}()
	return cache.Get(key)
}

// writeCache stores a successful response best-effort. Failures are logged,
// never propagated.
func (c *Client) writeCache(cache Cache, key string, cfg *RequestConfig, resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			c.warnLog("cache write failed", "key", key, "panic", r)
		}
	}()
	cache.Set(key, entryFromResponse(resp), cfg.Cache.TTL)
	c.metrics.RecordCacheSize(storageName(cfg.Cache), len(cache.Keys()))
	c.debugLog(func(d *DebugConfig) bool { return d.LogCache },
		"response cached", "requestID", cfg.RequestID, "cacheKey", key, "ttl", cfg.Cache.TTL)
}

// backendFor resolves the cache backend a policy targets, creating the
// client-owned instance on first use. A nil return disables caching for the
// request.
func (c *Client) backendFor(p CachePolicy) Cache {
	if p.Backend != nil {
		return p.Backend
	}

	c.backendsMu.Lock()
	defer c.backendsMu.Unlock()

	if b, ok := c.backends[p.Storage]; ok {
		return b
	}

	var b Cache
	switch p.Storage {
	case StorageSession:
		b = newStorageCache(NewMemoryStorage(), c.logger)
	case StorageDurable:
		fs, err := NewFileStorage(c.durableDir)
		if err != nil {
			c.warnLog("durable cache unavailable", "dir", c.durableDir, "error", err)
			return nil
		}
		b = newStorageCache(fs, c.logger)
	default:
		b = NewInMemoryCache()
	}
	c.backends[p.Storage] = b
	return b
}

// activeBackends snapshots every backend the client has touched, including a
// default-policy custom backend.
func (c *Client) activeBackends() []Cache {
	c.backendsMu.Lock()
	out := make([]Cache, 0, len(c.backends)+1)
	for _, b := range c.backends {
		out = append(out, b)
	}
	c.backendsMu.Unlock()

	c.mu.RLock()
	if b := c.config.Cache.Backend; b != nil {
		out = append(out, b)
	}
	c.mu.RUnlock()
	return out
}

// CacheStats returns a snapshot of live entry keys across the client's
// active backends.
func (c *Client) CacheStats() CacheStats {
	seen := make(map[string]struct{})
	var keys []string
	for _, b := range c.activeBackends() {
		for _, k := range b.Keys() {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return CacheStats{Size: len(keys), Keys: keys}
}

// InvalidateCache removes one entry by key from every active backend.
func (c *Client) InvalidateCache(key string) {
	for _, b := range c.activeBackends() {
		b.Delete(key)
	}
}

// ClearCache removes all entries, cascading to every active backend.
func (c *Client) ClearCache() {
	for _, b := range c.activeBackends() {
		b.Clear()
	}
}

// SetHeader sets a default header for all subsequent requests.
func (c *Client) SetHeader(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config.Headers == nil {
		c.config.Headers = make(map[string]string)
	}
	c.config.Headers[name] = value
}

// RemoveHeader clears a default header.
func (c *Client) RemoveHeader(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.config.Headers, name)
}

// SetRetryCount updates the default number of retries.
func (c *Client) SetRetryCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Retry.MaxRetries = n
}

// SetRetryDelay updates the default base retry delay.
func (c *Client) SetRetryDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Retry.Delay = d
}

// SetRetryCondition updates the default retry predicate.
func (c *Client) SetRetryCondition(fn RetryCondition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Retry.Condition = fn
}

// SetRetryPolicy replaces the default retry policy wholesale.
func (c *Client) SetRetryPolicy(p RetryPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Retry = p
}

// SetCachePolicy replaces the default cache policy wholesale.
func (c *Client) SetCachePolicy(p CachePolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Cache = p
}

// storageName labels a policy's backend for metrics.
func storageName(p CachePolicy) string {
	if p.Backend != nil {
		return "custom"
	}
	switch p.Storage {
	case StorageSession:
		return "session"
	case StorageDurable:
		return "durable"
	default:
		return "memory"
	}
}

// statusTextOf extracts the status line text, falling back to the canonical
// text for the code.
func statusTextOf(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// endpointLabel produces the host+path metrics label for a request.
func endpointLabel(cfg *RequestConfig) string {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Host == "" {
		return cfg.URL
	}
	if u.Path == "" || u.Path == "/" {
		return u.Host + "/"
	}
	return u.Host + u.Path
}
