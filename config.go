package vello

import (
	"net/http"
	"strings"
	"time"
)

// Library defaults applied when neither the client nor the call specifies a
// value.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultCacheTTL = 5 * time.Minute
)

const headerContentType = "Content-Type"
const contentTypeJSON = "application/json"

// Config holds a client's default behavior. A zero Config is usable; every
// field falls back to the library defaults.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Headers    map[string]string
	Retry      RetryPolicy
	Cache      CachePolicy
	OnRequest  RequestInterceptor
	OnResponse ResponseInterceptor
	OnError    ErrorInterceptor
}

// RequestOptions are per-call overrides of the client defaults. Zero-valued
// fields inherit; pointer fields (Retry, Cache) are taken field-by-field
// when non-nil. RequestOptions are never retained after the call.
type RequestOptions struct {
	Method       string
	Body         any
	Headers      map[string]string
	Timeout      time.Duration
	ResponseType ResponseType
	Retry        *RetryPolicy
	Cache        *CachePolicy
	OnRequest    RequestInterceptor
	OnResponse   ResponseInterceptor
	OnError      ErrorInterceptor
}

// RequestConfig is the fully resolved configuration a single request runs
// with. It is carried on the resulting Response or ClientError.
type RequestConfig struct {
	Method       string
	URL          string
	Path         string
	Headers      map[string]string
	Body         any
	Timeout      time.Duration
	ResponseType ResponseType
	Retry        RetryPolicy
	Cache        CachePolicy
	RequestID    string

	// bodyBytes is the serialized body, computed after the request
	// interceptor so interceptors may still replace Body.
	bodyBytes []byte
}

// resolveConfig merges client defaults with per-call options. Header maps
// merge key-by-key over the fixed Content-Type baseline; retry and cache
// policies merge field-by-field with per-call values winning.
func (c *Client) resolveConfig(path string, opts *RequestOptions) *RequestConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if opts == nil {
		opts = &RequestOptions{}
	}

	cfg := &RequestConfig{
		Method:       strings.ToUpper(opts.Method),
		Path:         path,
		URL:          joinURL(c.config.BaseURL, path),
		ResponseType: opts.ResponseType,
		Body:         opts.Body,
	}
	if cfg.Method == "" {
		cfg.Method = "GET"
	}

	// Canonicalize header names so "content-type" and "Content-Type" merge
	// into one key; eligibility checks and the wire headers stay consistent.
	cfg.Headers = map[string]string{headerContentType: contentTypeJSON}
	for k, v := range c.config.Headers {
		cfg.Headers[http.CanonicalHeaderKey(k)] = v
	}
	for k, v := range opts.Headers {
		cfg.Headers[http.CanonicalHeaderKey(k)] = v
	}

	cfg.Timeout = opts.Timeout
	if cfg.Timeout <= 0 {
		cfg.Timeout = c.config.Timeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	cfg.Retry = mergeRetry(c.config.Retry, opts.Retry)
	cfg.Cache = mergeCache(c.config.Cache, opts.Cache)
	return cfg
}

// mergeRetry layers the call override onto the client default onto the
// library default (0 retries, 1s delay, DefaultRetryCondition).
func mergeRetry(base RetryPolicy, call *RetryPolicy) RetryPolicy {
	out := RetryPolicy{
		Delay:     DefaultRetryDelay,
		Condition: DefaultRetryCondition,
	}
	overlayRetry(&out, base, false)
	if call != nil {
		overlayRetry(&out, *call, true)
	}
	return out
}

func overlayRetry(dst *RetryPolicy, src RetryPolicy, explicit bool) {
	// A non-nil per-call policy sets MaxRetries verbatim so a call can turn
	// retries off; at the client level zero means inherit.
	if explicit || src.MaxRetries != 0 {
		dst.MaxRetries = src.MaxRetries
	}
	if src.Delay > 0 {
		dst.Delay = src.Delay
	}
	if src.Condition != nil {
		dst.Condition = src.Condition
	}
	if src.Backoff != nil {
		dst.Backoff = src.Backoff
	}
}

// mergeCache layers the call override onto the client default onto the
// library default (disabled, 5 minute TTL, in-memory storage).
func mergeCache(base CachePolicy, call *CachePolicy) CachePolicy {
	out := CachePolicy{
		TTL:     DefaultCacheTTL,
		Storage: StorageMemory,
	}
	overlayCache(&out, base, false)
	if call != nil {
		overlayCache(&out, *call, true)
	}
	return out
}

func overlayCache(dst *CachePolicy, src CachePolicy, explicit bool) {
	// A non-nil per-call policy decides Enabled verbatim so a call can
	// disable caching.
	if explicit || src.Enabled {
		dst.Enabled = src.Enabled
	}
	if src.TTL > 0 {
		dst.TTL = src.TTL
	}
	if src.Storage != StorageMemory {
		dst.Storage = src.Storage
	}
	if src.Backend != nil {
		dst.Backend = src.Backend
	}
	if src.Key != "" {
		dst.Key = src.Key
	}
	if src.KeyFunc != nil {
		dst.KeyFunc = src.KeyFunc
	}
	if len(src.Methods) > 0 {
		dst.Methods = src.Methods
	}
	if len(src.SafePaths) > 0 {
		dst.SafePaths = src.SafePaths
	}
	if src.AllowAllMethods {
		dst.AllowAllMethods = true
	}
}

// joinURL resolves an endpoint path against the base URL. Absolute paths
// (with a scheme) are used as-is.
func joinURL(base, path string) string {
	if base == "" || strings.Contains(path, "://") {
		return path
	}
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// interceptors returns the effective interceptor chain for a call.
func (c *Client) interceptors(opts *RequestOptions) (RequestInterceptor, ResponseInterceptor, ErrorInterceptor) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	onReq, onResp, onErr := c.config.OnRequest, c.config.OnResponse, c.config.OnError
	if opts != nil {
		if opts.OnRequest != nil {
			onReq = opts.OnRequest
		}
		if opts.OnResponse != nil {
			onResp = opts.OnResponse
		}
		if opts.OnError != nil {
			onErr = opts.OnError
		}
	}
	return onReq, onResp, onErr
}
