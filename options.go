package vello

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// WithConfig applies a full configuration record.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.config = cfg
	}
}

// WithBaseURL sets the base URL all endpoint paths resolve against.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.config.BaseURL = baseURL
	}
}

// WithTimeout sets the default per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.config.Timeout = d
	}
}

// WithHeader sets one default header.
func WithHeader(name, value string) Option {
	return func(c *Client) {
		if c.config.Headers == nil {
			c.config.Headers = make(map[string]string)
		}
		c.config.Headers[name] = value
	}
}

// WithHeaders merges default headers into the configuration.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		if c.config.Headers == nil {
			c.config.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			c.config.Headers[k] = v
		}
	}
}

// WithRetry sets the default retry policy.
func WithRetry(p RetryPolicy) Option {
	return func(c *Client) {
		c.config.Retry = p
	}
}

// WithRetryCount sets the default number of retries.
func WithRetryCount(n int) Option {
	return func(c *Client) {
		c.config.Retry.MaxRetries = n
	}
}

// WithRetryDelay sets the default base retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.config.Retry.Delay = d
	}
}

// WithRetryCondition sets the default retry predicate.
func WithRetryCondition(fn RetryCondition) Option {
	return func(c *Client) {
		c.config.Retry.Condition = fn
	}
}

// WithBackoff sets the default backoff function, replacing the exponential
// formula.
func WithBackoff(fn BackoffFunc) Option {
	return func(c *Client) {
		c.config.Retry.Backoff = fn
	}
}

// WithCache sets the default cache policy.
func WithCache(p CachePolicy) Option {
	return func(c *Client) {
		c.config.Cache = p
	}
}

// WithRequestInterceptor sets the default request interceptor.
func WithRequestInterceptor(fn RequestInterceptor) Option {
	return func(c *Client) {
		c.config.OnRequest = fn
	}
}

// WithResponseInterceptor sets the default response interceptor.
func WithResponseInterceptor(fn ResponseInterceptor) Option {
	return func(c *Client) {
		c.config.OnResponse = fn
	}
}

// WithErrorInterceptor sets the default error interceptor.
func WithErrorInterceptor(fn ErrorInterceptor) Option {
	return func(c *Client) {
		c.config.OnError = fn
	}
}

// WithHTTPClient sets the underlying transport client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimiter installs a token-bucket rate limiter applied before every
// attempt. Attempts wait for a token within their timeout.
func WithRateLimiter(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithLogger sets the logger used for debug output and cache failure
// reports.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a stderr console logger.
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithDebug enables debug logging with the default configuration.
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets a custom debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithRequestIDGenerator overrides the request ID generator used when debug
// logging is enabled.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// WithDurableStorageDir sets the directory backing StorageDurable cache
// policies.
func WithDurableStorageDir(dir string) Option {
	return func(c *Client) {
		c.durableDir = dir
	}
}

// validate checks the configuration at construction time.
func (c *Client) validate() error {
	var problems []string

	if c.httpClient == nil {
		problems = append(problems, "HTTP client cannot be nil")
	}
	if c.config.Timeout < 0 {
		problems = append(problems, "timeout must be non-negative")
	}
	if c.config.Timeout > 10*time.Minute {
		problems = append(problems, "timeout > 10m may cause requests to hang for too long")
	}

	if c.config.Retry.MaxRetries < 0 {
		problems = append(problems, "retry count must be non-negative")
	}
	if c.config.Retry.MaxRetries > 100 {
		problems = append(problems, "retry count > 100 may cause excessive resource usage")
	}
	if c.config.Retry.Delay < 0 {
		problems = append(problems, "retry delay must be non-negative")
	}
	if c.config.Retry.Delay > 10*time.Minute {
		problems = append(problems, "retry delay > 10m may cause very long waits")
	}

	if c.config.Cache.Enabled && c.config.Cache.TTL < 0 {
		problems = append(problems, "cache TTL must be non-negative")
	}
	if c.config.Cache.TTL > 24*time.Hour {
		problems = append(problems, "cache TTL > 24h may cause stale data issues")
	}

	if c.limiter != nil {
		if c.limiter.Limit() <= 0 {
			problems = append(problems, "rate limit must be positive")
		}
		if c.limiter.Burst() <= 0 {
			problems = append(problems, "rate limiter burst must be positive")
		}
	}

	if c.debug != nil && c.debug.Enabled && c.logger == nil {
		problems = append(problems, "logger must be set when debug is enabled")
	}

	if len(problems) > 0 {
		return newClientError(CodeValidation,
			fmt.Sprintf("configuration validation failed: %s", strings.Join(problems, "; ")), nil, nil)
	}
	return nil
}
