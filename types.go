package vello

import (
	"context"
	"time"
)

// ResponseType selects how a response body is decoded into Response.Data.
type ResponseType int

const (
	// ResponseJSON decodes the body as JSON into an untyped value. Default.
	ResponseJSON ResponseType = iota
	// ResponseText yields the body as a string.
	ResponseText
	// ResponseBlob yields the body as a byte slice.
	ResponseBlob
	// ResponseBytes yields the raw body bytes without any interpretation.
	ResponseBytes
)

// RequestInterceptor observes or transforms the resolved request
// configuration before the cache lookup and any network activity. The
// returned configuration replaces the working one; returning nil keeps the
// input unchanged.
type RequestInterceptor func(ctx context.Context, cfg *RequestConfig) (*RequestConfig, error)

// ResponseInterceptor observes or transforms a response before it is
// returned to the caller. It runs for both network and cache-served
// responses. Returning nil keeps the input unchanged.
type ResponseInterceptor func(ctx context.Context, resp *Response) (*Response, error)

// ErrorInterceptor observes the final, non-retried error of a request. It is
// fire-and-forget: side effects only, it cannot suppress or replace the
// error.
type ErrorInterceptor func(ctx context.Context, err *ClientError)

// RetryCondition reports whether a classified error should be retried.
type RetryCondition func(err *ClientError) bool

// BackoffFunc computes the delay before retry attempt+1. The attempt index
// is zero-based.
type BackoffFunc func(attempt int, err *ClientError) time.Duration

// CacheKeyFunc derives a cache key from the request URL and the resolved
// configuration.
type CacheKeyFunc func(url string, cfg *RequestConfig) string

// Option configures a Client at construction time.
type Option func(*Client)
