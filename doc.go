// Package vello provides an ergonomic HTTP client that layers common
// conveniences around net/http:
//
//   - Automatic error classification for non-2xx responses, timeouts and
//     network failures, with machine-readable codes
//   - JSON serialization of request bodies and typed response decoding
//   - Per-request timeouts enforced per attempt
//   - Retries with configurable predicate and backoff
//   - Response caching with pluggable storage backends and TTL
//   - Request / response / error interceptors
//   - Rate limiting (token bucket) and Prometheus metrics
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - Safe concurrent use of a single *Client instance
//   - Extensibility via user supplied interceptors & pluggable cache / metrics
//
// Typical usage:
//
//	client := vello.New(
//	    vello.WithBaseURL("https://api.example.com"),
//	    vello.WithRetryCount(3),
//	    vello.WithCache(vello.CachePolicy{Enabled: true, TTL: 5 * time.Minute}),
//	)
//	resp, err := client.Get(ctx, "/users", nil)
//
// Every request resolves to exactly one *Response or one *ClientError. The
// error's Code field drives both the default retry predicate and caller-side
// handling (e.g. redirect on "401", offline banner on NETWORK_ERROR).
package vello
