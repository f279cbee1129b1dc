package vello

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// Classification codes attached to ClientError. Non-2xx responses use the
// numeric status as a string (e.g. "404", "503").
const (
	CodeNetworkError = "NETWORK_ERROR"
	CodeTimeout      = "TIMEOUT"
	CodeUnknown      = "UNKNOWN"
	CodeRateLimited  = "RATE_LIMITED"
	CodeValidation   = "VALIDATION"
)

// ClientError is the uniform error value raised by every failed request.
// Code is one of the Code* constants or a numeric HTTP status string and is
// the sole input to the retry predicate.
type ClientError struct {
	Message string
	Code    string
	// Config is the resolved request configuration, when available.
	Config *RequestConfig
	// Response carries the best-effort parsed error body for non-2xx
	// failures, nil otherwise.
	Response *Response
	// Attempts is the total number of network attempts made when the error
	// was raised.
	Attempts int
	// Guidance is derived from Code at construction via a static table.
	Guidance Guidance
	Cause    error
}

func newClientError(code, message string, cause error, cfg *RequestConfig) *ClientError {
	return &ClientError{
		Message:  message,
		Code:     code,
		Config:   cfg,
		Guidance: guidanceFor(code),
		Cause:    cause,
	}
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("vello: [%s] %s", e.Code, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s (after %d attempts)", msg, e.Attempts)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches errors by classification code for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*ClientError); ok {
		return e.Code == t.Code
	}
	return false
}

// StatusCode returns the HTTP status for status-coded errors, 0 otherwise.
func (e *ClientError) StatusCode() int {
	if e == nil {
		return 0
	}
	if e.Response != nil {
		return e.Response.StatusCode
	}
	if n, err := strconv.Atoi(e.Code); err == nil {
		return n
	}
	return 0
}

// IsRetryable reports whether the error satisfies the default retry
// predicate: network failures, timeouts, and 5xx responses.
func IsRetryable(err error) bool {
	var ce *ClientError
	if !errors.As(err, &ce) {
		return false
	}
	return DefaultRetryCondition(ce)
}

// classifyTransportError maps a failure from the underlying transport into a
// ClientError. The classification is computed fresh at each attempt.
func classifyTransportError(err error, cfg *RequestConfig) *ClientError {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return newClientError(CodeTimeout, "request timed out", err, cfg)
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return newClientError(CodeTimeout, "request timed out", err, cfg)
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		return newClientError(CodeNetworkError, "network request failed", err, cfg)
	}

	var oe *net.OpError
	if errors.As(err, &oe) {
		return newClientError(CodeNetworkError, "network request failed", err, cfg)
	}

	return newClientError(CodeUnknown, err.Error(), err, cfg)
}

// newStatusError builds the ClientError for a response outside [200,300).
// The attached Response carries the best-effort parsed error body.
func newStatusError(resp *Response) *ClientError {
	code := strconv.Itoa(resp.StatusCode)
	e := newClientError(code, fmt.Sprintf("request failed with status %d %s", resp.StatusCode, resp.StatusText), nil, resp.Config)
	e.Response = resp
	return e
}
