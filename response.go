package vello

import (
	"encoding/json"
	"net/http"
)

// cachedStatusSuffix marks responses served from the cache in StatusText.
const cachedStatusSuffix = " (cached)"

// Response is the envelope returned for every completed request. It is
// immutable after construction; interceptors that want to change it should
// return a modified copy.
type Response struct {
	// Data is the decoded payload per the request's ResponseType.
	Data any
	// RawBody is the undecoded response body.
	RawBody []byte
	// StatusCode is the numeric HTTP status.
	StatusCode int
	// StatusText is the status line text. Cache-served responses carry a
	// " (cached)" suffix.
	StatusText string
	// Header holds the response headers (a flattened copy for cache hits).
	Header http.Header
	// Config is the resolved request configuration this response answers.
	Config *RequestConfig
	// Cached reports whether the response was served from the cache.
	Cached bool
}

// JSON decodes the raw body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.RawBody, v)
}

// Text returns the raw body as a string.
func (r *Response) Text() string {
	return string(r.RawBody)
}

// Bytes returns the raw body.
func (r *Response) Bytes() []byte {
	return r.RawBody
}

// IsSuccess reports whether the status is in [200,300).
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// newResponse builds the envelope for a completed network attempt, decoding
// the body per the configured response type.
func newResponse(cfg *RequestConfig, status int, statusText string, header http.Header, raw []byte) (*Response, error) {
	data, err := parsePayload(cfg.ResponseType, raw)
	if err != nil {
		return nil, err
	}
	return &Response{
		Data:       data,
		RawBody:    raw,
		StatusCode: status,
		StatusText: statusText,
		Header:     header,
		Config:     cfg,
	}, nil
}
