package vello

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// serializeBody converts a request payload to wire bytes. Strings, byte
// slices, raw JSON and readers pass through untouched; anything else is JSON
// encoded.
func serializeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	case json.RawMessage:
		return b, nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		return data, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		return data, nil
	}
}

// parsePayload decodes a raw body per the requested response type. An empty
// body decodes to nil for JSON.
func parsePayload(rt ResponseType, raw []byte) (any, error) {
	switch rt {
	case ResponseText:
		return string(raw), nil
	case ResponseBlob, ResponseBytes:
		return raw, nil
	default:
		if len(bytes.TrimSpace(raw)) == 0 {
			return nil, nil
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decoding JSON response: %w", err)
		}
		return v, nil
	}
}

// serialize computes the wire bytes for the configured body. Called after
// the request interceptor so interceptors may replace Body.
func (cfg *RequestConfig) serialize() error {
	b, err := serializeBody(cfg.Body)
	if err != nil {
		return err
	}
	cfg.bodyBytes = b
	return nil
}

// bestEffortParse attempts a structured JSON decode and falls back to the
// raw text. Used for error response bodies.
func bestEffortParse(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	return string(raw)
}
