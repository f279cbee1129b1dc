package vello

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeBody(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"nil", nil, ""},
		{"string passthrough", "hello", "hello"},
		{"bytes passthrough", []byte{0x01, 0x02}, "\x01\x02"},
		{"raw json passthrough", json.RawMessage(`{"a":1}`), `{"a":1}`},
		{"reader", strings.NewReader("streamed"), "streamed"},
		{"struct encodes to json", struct {
			Name string `json:"name"`
		}{"ada"}, `{"name":"ada"}`},
		{"map encodes to json", map[string]int{"n": 1}, `{"n":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := serializeBody(tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestSerializeBodyUnencodable(t *testing.T) {
	_, err := serializeBody(func() {})
	assert.Error(t, err)
}

func TestParsePayloadJSON(t *testing.T) {
	v, err := parsePayload(ResponseJSON, []byte(`{"a":[1,2]}`))
	require.NoError(t, err)

	obj, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Len(t, obj["a"], 2)
}

func TestParsePayloadEmptyJSONBody(t *testing.T) {
	v, err := parsePayload(ResponseJSON, nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = parsePayload(ResponseJSON, []byte("  \n"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestParsePayloadInvalidJSON(t *testing.T) {
	_, err := parsePayload(ResponseJSON, []byte("nope"))
	assert.Error(t, err)
}

func TestParsePayloadText(t *testing.T) {
	v, err := parsePayload(ResponseText, []byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", v)
}

func TestParsePayloadBinary(t *testing.T) {
	raw := []byte{0xde, 0xad}
	for _, rt := range []ResponseType{ResponseBlob, ResponseBytes} {
		v, err := parsePayload(rt, raw)
		require.NoError(t, err)
		assert.Equal(t, raw, v)
	}
}

func TestBestEffortParse(t *testing.T) {
	assert.Nil(t, bestEffortParse(nil))
	assert.Equal(t, map[string]any{"e": "bad"}, bestEffortParse([]byte(`{"e":"bad"}`)))
	assert.Equal(t, "plain failure", bestEffortParse([]byte("plain failure")))
}
