package capture

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConsoleMessage(t *testing.T) {
	tests := []struct {
		name    string
		payload interface{}
		want    ConsoleMessage
		ok      bool
	}{
		{
			name:    "well formed",
			payload: map[string]interface{}{"level": "warn", "message": "careful"},
			want:    ConsoleMessage{Level: "warn", Message: "careful"},
			ok:      true,
		},
		{
			name:    "missing level defaults to log",
			payload: map[string]interface{}{"message": "hi"},
			want:    ConsoleMessage{Level: "log", Message: "hi"},
			ok:      true,
		},
		{
			name:    "ill-typed fields fall back",
			payload: map[string]interface{}{"level": 7, "message": []string{"nope"}},
			want:    ConsoleMessage{Level: "log", Message: ""},
			ok:      true,
		},
		{
			name:    "extra keys ignored",
			payload: map[string]interface{}{"level": "info", "message": "hi", "stack": "...", "tab": 3},
			want:    ConsoleMessage{Level: "info", Message: "hi"},
			ok:      true,
		},
		{
			name:    "non-mapping rejected",
			payload: "just a string",
			ok:      false,
		},
		{
			name:    "nil rejected",
			payload: nil,
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeConsoleMessage(tt.payload)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecodeNetworkMessage(t *testing.T) {
	payload := map[string]interface{}{
		"method":   "POST",
		"url":      "https://api.example.com/items",
		"status":   float64(201), // JSON numbers arrive as float64
		"duration": 0.25,
		"requestHeaders": map[string]interface{}{
			"Content-Type": "application/json",
			"X-Count":      12, // non-string header values are skipped
		},
		"requestBody":         `{"name":"a"}`,
		"responseHeaders":     map[string]interface{}{"content-type": "application/json"},
		"responseBody":        `{"id":1}`,
		"responseContentType": "application/json",
	}

	msg, ok := DecodeNetworkMessage(payload)
	require.True(t, ok)
	assert.Equal(t, "POST", msg.Method)
	assert.Equal(t, "https://api.example.com/items", msg.URL)
	require.NotNil(t, msg.Status)
	assert.Equal(t, 201, *msg.Status)
	require.NotNil(t, msg.Duration)
	assert.InDelta(t, 0.25, *msg.Duration, 1e-9)
	assert.Equal(t, map[string]string{"Content-Type": "application/json"}, msg.RequestHeaders)
	require.NotNil(t, msg.RequestBody)
	assert.Equal(t, `{"name":"a"}`, *msg.RequestBody)
	require.NotNil(t, msg.ResponseContentType)
	assert.Equal(t, "application/json", *msg.ResponseContentType)
}

func TestDecodeNetworkMessage_NullsAndDefaults(t *testing.T) {
	payload := map[string]interface{}{
		"url":                 "https://example.com",
		"status":              nil,
		"duration":            nil,
		"requestHeaders":      nil,
		"requestBody":         nil,
		"responseHeaders":     nil,
		"responseBody":        nil,
		"responseContentType": nil,
	}

	msg, ok := DecodeNetworkMessage(payload)
	require.True(t, ok)
	assert.Equal(t, "GET", msg.Method)
	assert.Nil(t, msg.Status)
	assert.Nil(t, msg.Duration)
	assert.Nil(t, msg.RequestHeaders)
	assert.Nil(t, msg.RequestBody)
	assert.Nil(t, msg.ResponseHeaders)
	assert.Nil(t, msg.ResponseBody)
	assert.Nil(t, msg.ResponseContentType)
}

func TestDecodeNetworkMessage_IntegerNumbers(t *testing.T) {
	payload := map[string]interface{}{
		"url":      "https://example.com",
		"status":   500,
		"duration": 2,
	}

	msg, ok := DecodeNetworkMessage(payload)
	require.True(t, ok)
	require.NotNil(t, msg.Status)
	assert.Equal(t, 500, *msg.Status)
	require.NotNil(t, msg.Duration)
	assert.Equal(t, 2.0, *msg.Duration)
}

func TestDecodeNetworkMessage_NonMappingRejected(t *testing.T) {
	_, ok := DecodeNetworkMessage([]interface{}{"not", "a", "mapping"})
	assert.False(t, ok)
}

func TestBridgeEmit_ConsoleChannel(t *testing.T) {
	store := NewStore()
	bridge := NewBridge(store, nil)

	bridge.Emit(ChannelConsoleLog, map[string]interface{}{"level": "error", "message": "boom"})
	bridge.Emit(ChannelConsoleLog, map[string]interface{}{"level": "log", "message": "ok"})

	entries := store.Console()
	require.Len(t, entries, 2)
	assert.Equal(t, LevelError, entries[0].Level)
	assert.Equal(t, "boom", entries[0].Message)
	assert.Equal(t, 1, store.ErrorCount())
}

func TestBridgeEmit_TransportFailure(t *testing.T) {
	store := NewStore()
	bridge := NewBridge(store, nil)

	// What the instrumentation script posts when fetch rejects.
	bridge.Emit(ChannelNetworkLog, map[string]interface{}{
		"method":              "GET",
		"url":                 "https://unreachable.invalid/",
		"status":              float64(0),
		"duration":            0.031,
		"requestHeaders":      map[string]interface{}{},
		"requestBody":         nil,
		"responseHeaders":     nil,
		"responseBody":        nil,
		"responseContentType": nil,
	})

	entries := store.Network()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.True(t, entry.HasStatus)
	assert.Equal(t, 0, entry.StatusCode)
	assert.Nil(t, entry.ResponseHeaders)
	assert.Nil(t, entry.ResponseBody)
	assert.Nil(t, entry.ResponseContentType)
}

func TestBridgeEmit_MalformedPayloadDropped(t *testing.T) {
	store := NewStore()
	bridge := NewBridge(store, nil)

	bridge.Emit(ChannelConsoleLog, "not a mapping")
	bridge.Emit(ChannelConsoleLog, nil)
	bridge.Emit(ChannelNetworkLog, 42)

	assert.Equal(t, 0, store.ConsoleLen())
	assert.Equal(t, 0, store.NetworkLen())
}

func TestBridgeEmit_UnknownChannelIgnored(t *testing.T) {
	store := NewStore()
	bridge := NewBridge(store, nil)

	bridge.Emit("telemetry", map[string]interface{}{"level": "error", "message": "boom"})

	assert.Equal(t, 0, store.ConsoleLen())
	assert.Equal(t, 0, store.NetworkLen())
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{name: "under limit unchanged", input: "short", limit: 10, want: "short"},
		{name: "at limit unchanged", input: "exact", limit: 5, want: "exact"},
		{name: "over limit marked", input: "abcdef", limit: 3, want: "abc" + TruncationMarker},
		{name: "zero limit unchanged", input: "anything", limit: 0, want: "anything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.input, tt.limit))
		})
	}
}

func TestTruncate_RequestBodyContract(t *testing.T) {
	body := strings.Repeat("x", RequestBodyLimit+500)

	got := Truncate(body, RequestBodyLimit)

	assert.True(t, strings.HasSuffix(got, TruncationMarker))
	assert.LessOrEqual(t, len([]rune(got)), RequestBodyLimit+len([]rune(TruncationMarker)))

	unchanged := strings.Repeat("x", RequestBodyLimit)
	assert.Equal(t, unchanged, Truncate(unchanged, RequestBodyLimit))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelLog, ParseLevel("fatal"))
	assert.Equal(t, LevelLog, ParseLevel(""))
}
