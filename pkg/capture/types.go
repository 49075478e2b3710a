package capture

import (
	"time"

	"github.com/google/uuid"
)

// Level classifies a console entry. Unrecognized level strings from the page
// are coerced to LevelLog rather than rejected.
type Level string

const (
	LevelLog   Level = "log"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelDebug Level = "debug"
)

// ParseLevel maps a page-supplied level string to a Level.
// Unknown strings default to LevelLog; this can never fail.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelLog, LevelInfo, LevelWarn, LevelError, LevelDebug:
		return Level(s)
	default:
		return LevelLog
	}
}

// Capacity and truncation constants. These are part of the external contract
// shared with the in-page instrumentation script and are not configurable.
const (
	// ConsoleCapacity is the maximum number of retained console entries.
	ConsoleCapacity = 5000

	// NetworkCapacity is the maximum number of retained network entries.
	NetworkCapacity = 2000

	// RequestBodyLimit is the character cap applied to captured request
	// bodies before they cross the bridge.
	RequestBodyLimit = 32000

	// ResponseBodyLimit is the character cap applied to captured response
	// bodies before they cross the bridge.
	ResponseBodyLimit = 64000

	// TruncationMarker is appended to any body cut at its limit.
	TruncationMarker = "… [truncated]"
)

// timestampLayout is the wall-clock format stamped onto entries at append
// time. Entries carry strings, not time.Time: they are immutable display
// records, never recomputed.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ConsoleEntry is a single captured console message. Immutable once created;
// produced by the bridge (page console activity) or by the navigation
// observer (host-side lifecycle entries).
type ConsoleEntry struct {
	ID        string `json:"id"`
	Level     Level  `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NetworkEntry is a single captured network exchange. Immutable once created.
// A StatusCode of 0 together with HasStatus=true marks a transport-level
// failure (DNS error, refused connection), not an HTTP status.
type NetworkEntry struct {
	ID                  string            `json:"id"`
	Method              string            `json:"method"`
	URL                 string            `json:"url"`
	StatusCode          int               `json:"status_code,omitempty"`
	HasStatus           bool              `json:"has_status"`
	DurationSeconds     float64           `json:"duration_seconds,omitempty"`
	HasDuration         bool              `json:"has_duration"`
	Timestamp           string            `json:"timestamp"`
	RequestHeaders      map[string]string `json:"request_headers,omitempty"`
	RequestBody         *string           `json:"request_body,omitempty"`
	ResponseHeaders     map[string]string `json:"response_headers,omitempty"`
	ResponseBody        *string           `json:"response_body,omitempty"`
	ResponseContentType *string           `json:"response_content_type,omitempty"`
}

// NetworkCapture carries the fields of a decoded networkLog message into
// Store.AppendNetwork. Optional fields stay nil when the message carried
// null for them.
type NetworkCapture struct {
	Method              string
	URL                 string
	StatusCode          *int
	DurationSeconds     *float64
	RequestHeaders      map[string]string
	RequestBody         *string
	ResponseHeaders     map[string]string
	ResponseBody        *string
	ResponseContentType *string
}

// Truncate caps s at limit characters, appending TruncationMarker when the
// cap applies. Strings at or under the limit are returned unchanged.
// The limit counts runes so a multi-byte boundary is never split.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + TruncationMarker
}

func newEntryID() string {
	return uuid.New().String()
}

func timestampNow() string {
	return time.Now().Format(timestampLayout)
}
