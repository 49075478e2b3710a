package capture

// Bridge channel names. The in-page instrumentation script multiplexes its
// fire-and-forget messages over these two channels; anything else is ignored.
const (
	ChannelConsoleLog = "consoleLog"
	ChannelNetworkLog = "networkLog"
)

// ConsoleMessage is the decoded shape of a consoleLog bridge message.
type ConsoleMessage struct {
	Level   string
	Message string
}

// NetworkMessage is the decoded shape of a networkLog bridge message.
// Null wire fields decode to nil optionals.
type NetworkMessage struct {
	Method              string
	URL                 string
	Status              *int
	Duration            *float64
	RequestHeaders      map[string]string
	RequestBody         *string
	ResponseHeaders     map[string]string
	ResponseBody        *string
	ResponseContentType *string
}

// BridgeLogger is the logging surface the bridge needs. Satisfied by
// *logging.Logger; nil disables diagnostics.
type BridgeLogger interface {
	Debugf(format string, v ...interface{})
}

// Bridge receives raw page-context payloads and forwards the well-formed
// ones into the store. Delivery is one-directional and unacknowledged:
// malformed payloads and unknown channels are dropped with no error surfaced
// back to the page.
type Bridge struct {
	store  *Store
	logger BridgeLogger
}

// NewBridge creates a bridge that appends into store. logger may be nil.
func NewBridge(store *Store, logger BridgeLogger) *Bridge {
	return &Bridge{store: store, logger: logger}
}

// Emit dispatches one message by channel name. Total: never returns an
// error, never panics on page-supplied shapes.
func (b *Bridge) Emit(channel string, payload interface{}) {
	switch channel {
	case ChannelConsoleLog:
		msg, ok := DecodeConsoleMessage(payload)
		if !ok {
			b.debugf("bridge: dropped malformed consoleLog payload (%T)", payload)
			return
		}
		b.store.AppendConsole(msg.Level, msg.Message)
	case ChannelNetworkLog:
		msg, ok := DecodeNetworkMessage(payload)
		if !ok {
			b.debugf("bridge: dropped malformed networkLog payload (%T)", payload)
			return
		}
		b.store.AppendNetwork(NetworkCapture{
			Method:              msg.Method,
			URL:                 msg.URL,
			StatusCode:          msg.Status,
			DurationSeconds:     msg.Duration,
			RequestHeaders:      msg.RequestHeaders,
			RequestBody:         msg.RequestBody,
			ResponseHeaders:     msg.ResponseHeaders,
			ResponseBody:        msg.ResponseBody,
			ResponseContentType: msg.ResponseContentType,
		})
	default:
		b.debugf("bridge: ignored unknown channel %q", channel)
	}
}

func (b *Bridge) debugf(format string, v ...interface{}) {
	if b.logger != nil {
		b.logger.Debugf(format, v...)
	}
}

// DecodeConsoleMessage validates a page-supplied consoleLog payload.
// The payload must be a string-keyed mapping; unknown keys are ignored and
// missing or ill-typed fields fall back to defaults (level "log", empty
// message). Non-mapping payloads are rejected.
func DecodeConsoleMessage(payload interface{}) (ConsoleMessage, bool) {
	fields, ok := payload.(map[string]interface{})
	if !ok {
		return ConsoleMessage{}, false
	}
	msg := ConsoleMessage{Level: "log"}
	if level, ok := fields["level"].(string); ok && level != "" {
		msg.Level = level
	}
	if message, ok := fields["message"].(string); ok {
		msg.Message = message
	}
	return msg, true
}

// DecodeNetworkMessage validates a page-supplied networkLog payload.
// The payload must be a string-keyed mapping. Method defaults to GET, nulls
// decode to nil optionals, numbers arrive as either int or float64 depending
// on the transport's JSON handling and both are accepted.
func DecodeNetworkMessage(payload interface{}) (NetworkMessage, bool) {
	fields, ok := payload.(map[string]interface{})
	if !ok {
		return NetworkMessage{}, false
	}
	msg := NetworkMessage{Method: "GET"}
	if method, ok := fields["method"].(string); ok && method != "" {
		msg.Method = method
	}
	if url, ok := fields["url"].(string); ok {
		msg.URL = url
	}
	if status, ok := asInt(fields["status"]); ok {
		msg.Status = &status
	}
	if duration, ok := asFloat(fields["duration"]); ok {
		msg.Duration = &duration
	}
	msg.RequestHeaders = asHeaderMap(fields["requestHeaders"])
	msg.RequestBody = asOptionalString(fields["requestBody"])
	msg.ResponseHeaders = asHeaderMap(fields["responseHeaders"])
	msg.ResponseBody = asOptionalString(fields["responseBody"])
	msg.ResponseContentType = asOptionalString(fields["responseContentType"])
	return msg, true
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asOptionalString(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// asHeaderMap coerces a page-supplied header mapping into map[string]string.
// Non-string values are stringified only when they are trivially printable;
// anything else is skipped rather than guessed at.
func asHeaderMap(v interface{}) map[string]string {
	raw, ok := v.(map[string]interface{})
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for name, value := range raw {
		if s, ok := value.(string); ok {
			out[name] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
