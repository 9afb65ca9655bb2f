package events

// Event names recognized by external transports.
const (
	StatusUpdate = "status_update"
	NewLog       = "new_log"
	SystemStats  = "system_stats"
)

// Sink receives fire-and-forget events for external transports (web push,
// logs, message bus). Implementations must never block the caller.
type Sink interface {
	Emit(event string, payload map[string]any)
}

// Func adapts a plain function to a Sink.
type Func func(event string, payload map[string]any)

func (f Func) Emit(event string, payload map[string]any) { f(event, payload) }

// Discard drops every event.
var Discard Sink = Func(func(string, map[string]any) {})
