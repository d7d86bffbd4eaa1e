// ABOUTME: Stream event types consumed by conversation panes.
// ABOUTME: Mirrors the gateway's SSE event grammar in decoded form.

package runtime

// EventType identifies a decoded stream event.
type EventType string

const (
	EventText       EventType = "text"
	EventThinking   EventType = "thinking"
	EventToolUse    EventType = "tool_use"
	EventToolState  EventType = "tool_state"
	EventToolResult EventType = "tool_result"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

// StreamEvent is one decoded event from a message stream. Only the fields
// relevant to the event type are populated.
type StreamEvent struct {
	// ID, when set, is used for replay suppression across reconnects.
	ID   string
	Type EventType

	// Text carries message or thinking content for text/thinking events.
	Text string

	// Tool call fields for tool_use, tool_state, and tool_result events.
	ToolCallID string
	ToolName   string
	Args       map[string]any
	State      string
	Result     map[string]any
	IsError    bool

	// Err carries the message for error events.
	Err string

	// Timestamp is the backend-reported event time in whatever unit the
	// backend chose; it is normalized on ingestion.
	Timestamp any
}
