// ABOUTME: Per-thread conversation pane accumulating messages and tool calls.
// ABOUTME: Applies decoded stream events and exposes streaming state to responders.

package runtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/2389/familiar/internal/session"
	"github.com/2389/familiar/internal/toolcall"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry in a pane's transcript.
type Message struct {
	Role    Role
	Content string
	At      time.Time
}

// Pane is the live state of one conversation thread. It accumulates
// messages and tool calls from stream events and reports whether a response
// stream is currently open. A pane is retained even while hidden so
// switching threads never loses in-flight state.
type Pane struct {
	mu        sync.Mutex
	threadID  string
	messages  []Message
	streaming bool
	sending   bool
	open      bool // an assistant message is accepting deltas
	thinking  string
	calls     map[string]*toolcall.Call
	order     []string
	forms     map[string]map[string]string
	logger    *slog.Logger
}

// NewPane creates an empty pane for the given thread.
func NewPane(threadID string, logger *slog.Logger) *Pane {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pane{
		threadID: threadID,
		calls:    make(map[string]*toolcall.Call),
		forms:    make(map[string]map[string]string),
		logger:   logger.With("component", "pane", "thread_id", threadID),
	}
}

// ThreadID returns the thread this pane belongs to.
func (p *Pane) ThreadID() string {
	return p.threadID
}

// Streaming reports whether an agent response stream is open on this pane.
// Tool responders consult this before sending: replying into an open stream
// would interleave with the agent's output.
func (p *Pane) Streaming() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streaming || p.sending
}

// SetSending flags that a user message is in flight on this pane.
func (p *Pane) SetSending(v bool) {
	p.mu.Lock()
	p.sending = v
	p.mu.Unlock()
}

// AppendUser records an outbound user message and opens the stream window so
// tool responses hold off until the agent's reply finishes.
func (p *Pane) AppendUser(content string) {
	p.mu.Lock()
	p.messages = append(p.messages, Message{Role: RoleUser, Content: content, At: time.Now()})
	p.streaming = true
	p.mu.Unlock()
}

// EndStream closes the stream window without a terminal event. Senders call
// this when the transport fails before any done/error event could arrive;
// otherwise the pane would report a stream in progress forever and refuse
// tool responses.
func (p *Pane) EndStream() {
	p.mu.Lock()
	p.streaming = false
	p.closeAssistant()
	p.mu.Unlock()
}

// Apply folds one decoded stream event into the pane.
func (p *Pane) Apply(evt StreamEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	at := session.NormalizeTimestamp(evt.Timestamp)

	switch evt.Type {
	case EventText:
		p.streaming = true
		p.thinking = ""
		p.appendDelta(evt.Text, at)

	case EventThinking:
		p.streaming = true
		p.thinking = evt.Text

	case EventToolUse:
		p.upsertCall(evt)

	case EventToolState:
		if call, ok := p.calls[evt.ToolCallID]; ok && evt.State == "executing" {
			call.Advance(toolcall.StatusExecuting)
		}

	case EventToolResult:
		if call, ok := p.calls[evt.ToolCallID]; ok {
			call.CompleteWith(evt.Result)
		}

	case EventDone:
		p.streaming = false
		p.thinking = ""
		p.closeAssistant()

	case EventError:
		p.streaming = false
		p.thinking = ""
		p.closeAssistant()
		if evt.Err != "" {
			p.messages = append(p.messages, Message{Role: RoleSystem, Content: evt.Err, At: at})
		}
	}
}

// appendDelta extends the open assistant message, starting one if needed.
// Must be called with mu held.
func (p *Pane) appendDelta(text string, at time.Time) {
	if n := len(p.messages); n > 0 && p.messages[n-1].Role == RoleAssistant && p.open {
		p.messages[n-1].Content += text
		return
	}
	p.messages = append(p.messages, Message{Role: RoleAssistant, Content: text, At: at})
	p.open = true
}

// closeAssistant seals the open assistant message so the next text event
// starts a new one. Must be called with mu held.
func (p *Pane) closeAssistant() {
	p.open = false
}

// upsertCall registers a tool call announcement. Replayed announcements for
// a known call only refresh the arguments. Must be called with mu held.
func (p *Pane) upsertCall(evt StreamEvent) {
	if evt.ToolCallID == "" {
		return
	}
	if existing, ok := p.calls[evt.ToolCallID]; ok {
		if len(evt.Args) > 0 {
			existing.SetArgs(evt.Args)
		}
		return
	}
	call := toolcall.NewCall(evt.ToolCallID, evt.ToolName, evt.Args)
	p.calls[evt.ToolCallID] = call
	p.order = append(p.order, evt.ToolCallID)
	p.logger.Debug("tool call announced", "tool_call_id", evt.ToolCallID, "tool_name", evt.ToolName)
}

// Messages returns a copy of the transcript.
func (p *Pane) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages...)
}

// Thinking returns the latest thinking snippet, or "".
func (p *Pane) Thinking() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.thinking
}

// Calls returns tool calls in announcement order.
func (p *Pane) Calls() []*toolcall.Call {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*toolcall.Call, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.calls[id])
	}
	return out
}

// Call returns the tool call with the given ID, or nil.
func (p *Pane) Call(id string) *toolcall.Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[id]
}

// Form returns the mutable form draft for a tool call, creating it on first
// access. Drafts live alongside the call so half-filled input survives a
// thread switch.
func (p *Pane) Form(callID string) map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()

	form, ok := p.forms[callID]
	if !ok {
		form = make(map[string]string)
		p.forms[callID] = form
	}
	return form
}
