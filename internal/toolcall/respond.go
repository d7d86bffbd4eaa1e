// ABOUTME: At-most-once response channel from interactive tool calls back into the stream
// ABOUTME: Builds the tool-response envelope and enforces the respond guards

package toolcall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Respond guard errors. All three leave the call actionable except
// ErrAlreadyResponded, which is the terminal no-op case.
var (
	ErrAlreadyResponded = errors.New("tool call already responded")
	ErrResponseInFlight = errors.New("response already in flight")
	ErrStreamBusy       = errors.New("conversation stream is busy")
)

// MessageSender is what the responder needs from the owning thread's stream:
// a way to push one plain-text message into the conversation.
type MessageSender interface {
	SendText(ctx context.Context, content string) error
}

// StreamState reports whether the owning thread is actively producing output.
// While it is, new responses are refused rather than queued: a stream in
// progress means the agent is already reacting to prior state.
type StreamState interface {
	Streaming() bool
}

// Notifier surfaces a transient, user-visible notification (e.g. a toast or
// status-bar flash). Failures to send a response are reported here, never as
// fatal errors.
type Notifier func(message string)

// Responder drives the one-time respond operation for a single tool call.
type Responder struct {
	call   *Call
	sender MessageSender
	stream StreamState
	notify Notifier
	logger *slog.Logger
	now    func() time.Time
}

// NewResponder wires a responder for the given call. Pass nil for notify or
// logger to get no-op/default behavior.
func NewResponder(call *Call, sender MessageSender, stream StreamState, notify Notifier, logger *slog.Logger) *Responder {
	if notify == nil {
		notify = func(string) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		call:   call,
		sender: sender,
		stream: stream,
		notify: notify,
		logger: logger.With("component", "toolcall", "tool_call_id", call.ID),
		now:    time.Now,
	}
}

// Respond sends the payload back into the owning thread's stream and completes
// the call. Valid exactly once per call: a second invocation returns
// ErrAlreadyResponded and has no effect. Respond is refused while another
// response is in flight or while the stream is producing output. On transport
// failure the call stays executing and the user may retry.
func (r *Responder) Respond(ctx context.Context, payload map[string]any) error {
	if r.stream != nil && r.stream.Streaming() {
		return ErrStreamBusy
	}
	if err := r.call.beginRespond(); err != nil {
		return err
	}

	message := Envelope(r.call.ID, r.call.Name, payload, r.now())

	if err := r.sender.SendText(ctx, message); err != nil {
		r.call.finishRespond(nil, false)
		r.logger.Warn("tool response send failed", "tool_name", r.call.Name, "error", err)
		r.notify(fmt.Sprintf("Failed to send tool response: %v", err))
		return fmt.Errorf("sending tool response: %w", err)
	}

	r.call.finishRespond(payload, true)
	r.logger.Debug("tool response sent", "tool_name", r.call.Name)
	return nil
}

// Envelope formats the plain-text tool-response message:
//
//	Tool response: <tool_name>
//	{ ...payload, tool_call_id, tool_name, timestamp, source }
//
// The source marker distinguishes frontend-originated tool responses from
// user free-text messages.
func Envelope(callID, toolName string, payload map[string]any, at time.Time) string {
	body := make(map[string]any, len(payload)+4)
	for k, v := range payload {
		body[k] = v
	}
	body["tool_call_id"] = callID
	body["tool_name"] = toolName
	body["source"] = "frontend-tool"
	if _, ok := body["timestamp"]; !ok {
		body["timestamp"] = at.UnixMilli()
	}

	blob, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		// Payloads are built from parsed JSON values, so this should not
		// happen; degrade to an empty object rather than dropping the reply.
		blob = []byte("{}")
	}
	return fmt.Sprintf("Tool response: %s\n%s", toolName, blob)
}
