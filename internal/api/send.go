// ABOUTME: Message sending with SSE streaming and event decoding.
// ABOUTME: Maps wire events onto runtime stream events for pane ingestion.

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/familiar/internal/runtime"
)

// requestBody wraps a JSON-encoded request payload.
type requestBody struct {
	reader io.Reader
}

func jsonBody(v any) (*requestBody, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return &requestBody{reader: bytes.NewReader(data)}, nil
}

// SendRequest describes one outbound message. ThreadID doubles as the
// session identifier on the wire; the gateway materializes the session
// lazily on first message.
type SendRequest struct {
	ThreadID  string `json:"thread_id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	AgentID   string `json:"agent_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// EventHandler receives decoded stream events in arrival order.
type EventHandler func(runtime.StreamEvent)

// SendMessage posts a message and streams the agent's response, invoking
// handle for each decoded event. It blocks until the stream ends or ctx is
// cancelled. The routing headers carry the thread, session, and selected
// agent so the gateway can dispatch without re-parsing the body.
func (c *Client) SendMessage(ctx context.Context, sr SendRequest, handle EventHandler) error {
	// A client-minted message ID lets the gateway deduplicate retried sends.
	if sr.MessageID == "" {
		sr.MessageID = uuid.New().String()
	}
	body, err := jsonBody(sr)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/send", body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if sr.ThreadID != "" {
		req.Header.Set("X-Thread-ID", sr.ThreadID)
		req.Header.Set("X-Session-ID", sr.ThreadID)
	}
	if sr.AgentID != "" {
		req.Header.Set("X-Selected-Agent-ID", sr.AgentID)
	}

	// SSE streams outlive the default client timeout.
	httpClient := &http.Client{Transport: c.http.Transport}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	c.logger.Debug("message sent", "thread_id", sr.ThreadID, "agent_id", sr.AgentID)
	return c.streamEvents(ctx, resp.Body, handle)
}

// streamEvents reads SSE frames and dispatches decoded events.
func (c *Client) streamEvents(ctx context.Context, body io.Reader, handle EventHandler) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventType string
	var dataLines []string

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()

		if line == "" {
			if eventType != "" && len(dataLines) > 0 {
				c.dispatch(eventType, strings.Join(dataLines, "\n"), handle)
			}
			eventType = ""
			dataLines = nil
			continue
		}
		if after, ok := strings.CutPrefix(line, "event:"); ok {
			eventType = strings.TrimSpace(after)
			continue
		}
		if after, ok := strings.CutPrefix(line, "data:"); ok {
			dataLines = append(dataLines, strings.TrimPrefix(after, " "))
			continue
		}
	}
	return scanner.Err()
}

// dispatch decodes one wire event into a runtime.StreamEvent. Unknown event
// types are ignored so older clients survive new event kinds.
func (c *Client) dispatch(eventType, data string, handle EventHandler) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		c.logger.Warn("undecodable stream event", "event", eventType, "error", err)
		return
	}

	evt := runtime.StreamEvent{
		ID:        str(payload["event_id"]),
		Timestamp: payload["timestamp"],
	}

	switch eventType {
	case "text":
		evt.Type = runtime.EventText
		evt.Text = str(payload["text"])
	case "thinking":
		evt.Type = runtime.EventThinking
		evt.Text = str(payload["text"])
	case "tool_use":
		evt.Type = runtime.EventToolUse
		evt.ToolCallID = str(payload["id"])
		evt.ToolName = str(payload["name"])
		evt.Args = decodeArgs(payload["input_json"])
	case "tool_state":
		evt.Type = runtime.EventToolState
		evt.ToolCallID = str(payload["id"])
		evt.State = str(payload["state"])
	case "tool_result":
		evt.Type = runtime.EventToolResult
		evt.ToolCallID = str(payload["id"])
		evt.IsError, _ = payload["is_error"].(bool)
		evt.Result = decodeResult(payload["output"])
	case "done":
		evt.Type = runtime.EventDone
	case "error":
		evt.Type = runtime.EventError
		evt.Err = str(payload["error"])
	case "started", "usage", "file", "session_init":
		// Bookkeeping events the pane does not render.
		return
	default:
		return
	}

	handle(evt)
}

// decodeArgs parses a tool input payload: either an embedded JSON string or
// an already-decoded object.
func decodeArgs(v any) map[string]any {
	switch val := v.(type) {
	case string:
		var args map[string]any
		if err := json.Unmarshal([]byte(val), &args); err == nil {
			return args
		}
		return nil
	case map[string]any:
		return val
	default:
		return nil
	}
}

// decodeResult normalizes a tool output into a map. String outputs that are
// not JSON objects are wrapped under an "output" key.
func decodeResult(v any) map[string]any {
	switch val := v.(type) {
	case map[string]any:
		return val
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(val), &m); err == nil {
			return m
		}
		return map[string]any{"output": val}
	case nil:
		return nil
	default:
		return map[string]any{"output": val}
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
