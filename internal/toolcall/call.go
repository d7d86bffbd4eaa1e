// ABOUTME: ToolCall entity with monotone pending/executing/complete lifecycle
// ABOUTME: Status never regresses and the result is set exactly once

package toolcall

import (
	"sync"
)

// Status is the lifecycle state of a tool call.
type Status int

const (
	// StatusPending means the call was announced but arguments may still be streaming.
	StatusPending Status = iota
	// StatusExecuting means the call is surfaced and, for interactive tools, awaiting the user.
	StatusExecuting
	// StatusComplete is terminal; the result (if any) is available.
	StatusComplete
)

// String returns the wire name for the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusExecuting:
		return "executing"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Call is a single tool invocation surfaced by an agent.
// All mutation goes through SetArgs, Advance, CompleteWith and the Responder
// so the lifecycle invariants hold even under racing UI events.
type Call struct {
	ID   string
	Name string

	mu        sync.Mutex
	args      map[string]any
	status    Status
	result    map[string]any
	responded bool
	sending   bool
}

// NewCall creates a pending tool call.
func NewCall(id, name string, args map[string]any) *Call {
	if args == nil {
		args = map[string]any{}
	}
	return &Call{ID: id, Name: name, args: args}
}

// Args returns the argument map. Replayed announcements replace the map
// wholesale via SetArgs, so a returned snapshot is never mutated.
func (c *Call) Args() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.args
}

// SetArgs replaces the argument map. Used when a replayed announcement
// carries a fuller argument set than the first sighting.
func (c *Call) SetArgs(args map[string]any) {
	if args == nil {
		return
	}
	c.mu.Lock()
	c.args = args
	c.mu.Unlock()
}

// Status returns the current lifecycle status.
func (c *Call) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Result returns the completion result, or nil before completion.
func (c *Call) Result() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Responded reports whether a frontend response has been accepted for this call.
func (c *Call) Responded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responded
}

// Advance moves the call forward to the given status. Moves backward (or
// repeats of the current status) are ignored: upstream may replay stream
// events on reconnect and the lifecycle must stay monotone.
func (c *Call) Advance(to Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if to <= c.status {
		return false
	}
	c.status = to
	return true
}

// CompleteWith marks the call complete with the given result. The first
// completion wins; later results are discarded.
func (c *Call) CompleteWith(result map[string]any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusComplete {
		return false
	}
	c.status = StatusComplete
	c.result = result
	return true
}

// beginRespond atomically claims the right to send a response.
// Exactly one claim ever succeeds; a claim is released only on send failure.
func (c *Call) beginRespond() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.responded {
		return ErrAlreadyResponded
	}
	if c.sending {
		return ErrResponseInFlight
	}
	c.sending = true
	return nil
}

// finishRespond records the outcome of a send attempt. On success the call
// becomes complete with the payload as its result; on failure it stays
// executing so the user can retry.
func (c *Call) finishRespond(payload map[string]any, sent bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
	if !sent {
		return
	}
	c.responded = true
	if c.status != StatusComplete {
		c.status = StatusComplete
		c.result = payload
	}
}
