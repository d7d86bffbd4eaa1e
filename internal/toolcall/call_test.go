// ABOUTME: Tests for tool-call lifecycle monotonicity and the respond guards
// ABOUTME: Covers at-most-once response, stream-busy blocking, and retry after failure

package toolcall

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender records sent messages and optionally fails.
type fakeSender struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeSender) SendText(_ context.Context, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, content)
	return nil
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

// fakeStream is a settable StreamState.
type fakeStream struct{ busy bool }

func (f *fakeStream) Streaming() bool { return f.busy }

func TestCall_StatusAdvancesMonotonically(t *testing.T) {
	call := NewCall("tc-1", "run_command", nil)
	assert.Equal(t, StatusPending, call.Status())

	assert.True(t, call.Advance(StatusExecuting))
	assert.Equal(t, StatusExecuting, call.Status())

	// Replayed or out-of-order events never move the status backward.
	assert.False(t, call.Advance(StatusExecuting))
	assert.False(t, call.Advance(StatusPending))
	assert.Equal(t, StatusExecuting, call.Status())

	assert.True(t, call.Advance(StatusComplete))
	assert.Equal(t, StatusComplete, call.Status())
}

func TestCall_ResultSetExactlyOnce(t *testing.T) {
	call := NewCall("tc-2", "run_command", nil)
	assert.Nil(t, call.Result())

	require.True(t, call.CompleteWith(map[string]any{"stdout": "ok"}))
	assert.Equal(t, "ok", call.Result()["stdout"])

	// Second completion is discarded.
	assert.False(t, call.CompleteWith(map[string]any{"stdout": "other"}))
	assert.Equal(t, "ok", call.Result()["stdout"])
}

func TestResponder_AtMostOnce(t *testing.T) {
	call := NewCall("tc-3", "prompt_user_selection", map[string]any{"question": "pick"})
	call.Advance(StatusExecuting)

	sender := &fakeSender{}
	r := NewResponder(call, sender, &fakeStream{}, nil, nil)

	require.NoError(t, r.Respond(t.Context(), map[string]any{"selected": "a"}))
	assert.True(t, call.Responded())
	assert.Equal(t, StatusComplete, call.Status())

	err := r.Respond(t.Context(), map[string]any{"selected": "b"})
	assert.ErrorIs(t, err, ErrAlreadyResponded)

	// Exactly one message was emitted.
	assert.Len(t, sender.sent(), 1)
	assert.Equal(t, "a", call.Result()["selected"])
}

func TestResponder_BlockedWhileStreamBusy(t *testing.T) {
	call := NewCall("tc-4", "prompt_user_selection", nil)
	call.Advance(StatusExecuting)

	sender := &fakeSender{}
	stream := &fakeStream{busy: true}
	r := NewResponder(call, sender, stream, nil, nil)

	err := r.Respond(t.Context(), map[string]any{"selected": "a"})
	assert.ErrorIs(t, err, ErrStreamBusy)
	assert.Empty(t, sender.sent())
	assert.False(t, call.Responded())

	// Once the stream quiets down the same respond succeeds.
	stream.busy = false
	require.NoError(t, r.Respond(t.Context(), map[string]any{"selected": "a"}))
	assert.Len(t, sender.sent(), 1)
}

func TestResponder_InFlightGuard(t *testing.T) {
	call := NewCall("tc-5", "prompt_user_input", nil)
	call.Advance(StatusExecuting)

	// Claim the in-flight slot directly, as a concurrent Respond would.
	require.NoError(t, call.beginRespond())

	r := NewResponder(call, &fakeSender{}, &fakeStream{}, nil, nil)
	err := r.Respond(t.Context(), map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrResponseInFlight)

	// Releasing the claim without success re-opens the call.
	call.finishRespond(nil, false)
	assert.NoError(t, r.Respond(t.Context(), map[string]any{"name": "x"}))
}

func TestResponder_SendFailureLeavesCallActionable(t *testing.T) {
	call := NewCall("tc-6", "send_bulk_email", nil)
	call.Advance(StatusExecuting)

	sendErr := errors.New("network down")
	sender := &fakeSender{err: sendErr}

	var notified []string
	r := NewResponder(call, sender, &fakeStream{}, func(msg string) {
		notified = append(notified, msg)
	}, nil)

	err := r.Respond(t.Context(), map[string]any{"confirmed": true})
	require.ErrorIs(t, err, sendErr)

	// Still executing, not responded, and the user saw a transient notice.
	assert.Equal(t, StatusExecuting, call.Status())
	assert.False(t, call.Responded())
	require.Len(t, notified, 1)
	assert.Contains(t, notified[0], "network down")

	// Retry succeeds once transport recovers.
	sender.err = nil
	require.NoError(t, r.Respond(t.Context(), map[string]any{"confirmed": true}))
	assert.Equal(t, StatusComplete, call.Status())
	assert.Len(t, sender.sent(), 1)
}

func TestResponder_RapidDoubleRespondEmitsOneMessage(t *testing.T) {
	call := NewCall("tc-7", "prompt_user_selection", nil)
	call.Advance(StatusExecuting)

	sender := &fakeSender{}
	r := NewResponder(call, sender, &fakeStream{}, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Guard errors are expected here; only the message count matters.
			_ = r.Respond(context.Background(), map[string]any{"selected": "a"})
		}()
	}
	wg.Wait()

	assert.Len(t, sender.sent(), 1)
}

func TestCall_SetArgsConcurrentWithReads(t *testing.T) {
	call := NewCall("tc-9", "run_command", map[string]any{"command": "ls"})
	call.Advance(StatusExecuting)

	// Replayed announcements refresh args while renderers read them.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			call.SetArgs(map[string]any{"command": "ls -la"})
		}()
		go func() {
			defer wg.Done()
			_ = call.Args()["command"]
		}()
	}
	wg.Wait()

	assert.Equal(t, "ls -la", call.Args()["command"])
}

func TestCall_SetArgsIgnoresNil(t *testing.T) {
	call := NewCall("tc-10", "run_command", map[string]any{"command": "ls"})
	call.SetArgs(nil)
	assert.Equal(t, "ls", call.Args()["command"])
}

func TestEnvelope_Format(t *testing.T) {
	call := NewCall("tc-8", "prompt_user_selection", nil)
	call.Advance(StatusExecuting)

	sender := &fakeSender{}
	r := NewResponder(call, sender, &fakeStream{}, nil, nil)
	require.NoError(t, r.Respond(t.Context(), map[string]any{"selected": "blue", "question": "color?"}))

	messages := sender.sent()
	require.Len(t, messages, 1)
	msg := messages[0]

	assert.True(t, len(msg) > len("Tool response: prompt_user_selection\n"))
	assert.Contains(t, msg, "Tool response: prompt_user_selection\n")
	assert.Contains(t, msg, `"tool_call_id": "tc-8"`)
	assert.Contains(t, msg, `"tool_name": "prompt_user_selection"`)
	assert.Contains(t, msg, `"selected": "blue"`)
	assert.Contains(t, msg, `"source": "frontend-tool"`)
	assert.Contains(t, msg, `"timestamp"`)
}
