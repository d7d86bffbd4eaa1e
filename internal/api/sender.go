// ABOUTME: Thread-bound message sender used by panes and tool responders.
// ABOUTME: Routes outbound text and feeds the response stream back into the pane set.

package api

import (
	"context"

	"github.com/2389/familiar/internal/runtime"
	"github.com/2389/familiar/internal/session"
)

// ThreadSender sends messages on one thread with a fixed agent binding and
// applies the resulting stream to the pane set. It satisfies the sender
// contract of tool responders, so a tool response travels the same path as a
// typed message.
type ThreadSender struct {
	client   *Client
	panes    *runtime.PaneSet
	threadID string
	binding  session.Binding
	sender   string
}

// NewThreadSender binds a client to one thread. sender is the author name
// stamped on outbound messages.
func NewThreadSender(client *Client, panes *runtime.PaneSet, threadID string, binding session.Binding, sender string) *ThreadSender {
	return &ThreadSender{
		client:   client,
		panes:    panes,
		threadID: threadID,
		binding:  binding,
		sender:   sender,
	}
}

// SendText posts content on the bound thread and streams the agent's
// response into the thread's pane. Blocks until the stream ends. On transport
// failure the pane's stream window is closed, since no done/error event will
// arrive to close it.
func (s *ThreadSender) SendText(ctx context.Context, content string) error {
	pane := s.panes.Pane(s.threadID)
	pane.SetSending(true)
	defer pane.SetSending(false)

	err := s.client.SendMessage(ctx, SendRequest{
		ThreadID: s.threadID,
		Sender:   s.sender,
		Content:  content,
		AgentID:  s.binding.AgentID,
	}, func(evt runtime.StreamEvent) {
		s.panes.Apply(s.threadID, evt)
	})
	if err != nil {
		pane.EndStream()
	}
	return err
}

// SendUser records the user's message on the pane, then sends it. The pane
// shows the message immediately rather than waiting for the round trip.
func (s *ThreadSender) SendUser(ctx context.Context, content string) error {
	s.panes.Pane(s.threadID).AppendUser(content)
	return s.SendText(ctx, content)
}
