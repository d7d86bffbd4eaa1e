// ABOUTME: Registry of conversation panes, one per active thread.
// ABOUTME: Routes stream events with replay suppression; panes persist until reset.

package runtime

import (
	"log/slog"
	"sync"

	"github.com/2389/familiar/internal/dedupe"
)

// PaneSet owns every conversation pane in the process. Panes are created on
// first access and kept until Reset so hidden conversations retain their
// messages, tool calls, and form drafts.
type PaneSet struct {
	mu       sync.Mutex
	panes    map[string]*Pane
	order    []string
	replays  *dedupe.Cache
	logger   *slog.Logger
	onChange func()
}

// NewPaneSet creates an empty pane set. The replay cache is optional; without
// it every event is applied.
func NewPaneSet(replays *dedupe.Cache, logger *slog.Logger) *PaneSet {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaneSet{
		panes:   make(map[string]*Pane),
		replays: replays,
		logger:  logger.With("component", "panes"),
	}
}

// OnChange registers a callback fired after any pane mutation.
func (s *PaneSet) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Pane returns the pane for the thread, creating it on first access.
func (s *PaneSet) Pane(threadID string) *Pane {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paneLocked(threadID)
}

func (s *PaneSet) paneLocked(threadID string) *Pane {
	pane, ok := s.panes[threadID]
	if !ok {
		pane = NewPane(threadID, s.logger)
		s.panes[threadID] = pane
		s.order = append(s.order, threadID)
	}
	return pane
}

// Panes returns all panes in creation order.
func (s *PaneSet) Panes() []*Pane {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Pane, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.panes[id])
	}
	return out
}

// Apply routes a stream event to its thread's pane. Events carrying an ID
// are checked against the replay cache first so a reconnected stream cannot
// double-apply.
func (s *PaneSet) Apply(threadID string, evt StreamEvent) {
	if evt.ID != "" && s.replays != nil {
		if s.replays.Seen(threadID + "\x00" + evt.ID) {
			s.logger.Debug("replayed event dropped", "thread_id", threadID, "event_id", evt.ID)
			return
		}
	}

	s.mu.Lock()
	pane := s.paneLocked(threadID)
	notify := s.onChange
	s.mu.Unlock()

	pane.Apply(evt)
	if notify != nil {
		notify()
	}
}

// Reset discards every pane. Only sign-out does this.
func (s *PaneSet) Reset() {
	s.mu.Lock()
	s.panes = make(map[string]*Pane)
	s.order = nil
	notify := s.onChange
	s.mu.Unlock()

	s.logger.Info("panes cleared")
	if notify != nil {
		notify()
	}
}
