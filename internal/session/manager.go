// ABOUTME: Multi-thread session bookkeeping: active panes, visible thread, history
// ABOUTME: Owns thread creation, agent binding resolution, refresh scheduling, and reset

package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// PlaceholderAgentName is the last-resort display identity, used before any
// agent metadata or selection is known.
const PlaceholderAgentName = "AI Assistant"

// bootstrapAgentName is auto-selected when no thread is active, so the panel
// never shows nothing to interact with.
const bootstrapAgentName = "Main Agent"

// ThreadRecord is one entry in the thread history picker.
type ThreadRecord struct {
	ID           string
	Title        string
	AgentID      string
	AgentName    string
	LastActivity time.Time
}

// AgentDescriptor identifies one agent from the directory. Read-only here.
type AgentDescriptor struct {
	ID      string
	Name    string
	BaseURL string
	Port    int
}

// Binding is the resolved agent identity a conversation pane attaches to
// outbound messages.
type Binding struct {
	AgentID   string
	AgentName string
}

// SessionInfo is one session row from the backend query contract. Timestamps
// are left untyped because the backend emits ISO strings, second-epoch, or
// millisecond-epoch numbers interchangeably.
type SessionInfo struct {
	ID           string
	Title        string
	AgentID      string
	AgentName    string
	MessageCount int
	CreatedAt    any
	UpdatedAt    any
	WorkspaceID  string
}

// SessionDirectory lists sessions known to the backend.
type SessionDirectory interface {
	ListSessions(ctx context.Context, workspaceID string, limit int) ([]SessionInfo, error)
}

// AgentDirectory lists the enabled agents a thread may be bound to.
type AgentDirectory interface {
	ListAgents(ctx context.Context) ([]AgentDescriptor, error)
}

// HistoryCache persists thread history locally so the picker has content
// before the first backend refresh lands. All methods are best-effort.
type HistoryCache interface {
	SaveThreads(ctx context.Context, threads []ThreadRecord) error
	LoadThreads(ctx context.Context, limit int) ([]ThreadRecord, error)
	ClearThreads(ctx context.Context) error
	ClearLayout(ctx context.Context) error
}

// Options configures a Manager. Everything the manager consults is passed in
// here; it never reads ambient process state.
type Options struct {
	Workspace    string
	Sessions     SessionDirectory
	Agents       AgentDirectory
	Cache        HistoryCache // optional
	Logger       *slog.Logger
	HistoryLimit int           // session query limit, default 20
	RefreshDelay time.Duration // delay before post-creation refresh, default 750ms
	PollInterval time.Duration // background refresh cadence, default 3s
}

// Manager owns the set of active thread IDs, the visible thread, thread
// history, and the agent binding fallback chain. One Manager per running
// overlay; all methods are safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	workspace string
	active    []string
	visible   string
	history   []ThreadRecord
	meta      map[string]Binding // threadID -> agent metadata from sessions
	fallback  Binding            // last explicitly selected agent
	agents    []AgentDescriptor  // latest directory snapshot

	sessions     SessionDirectory
	agentDir     AgentDirectory
	cache        HistoryCache
	logger       *slog.Logger
	historyLimit int
	refreshDelay time.Duration
	pollInterval time.Duration

	// onChange, when set, is invoked (without the lock held) after any state
	// mutation so a frontend can redraw.
	onChange func()
}

// NewManager creates a session manager. Cached history, if available, is
// loaded so the picker is populated immediately.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}
	if opts.RefreshDelay <= 0 {
		opts.RefreshDelay = 750 * time.Millisecond
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}

	m := &Manager{
		workspace:    opts.Workspace,
		meta:         make(map[string]Binding),
		sessions:     opts.Sessions,
		agentDir:     opts.Agents,
		cache:        opts.Cache,
		logger:       logger.With("component", "session"),
		historyLimit: opts.HistoryLimit,
		refreshDelay: opts.RefreshDelay,
		pollInterval: opts.PollInterval,
	}

	if m.cache != nil {
		if cached, err := m.cache.LoadThreads(context.Background(), m.historyLimit); err == nil {
			m.history = cached
			for _, rec := range cached {
				if rec.AgentID != "" {
					m.meta[rec.ID] = Binding{AgentID: rec.AgentID, AgentName: rec.AgentName}
				}
			}
		} else {
			m.logger.Debug("history cache load failed", "error", err)
		}
	}

	return m
}

// OnChange registers a callback fired after state mutations.
func (m *Manager) OnChange(fn func()) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// NewThread creates a fresh thread, makes it visible, and adds it to the
// active set. The thread list refresh is scheduled after a short delay because
// the backend materializes the session record lazily on first message.
func (m *Manager) NewThread() string {
	m.mu.Lock()
	id := NewThreadID(m.workspace)
	m.visible = id
	m.active = append(m.active, id)
	delay := m.refreshDelay
	m.mu.Unlock()

	m.logger.Debug("thread created", "thread_id", id)
	m.notify()

	time.AfterFunc(delay, func() {
		m.RefreshSessions(context.Background())
	})

	return id
}

// SelectThread makes the given thread visible, activating it if needed, and
// rebinds the fallback agent from the thread's session metadata when known.
func (m *Manager) SelectThread(id string) {
	m.mu.Lock()
	m.visible = id
	if !slices.Contains(m.active, id) {
		m.active = append(m.active, id)
	}
	if meta, ok := m.meta[id]; ok && meta.AgentID != "" {
		m.fallback = meta
	}
	m.mu.Unlock()

	m.logger.Debug("thread selected", "thread_id", id)
	m.notify()

	go m.RefreshSessions(context.Background())
}

// SelectAgent records the agent as the fallback identity and starts a fresh
// thread bound to it. Agent identity is thread-immutable: switching agents
// never rebinds an existing conversation.
func (m *Manager) SelectAgent(agentID string) string {
	m.mu.Lock()
	name := ""
	for _, a := range m.agents {
		if a.ID == agentID {
			name = a.Name
			break
		}
	}
	m.fallback = Binding{AgentID: agentID, AgentName: name}
	m.mu.Unlock()

	m.logger.Debug("agent selected", "agent_id", agentID, "agent_name", name)
	return m.NewThread()
}

// Binding resolves the agent identity for a thread: session metadata first,
// then the last explicitly selected agent, then a generic placeholder. The
// pane always gets a non-empty identity to attach to outbound messages.
func (m *Manager) Binding(threadID string) Binding {
	m.mu.Lock()
	defer m.mu.Unlock()

	if meta, ok := m.meta[threadID]; ok && meta.AgentID != "" {
		if meta.AgentName == "" {
			meta.AgentName = PlaceholderAgentName
		}
		return meta
	}
	if m.fallback.AgentID != "" {
		b := m.fallback
		if b.AgentName == "" {
			b.AgentName = PlaceholderAgentName
		}
		return b
	}
	return Binding{AgentName: PlaceholderAgentName}
}

// ActiveThreads returns the ordered active thread IDs.
func (m *Manager) ActiveThreads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.active...)
}

// VisibleThread returns the currently visible thread ID, or "".
func (m *Manager) VisibleThread() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// History returns the known thread history, most recent first.
func (m *Manager) History() []ThreadRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ThreadRecord(nil), m.history...)
}

// Agents returns the latest agent directory snapshot.
func (m *Manager) Agents() []AgentDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AgentDescriptor(nil), m.agents...)
}

// Workspace returns the workspace this manager is scoped to.
func (m *Manager) Workspace() string {
	return m.workspace
}

// Reset clears all session state on sign-out: active set, history, visible
// pointer, cached history, and the persisted layout preference (so a stale
// open/expanded panel is not restored on next sign-in).
func (m *Manager) Reset(ctx context.Context) {
	m.mu.Lock()
	m.active = nil
	m.visible = ""
	m.history = nil
	m.meta = make(map[string]Binding)
	m.fallback = Binding{}
	m.mu.Unlock()

	if m.cache != nil {
		if err := m.cache.ClearThreads(ctx); err != nil {
			m.logger.Warn("clearing cached threads failed", "error", err)
		}
		if err := m.cache.ClearLayout(ctx); err != nil {
			m.logger.Warn("clearing layout preference failed", "error", err)
		}
	}

	m.logger.Info("session state reset")
	m.notify()
}

// RefreshSessions fetches the session list and rebuilds history and per-thread
// agent metadata. Best-effort: failures are logged and the next poll retries.
func (m *Manager) RefreshSessions(ctx context.Context) {
	if m.sessions == nil {
		return
	}

	infos, err := m.sessions.ListSessions(ctx, m.workspace, m.historyLimit)
	if err != nil {
		m.logger.Warn("session list refresh failed", "error", err)
		return
	}

	records := make([]ThreadRecord, 0, len(infos))
	for _, info := range infos {
		if info.ID == "" {
			continue
		}
		ts := info.UpdatedAt
		if ts == nil {
			ts = info.CreatedAt
		}
		records = append(records, ThreadRecord{
			ID:           info.ID,
			Title:        info.Title,
			AgentID:      info.AgentID,
			AgentName:    info.AgentName,
			LastActivity: NormalizeTimestamp(ts),
		})
	}

	m.mu.Lock()
	m.history = records
	for _, rec := range records {
		if rec.AgentID != "" {
			m.meta[rec.ID] = Binding{AgentID: rec.AgentID, AgentName: rec.AgentName}
		}
	}
	m.mu.Unlock()

	if m.cache != nil {
		if err := m.cache.SaveThreads(ctx, records); err != nil {
			m.logger.Debug("history cache save failed", "error", err)
		}
	}

	m.logger.Debug("session list refreshed", "count", len(records), "workspace", m.workspace)
	m.notify()
}

// RefreshAgents fetches the enabled-agent directory and applies the
// auto-bootstrap rule: with no active threads and a "Main Agent" present,
// select it and start a conversation.
func (m *Manager) RefreshAgents(ctx context.Context) {
	if m.agentDir == nil {
		return
	}

	agents, err := m.agentDir.ListAgents(ctx)
	if err != nil {
		m.logger.Warn("agent directory refresh failed", "error", err)
		return
	}

	m.mu.Lock()
	m.agents = agents
	needBootstrap := len(m.active) == 0
	var bootstrapID string
	if needBootstrap {
		for _, a := range agents {
			if a.Name == bootstrapAgentName {
				bootstrapID = a.ID
				break
			}
		}
	}
	m.mu.Unlock()

	m.notify()

	if bootstrapID != "" {
		m.logger.Info("auto-starting conversation", "agent_id", bootstrapID)
		m.SelectAgent(bootstrapID)
	}
}

// Run polls the backend directories until ctx is cancelled. Refreshes are
// best-effort and never block interactive operations.
func (m *Manager) Run(ctx context.Context) {
	m.RefreshAgents(ctx)
	m.RefreshSessions(ctx)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RefreshSessions(ctx)
			m.RefreshAgents(ctx)
		}
	}
}

func (m *Manager) notify() {
	m.mu.Lock()
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}
