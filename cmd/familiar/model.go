// ABOUTME: Bubbletea model for the chat overlay: panes, pickers, tool controls.
// ABOUTME: One pane per thread stays mounted; switching threads only changes focus.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389/familiar/internal/api"
	"github.com/2389/familiar/internal/runtime"
	"github.com/2389/familiar/internal/session"
	"github.com/2389/familiar/internal/store"
	"github.com/2389/familiar/internal/toolargs"
	"github.com/2389/familiar/internal/toolcall"
	"github.com/2389/familiar/internal/transcript"
)

// mode is which surface has focus.
type mode int

const (
	modeChat mode = iota
	modeAgentPicker
	modeHistoryPicker
	modeForm
)

// Messages delivered to the model.
type (
	// stateChangedMsg fires whenever the session manager or a pane mutates.
	stateChangedMsg struct{}
	// sendDoneMsg reports the end of a message round trip.
	sendDoneMsg struct {
		threadID string
		err      error
	}
	// respondDoneMsg reports the outcome of a tool response.
	respondDoneMsg struct {
		callID string
		err    error
	}
	// noticeMsg surfaces a transient status line.
	noticeMsg string
)

type modelDeps struct {
	ctx       context.Context
	client    *api.Client
	mgr       *session.Manager
	panes     *runtime.PaneSet
	store     *store.LocalStore
	tokenPath string
	userID    string
	logger    *slog.Logger
}

type model struct {
	deps modelDeps

	mode     mode
	width    int
	height   int
	split    []int // [conversation%, sidebar%]
	ready    bool
	notice   string
	quitting bool

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	// picker cursors
	agentCursor   int
	historyCursor int

	// form editing state for the focused tool call
	formCallID string
	formFields []toolargs.FieldDefinition
	formIndex  int
}

func newModel(deps modelDeps) model {
	ti := textarea.New()
	ti.Placeholder = "Message your agent..."
	ti.SetHeight(2)
	ti.CharLimit = 0
	ti.ShowLineNumbers = false
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	return model{
		deps:    deps,
		split:   deps.store.Layout(deps.ctx),
		input:   ti,
		spinner: sp,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.refreshViewport()
		return m, nil

	case stateChangedMsg:
		m.refreshViewport()
		return m, nil

	case sendDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("send failed: %v", msg.err)
			m.deps.logger.Warn("send failed", "thread_id", msg.threadID, "error", msg.err)
		}
		m.refreshViewport()
		return m, nil

	case respondDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("tool response failed: %v", msg.err)
		}
		m.refreshViewport()
		return m, nil

	case noticeMsg:
		m.notice = string(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global bindings first.
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "ctrl+n":
		m.deps.mgr.NewThread()
		m.mode = modeChat
		m.refreshViewport()
		return m, nil
	case "ctrl+a":
		m.mode = modeAgentPicker
		m.agentCursor = 0
		return m, nil
	case "ctrl+r":
		m.mode = modeHistoryPicker
		m.historyCursor = 0
		return m, nil
	case "ctrl+x":
		return m.signOut()
	case "ctrl+e":
		return m.exportTranscript()
	case "ctrl+left":
		return m.adjustSplit(-5)
	case "ctrl+right":
		return m.adjustSplit(5)
	}

	switch m.mode {
	case modeAgentPicker:
		return m.handleAgentPickerKey(msg)
	case modeHistoryPicker:
		return m.handleHistoryPickerKey(msg)
	case modeForm:
		return m.handleFormKey(msg)
	default:
		return m.handleChatKey(msg)
	}
}

func (m model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pane := m.visiblePane()

	switch msg.String() {
	case "enter":
		content := strings.TrimSpace(m.input.Value())
		if content == "" {
			return m, nil
		}
		if pane == nil {
			m.notice = "no active conversation; ctrl+n starts one"
			return m, nil
		}
		m.input.Reset()
		return m, m.sendCmd(pane.ThreadID(), content)

	case "pgup":
		m.viewport.HalfViewUp()
		return m, nil
	case "pgdown":
		m.viewport.HalfViewDown()
		return m, nil

	// Bare-key tool shortcuts only fire on an empty input buffer. Once the
	// user has started typing a message, y/n/f/digits are just text.
	case "y", "n":
		if m.input.Value() == "" {
			if call := m.actionableCall(toolcall.KindConfirmation); call != nil {
				return m, m.respondCmd(call, map[string]any{"confirmed": msg.String() == "y"})
			}
		}
	case "f":
		if m.input.Value() == "" {
			if call := m.actionableCall(toolcall.KindForm); call != nil {
				return m.enterFormMode(call)
			}
		}
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if m.input.Value() == "" {
			if call := m.actionableCall(toolcall.KindSelection); call != nil {
				view := toolcall.Render(call, nil)
				idx := int(msg.String()[0] - '1')
				if idx < len(view.Controls) {
					return m, m.respondCmd(call, view.Controls[idx].Payload)
				}
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleAgentPickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	agents := m.deps.mgr.Agents()
	switch msg.String() {
	case "esc":
		m.mode = modeChat
	case "up", "k":
		if m.agentCursor > 0 {
			m.agentCursor--
		}
	case "down", "j":
		if m.agentCursor < len(agents)-1 {
			m.agentCursor++
		}
	case "enter":
		if m.agentCursor < len(agents) {
			m.deps.mgr.SelectAgent(agents[m.agentCursor].ID)
		}
		m.mode = modeChat
		m.refreshViewport()
	}
	return m, nil
}

func (m model) handleHistoryPickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	history := m.deps.mgr.History()
	switch msg.String() {
	case "esc":
		m.mode = modeChat
	case "up", "k":
		if m.historyCursor > 0 {
			m.historyCursor--
		}
	case "down", "j":
		if m.historyCursor < len(history)-1 {
			m.historyCursor++
		}
	case "enter":
		if m.historyCursor < len(history) {
			m.deps.mgr.SelectThread(history[m.historyCursor].ID)
		}
		m.mode = modeChat
		m.refreshViewport()
	}
	return m, nil
}

// enterFormMode points the main input at the form's fields, one at a time.
func (m model) enterFormMode(call *toolcall.Call) (tea.Model, tea.Cmd) {
	fields := toolargs.ParseFieldDefinitions(toolargs.StringArg(call.Args(), "fields"))
	if len(fields) == 0 {
		return m, nil
	}
	m.mode = modeForm
	m.formCallID = call.ID
	m.formFields = fields
	m.formIndex = 0
	m.input.Reset()
	m.input.Placeholder = fields[0].Placeholder
	return m, nil
}

func (m model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pane := m.visiblePane()
	if pane == nil {
		m.mode = modeChat
		return m, nil
	}
	form := pane.Form(m.formCallID)

	switch msg.String() {
	case "esc":
		m.mode = modeChat
		m.input.Reset()
		m.input.Placeholder = "Message your agent..."
		return m, nil

	case "enter":
		form[m.formFields[m.formIndex].Name] = strings.TrimSpace(m.input.Value())
		m.input.Reset()

		if m.formIndex+1 < len(m.formFields) {
			m.formIndex++
			m.input.Placeholder = m.formFields[m.formIndex].Placeholder
			return m, nil
		}

		// Last field: submit when everything is filled.
		call := pane.Call(m.formCallID)
		view := toolcall.Render(call, form)
		if !view.SubmitEnabled {
			m.notice = "all fields are required"
			m.formIndex = 0
			m.input.Placeholder = m.formFields[0].Placeholder
			return m, nil
		}
		m.mode = modeChat
		m.input.Placeholder = "Message your agent..."
		return m, m.respondCmd(call, toolcall.FormPayload(m.formFields, form))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// exportTranscript writes the visible conversation to an HTML file in the
// working directory.
func (m model) exportTranscript() (tea.Model, tea.Cmd) {
	pane := m.visiblePane()
	if pane == nil {
		m.notice = "nothing to export"
		return m, nil
	}
	binding := m.deps.mgr.Binding(pane.ThreadID())

	name := fmt.Sprintf("familiar-%s.html", time.Now().Format("20060102-150405"))
	f, err := os.Create(name)
	if err != nil {
		m.notice = fmt.Sprintf("export failed: %v", err)
		return m, nil
	}
	defer f.Close()

	title := fmt.Sprintf("Conversation with %s", binding.AgentName)
	if err := transcript.Export(f, pane, binding, title); err != nil {
		m.notice = fmt.Sprintf("export failed: %v", err)
		return m, nil
	}
	m.notice = "exported " + name
	return m, nil
}

func (m model) signOut() (tea.Model, tea.Cmd) {
	m.deps.mgr.Reset(m.deps.ctx)
	m.deps.panes.Reset()
	if err := m.deps.store.ClearLayout(m.deps.ctx); err != nil {
		m.deps.logger.Warn("clearing layout failed", "error", err)
	}
	m.split = append([]int(nil), store.DefaultLayout...)
	m.deps.logger.Info("signed out", "user_id", m.deps.userID)
	m.notice = "signed out"
	m.quitting = true
	return m, tea.Quit
}

func (m model) adjustSplit(delta int) (tea.Model, tea.Cmd) {
	next := m.split[0] + delta
	if next < 40 || next > 90 {
		return m, nil
	}
	m.split = []int{next, 100 - next}
	if err := m.deps.store.SaveLayout(m.deps.ctx, m.split); err != nil {
		m.deps.logger.Warn("saving layout failed", "error", err)
	}
	m.layout()
	m.refreshViewport()
	return m, nil
}

// sendCmd posts a user message on the thread. The round trip runs off the UI
// goroutine; pane updates arrive via OnChange.
func (m model) sendCmd(threadID, content string) tea.Cmd {
	binding := m.deps.mgr.Binding(threadID)
	sender := api.NewThreadSender(m.deps.client, m.deps.panes, threadID, binding, m.deps.userID)
	ctx := m.deps.ctx
	return func() tea.Msg {
		err := sender.SendUser(ctx, content)
		return sendDoneMsg{threadID: threadID, err: err}
	}
}

// respondCmd sends a tool response through the at-most-once responder.
func (m model) respondCmd(call *toolcall.Call, payload map[string]any) tea.Cmd {
	pane := m.visiblePane()
	if pane == nil || call == nil {
		return nil
	}
	binding := m.deps.mgr.Binding(pane.ThreadID())
	sender := api.NewThreadSender(m.deps.client, m.deps.panes, pane.ThreadID(), binding, m.deps.userID)
	responder := toolcall.NewResponder(call, sender, pane, nil, m.deps.logger)
	ctx := m.deps.ctx
	return func() tea.Msg {
		err := responder.Respond(ctx, payload)
		return respondDoneMsg{callID: call.ID, err: err}
	}
}

// actionableCall returns the first executing, unanswered call of the given
// kind on the visible pane.
func (m model) actionableCall(kind toolcall.Kind) *toolcall.Call {
	pane := m.visiblePane()
	if pane == nil {
		return nil
	}
	for _, call := range pane.Calls() {
		if toolcall.Resolve(call.Name) != kind {
			continue
		}
		if call.Status() == toolcall.StatusExecuting && !call.Responded() {
			return call
		}
	}
	return nil
}

func (m *model) visiblePane() *runtime.Pane {
	id := m.deps.mgr.VisibleThread()
	if id == "" {
		return nil
	}
	return m.deps.panes.Pane(id)
}

// layout recomputes component sizes from the window and split preference.
func (m *model) layout() {
	if m.width == 0 {
		return
	}
	convWidth := m.width * m.split[0] / 100
	vpHeight := m.height - m.input.Height() - 4 // header + status + borders
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport = viewport.New(convWidth-2, vpHeight)
	m.input.SetWidth(convWidth - 2)
}

// refreshViewport re-renders the visible pane into the viewport.
func (m *model) refreshViewport() {
	if !m.ready {
		return
	}
	pane := m.visiblePane()
	if pane == nil {
		m.viewport.SetContent(emptyStateView())
		return
	}
	binding := m.deps.mgr.Binding(pane.ThreadID())
	m.viewport.SetContent(renderConversation(pane, binding, m.viewport.Width))
	m.viewport.GotoBottom()
}

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
