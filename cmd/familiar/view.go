// ABOUTME: Terminal rendering for the chat overlay: conversation, sidebar, pickers.
// ABOUTME: Assistant markdown goes through glamour; tool calls render their view projection.

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389/familiar/internal/runtime"
	"github.com/2389/familiar/internal/session"
	"github.com/2389/familiar/internal/toolcall"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	agentStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	systemStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("214"))
	dangerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	toolBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
)

func (m model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.ready {
		return "loading..."
	}

	switch m.mode {
	case modeAgentPicker:
		return m.agentPickerView()
	case modeHistoryPicker:
		return m.historyPickerView()
	default:
		return m.chatView()
	}
}

func (m model) chatView() string {
	pane := m.visiblePane()

	header := m.headerView(pane)
	conv := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.inputView(),
		m.statusView(pane),
	)

	sidebarWidth := m.width - (m.width*m.split[0])/100 - 3
	if sidebarWidth < 16 {
		return conv
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, conv, m.sidebarView(sidebarWidth))
}

func (m model) headerView(pane *runtime.Pane) string {
	title := "familiar"
	if pane != nil {
		binding := m.deps.mgr.Binding(pane.ThreadID())
		title = binding.AgentName
	}
	return headerStyle.Render(title)
}

func (m model) inputView() string {
	if m.mode == modeForm {
		field := m.formFields[m.formIndex]
		label := field.Label
		return lipgloss.JoinVertical(lipgloss.Left,
			mutedStyle.Render(fmt.Sprintf("%s (%d/%d, esc cancels)", label, m.formIndex+1, len(m.formFields))),
			m.input.View(),
		)
	}
	return m.input.View()
}

func (m model) statusView(pane *runtime.Pane) string {
	parts := []string{}
	if pane != nil && pane.Streaming() {
		thinking := pane.Thinking()
		if thinking != "" {
			parts = append(parts, m.spinner.View()+" "+mutedStyle.Render(truncate(thinking, 60)))
		} else {
			parts = append(parts, m.spinner.View()+" "+mutedStyle.Render("responding..."))
		}
	}
	if m.notice != "" {
		parts = append(parts, systemStyle.Render(m.notice))
	}
	parts = append(parts, mutedStyle.Render("ctrl+n new · ctrl+a agents · ctrl+r history · ctrl+e export · ctrl+x sign out"))
	return strings.Join(parts, "  ")
}

func (m model) sidebarView(width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Threads") + "\n")

	visible := m.deps.mgr.VisibleThread()
	for _, id := range m.deps.mgr.ActiveThreads() {
		binding := m.deps.mgr.Binding(id)
		line := truncate(binding.AgentName, width-4)
		if id == visible {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	history := m.deps.mgr.History()
	if len(history) > 0 {
		b.WriteString("\n" + headerStyle.Render("Recent") + "\n")
		for i, rec := range history {
			if i >= 8 {
				break
			}
			title := rec.Title
			if title == "" {
				title = rec.ID
			}
			b.WriteString(mutedStyle.Render(truncate(title, width-2)) + "\n")
		}
	}

	return sidebarStyle.Width(width).Render(b.String())
}

func (m model) agentPickerView() string {
	agents := m.deps.mgr.Agents()
	var b strings.Builder
	b.WriteString(headerStyle.Render("Choose an agent") + "\n\n")
	if len(agents) == 0 {
		b.WriteString(mutedStyle.Render("no agents available") + "\n")
	}
	for i, a := range agents {
		if i == m.agentCursor {
			b.WriteString(selectedStyle.Render("> "+a.Name) + "\n")
		} else {
			b.WriteString("  " + a.Name + "\n")
		}
	}
	b.WriteString("\n" + mutedStyle.Render("enter selects and starts a fresh conversation · esc cancels"))
	return b.String()
}

func (m model) historyPickerView() string {
	history := m.deps.mgr.History()
	var b strings.Builder
	b.WriteString(headerStyle.Render("Recent conversations") + "\n\n")
	if len(history) == 0 {
		b.WriteString(mutedStyle.Render("no history yet") + "\n")
	}
	for i, rec := range history {
		title := rec.Title
		if title == "" {
			title = rec.ID
		}
		line := fmt.Sprintf("%s  %s", truncate(title, 48), mutedStyle.Render(rec.LastActivity.Format("Jan 2 15:04")))
		if i == m.historyCursor {
			b.WriteString(selectedStyle.Render("> ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n" + mutedStyle.Render("enter opens · esc cancels"))
	return b.String()
}

func emptyStateView() string {
	return mutedStyle.Render("No conversation yet. ctrl+a picks an agent, ctrl+n starts a thread.")
}

// renderConversation produces the viewport content for one pane: messages
// interleaved with the pane's tool call views.
func renderConversation(pane *runtime.Pane, binding session.Binding, width int) string {
	var b strings.Builder

	renderer := markdownRenderer(width)

	for _, msg := range pane.Messages() {
		switch msg.Role {
		case runtime.RoleUser:
			b.WriteString(userStyle.Render("You") + "\n")
			b.WriteString(msg.Content + "\n\n")
		case runtime.RoleAssistant:
			name := binding.AgentName
			if name == "" {
				name = session.PlaceholderAgentName
			}
			b.WriteString(agentStyle.Render(name) + "\n")
			b.WriteString(renderMarkdown(renderer, msg.Content) + "\n")
		default:
			b.WriteString(systemStyle.Render(msg.Content) + "\n\n")
		}
	}

	for _, call := range pane.Calls() {
		view := toolcall.Render(call, pane.Form(call.ID))
		if view.Hidden {
			continue
		}
		b.WriteString(renderToolCall(view, width) + "\n")
	}

	return b.String()
}

// renderToolCall draws one tool call view as a bordered block.
func renderToolCall(view toolcall.View, width int) string {
	var b strings.Builder

	if view.Title != "" {
		b.WriteString(headerStyle.Render(view.Title) + "\n")
	}
	if view.StatusLine != "" {
		b.WriteString(mutedStyle.Render(view.StatusLine) + "\n")
	}
	for _, block := range view.Blocks {
		if block.Label != "" {
			b.WriteString(mutedStyle.Render(block.Label+":") + " ")
		}
		b.WriteString(block.Content + "\n")
	}
	for _, block := range view.Disclosure {
		b.WriteString(mutedStyle.Render(block.Label) + "\n")
		b.WriteString(indent(block.Content) + "\n")
	}

	if len(view.Controls) > 0 {
		var controls []string
		for i, ctl := range view.Controls {
			label := fmt.Sprintf("[%d] %s", i+1, ctl.Label)
			if view.Kind == toolcall.KindConfirmation {
				if ctl.Danger {
					label = dangerStyle.Render("[y] " + ctl.Label)
				} else {
					label = "[n] " + ctl.Label
				}
			} else if ctl.Danger {
				label = dangerStyle.Render(label)
			}
			controls = append(controls, label)
		}
		b.WriteString(strings.Join(controls, "  ") + "\n")
	}

	if len(view.Fields) > 0 {
		b.WriteString(mutedStyle.Render("press f to fill out the form") + "\n")
		for _, field := range view.Fields {
			b.WriteString("  " + field.Label + "\n")
		}
		if view.SubmitEnabled {
			b.WriteString(okStyle.Render(view.SubmitLabel) + "\n")
		}
	}

	boxWidth := width - 4
	if boxWidth < 20 {
		boxWidth = 20
	}
	return toolBoxStyle.Width(boxWidth).Render(strings.TrimRight(b.String(), "\n"))
}

// markdownRenderer builds a glamour renderer for the given width. Falls back
// to nil (plain text) when the terminal profile cannot be determined.
func markdownRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

func renderMarkdown(r *glamour.TermRenderer, content string) string {
	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n") + "\n"
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if maxLen <= 3 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
