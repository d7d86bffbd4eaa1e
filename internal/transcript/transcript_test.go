// ABOUTME: Tests for HTML transcript export.
// ABOUTME: Covers markdown rendering, role labels, tool listing, and HTML escaping.

package transcript

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/familiar/internal/runtime"
	"github.com/2389/familiar/internal/session"
)

func TestExport_RendersMessages(t *testing.T) {
	pane := runtime.NewPane("t1", nil)
	pane.AppendUser("Show me **bold** text")
	pane.Apply(runtime.StreamEvent{Type: runtime.EventText, Text: "Here it is: **bold**"})
	pane.Apply(runtime.StreamEvent{Type: runtime.EventDone})

	var buf bytes.Buffer
	err := Export(&buf, pane, session.Binding{AgentName: "Main Agent"}, "Bold demo")
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "<title>Bold demo</title>")
	assert.Contains(t, html, "Main Agent")
	assert.Contains(t, html, "You")
	assert.Contains(t, html, "<strong>bold</strong>", "markdown is rendered")
}

func TestExport_EscapesRawHTML(t *testing.T) {
	pane := runtime.NewPane("t1", nil)
	pane.Apply(runtime.StreamEvent{Type: runtime.EventText, Text: "<script>alert(1)</script>"})

	var buf bytes.Buffer
	err := Export(&buf, pane, session.Binding{}, "")
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
}

func TestExport_ListsToolCallsExceptSilent(t *testing.T) {
	pane := runtime.NewPane("t1", nil)
	pane.Apply(runtime.StreamEvent{Type: runtime.EventText, Text: "Running it now"})
	pane.Apply(runtime.StreamEvent{Type: runtime.EventToolUse, ToolCallID: "c1", ToolName: "run_command"})
	pane.Apply(runtime.StreamEvent{Type: runtime.EventToolUse, ToolCallID: "c2", ToolName: "set_theme"})
	pane.Apply(runtime.StreamEvent{Type: runtime.EventToolResult, ToolCallID: "c1", Result: map[string]any{"stdout": "ok"}})

	var buf bytes.Buffer
	err := Export(&buf, pane, session.Binding{AgentName: "Main Agent"}, "")
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "run_command")
	assert.Contains(t, html, "complete")
	assert.NotContains(t, html, "set_theme", "silent tools stay out of the export")
}

func TestExport_PlaceholderAgentName(t *testing.T) {
	pane := runtime.NewPane("t1", nil)
	pane.Apply(runtime.StreamEvent{Type: runtime.EventText, Text: "hello"})

	var buf bytes.Buffer
	err := Export(&buf, pane, session.Binding{}, "")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), session.PlaceholderAgentName)
}

func TestExport_EmptyPane(t *testing.T) {
	pane := runtime.NewPane("t1", nil)

	var buf bytes.Buffer
	err := Export(&buf, pane, session.Binding{}, "")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "<title>Conversation</title>")
}
