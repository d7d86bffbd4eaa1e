// ABOUTME: Tests for handler-kind resolution and the pure render projection
// ABOUTME: Covers wildcard fallback, selection/form/confirmation views, display disclosure

package toolcall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/familiar/internal/toolargs"
)

func TestResolve_KnownNames(t *testing.T) {
	assert.Equal(t, KindSelection, Resolve("prompt_user_selection"))
	assert.Equal(t, KindForm, Resolve("prompt_user_input"))
	assert.Equal(t, KindConfirmation, Resolve("delete_contact"))
	assert.Equal(t, KindConfirmation, Resolve("send_bulk_email"))
	assert.Equal(t, KindDisplay, Resolve("run_command"))
	assert.Equal(t, KindSilent, Resolve("set_theme"))
}

func TestResolve_CaseInsensitive(t *testing.T) {
	assert.Equal(t, KindSelection, Resolve("Prompt_User_Selection"))
}

func TestResolve_UnknownFallsThrough(t *testing.T) {
	assert.Equal(t, KindUnregistered, Resolve("mystery_tool"))
	assert.False(t, Registered("mystery_tool"))
}

func TestResolve_ExclusionListCoversDedicatedHandlers(t *testing.T) {
	// Any name with a dedicated handler must never reach the wildcard path.
	for _, name := range []string{
		"set_theme", "navigate_to", "analyze_contact_insights",
		"read_file_content", "run_command", "run_python_code",
		"send_bulk_email", "delete_contact",
		"prompt_user_selection", "prompt_user_input",
	} {
		assert.True(t, Registered(name), "%s should be excluded from wildcard", name)
		assert.NotEqual(t, KindUnregistered, Resolve(name))
	}
}

func TestKind_Interactive(t *testing.T) {
	assert.True(t, KindConfirmation.Interactive())
	assert.True(t, KindSelection.Interactive())
	assert.True(t, KindForm.Interactive())
	assert.False(t, KindDisplay.Interactive())
	assert.False(t, KindSilent.Interactive())
	assert.False(t, KindUnregistered.Interactive())
}

func TestRender_SilentHidden(t *testing.T) {
	call := NewCall("tc-1", "set_theme", map[string]any{"theme": "dark"})
	call.Advance(StatusExecuting)
	assert.True(t, Render(call, nil).Hidden)
}

func TestRender_UnregisteredBadge(t *testing.T) {
	call := NewCall("tc-2", "mystery_tool", map[string]any{"target": "x"})
	call.Advance(StatusExecuting)

	view := Render(call, nil)
	assert.Equal(t, "mystery_tool", view.Title)
	assert.Equal(t, "Running...", view.StatusLine)
	require.Len(t, view.Blocks, 1)
	assert.Equal(t, "Parameters", view.Blocks[0].Label)
	assert.Contains(t, view.Blocks[0].Content, `"target": "x"`)

	call.CompleteWith(map[string]any{"ok": true})
	view = Render(call, nil)
	assert.Equal(t, "Complete", view.StatusLine)
	require.Len(t, view.Blocks, 2)
	assert.Equal(t, "Result", view.Blocks[1].Label)
}

func TestRender_UnregisteredNoArgsNoBlocks(t *testing.T) {
	call := NewCall("tc-3", "mystery_tool", nil)
	view := Render(call, nil)
	assert.Equal(t, "Preparing...", view.StatusLine)
	assert.Empty(t, view.Blocks)
}

func TestRender_SelectionControls(t *testing.T) {
	call := NewCall("tc-4", "prompt_user_selection", map[string]any{
		"question": "Favorite color?",
		"choices":  "red\nblue\ngreen",
	})
	call.Advance(StatusExecuting)

	view := Render(call, nil)
	assert.Equal(t, "Favorite color?", view.Title)
	require.Len(t, view.Controls, 3)
	assert.Equal(t, "blue", view.Controls[1].Label)
	assert.Equal(t, "blue", view.Controls[1].Payload["selected"])
	assert.Equal(t, "Favorite color?", view.Controls[1].Payload["question"])
}

func TestRender_SelectionFallsBackToOptionsKey(t *testing.T) {
	call := NewCall("tc-5", "prompt_user_selection", map[string]any{"options": "a|b"})
	call.Advance(StatusExecuting)
	assert.Len(t, Render(call, nil).Controls, 2)
}

func TestRender_SelectionNoChoicesHidden(t *testing.T) {
	call := NewCall("tc-6", "prompt_user_selection", map[string]any{"question": "hm"})
	call.Advance(StatusExecuting)
	assert.True(t, Render(call, nil).Hidden)
}

func TestRender_SelectionComplete(t *testing.T) {
	call := NewCall("tc-7", "prompt_user_selection", map[string]any{"question": "q", "choices": "a|b"})
	call.Advance(StatusExecuting)
	call.CompleteWith(map[string]any{"selected": "b"})

	view := Render(call, nil)
	assert.Equal(t, "Selected: b", view.StatusLine)
	assert.Empty(t, view.Controls)
}

func TestRender_FormSubmitGating(t *testing.T) {
	call := NewCall("tc-8", "prompt_user_input", map[string]any{
		"question": "Contact details",
		"fields":   "email:Email:you@x.com:email|msg:Message::textarea",
	})
	call.Advance(StatusExecuting)

	view := Render(call, map[string]string{"email": "a@b.c"})
	require.Len(t, view.Fields, 2)
	assert.Equal(t, "Submit", view.SubmitLabel)
	assert.False(t, view.SubmitEnabled, "submission requires every field filled")

	view = Render(call, map[string]string{"email": "a@b.c", "msg": "hello"})
	assert.True(t, view.SubmitEnabled)

	// Whitespace-only values do not count as filled.
	view = Render(call, map[string]string{"email": "a@b.c", "msg": "   "})
	assert.False(t, view.SubmitEnabled)
}

func TestRender_FormCompleteListsSubmittedValues(t *testing.T) {
	call := NewCall("tc-9", "prompt_user_input", map[string]any{"fields": "name:Name"})
	call.Advance(StatusExecuting)
	call.CompleteWith(map[string]any{"name": "Ada", "timestamp": float64(123)})

	view := Render(call, nil)
	require.Len(t, view.Blocks, 1)
	assert.Equal(t, "name", view.Blocks[0].Label)
	assert.Equal(t, "Ada", view.Blocks[0].Content)
}

func TestRender_FormClosedWithoutSubmitting(t *testing.T) {
	call := NewCall("tc-10", "prompt_user_input", map[string]any{"fields": "name:Name"})
	call.Advance(StatusExecuting)
	call.CompleteWith(nil)

	view := Render(call, nil)
	assert.Contains(t, view.StatusLine, "closed before any information")
}

func TestRender_ConfirmationExecuting(t *testing.T) {
	call := NewCall("tc-11", "delete_contact", map[string]any{
		"contact_id": "c-42",
		"reason":     "duplicate record",
	})
	call.Advance(StatusExecuting)

	view := Render(call, nil)
	assert.Equal(t, "Delete Contact", view.Title)
	require.Len(t, view.Blocks, 2)
	require.Len(t, view.Controls, 2)
	assert.Equal(t, "Confirm", view.Controls[0].Label)
	assert.Equal(t, true, view.Controls[0].Payload["confirmed"])
	assert.True(t, view.Controls[0].Danger)
	assert.Equal(t, false, view.Controls[1].Payload["confirmed"])
}

func TestRender_ConfirmationOutcomes(t *testing.T) {
	call := NewCall("tc-12", "send_bulk_email", nil)
	call.Advance(StatusExecuting)
	call.CompleteWith(map[string]any{"confirmed": true})
	view := Render(call, nil)
	assert.Equal(t, "Confirmed", view.StatusLine)
	assert.True(t, view.Confirmed)

	cancelled := NewCall("tc-13", "send_bulk_email", nil)
	cancelled.Advance(StatusExecuting)
	cancelled.CompleteWith(map[string]any{"approved": false})
	view = Render(cancelled, nil)
	assert.Equal(t, "Cancelled", view.StatusLine)
	assert.False(t, view.Confirmed)
}

func TestRender_DisplayPendingHidden(t *testing.T) {
	call := NewCall("tc-14", "run_command", map[string]any{"command": "ls"})
	assert.True(t, Render(call, nil).Hidden, "partial argument fragments must not flicker")
}

func TestRender_DisplayExecuting(t *testing.T) {
	call := NewCall("tc-15", "run_command", map[string]any{"command": "ls -la"})
	call.Advance(StatusExecuting)

	view := Render(call, nil)
	assert.Equal(t, "Running command...", view.StatusLine)
	assert.Equal(t, "ls -la", view.Title)
	assert.Empty(t, view.Disclosure)
}

func TestRender_DisplayCompleteDisclosure(t *testing.T) {
	call := NewCall("tc-16", "run_command", map[string]any{"command": "make test"})
	call.Advance(StatusExecuting)
	call.CompleteWith(map[string]any{
		"stdout":    "ok\n",
		"stderr":    "",
		"exit_code": float64(0),
		"duration":  "1.2s",
	})

	view := Render(call, nil)
	assert.Equal(t, "Command run", view.StatusLine)

	labels := make([]string, 0, len(view.Disclosure))
	for _, block := range view.Disclosure {
		labels = append(labels, block.Label)
	}
	assert.Contains(t, labels, "input")
	assert.Contains(t, labels, "stdout")
	assert.Contains(t, labels, "exit code")
	assert.Contains(t, labels, "details") // leftover "duration" key
	// Empty stderr is omitted entirely.
	assert.NotContains(t, labels, "stderr")
}

func TestRender_DisplaySequenceResultJoinedByNewline(t *testing.T) {
	call := NewCall("tc-17", "run_python_code", map[string]any{"code": "print(1)"})
	call.Advance(StatusExecuting)
	call.CompleteWith(map[string]any{
		"stdout": []any{"line1", map[string]any{"k": "v"}},
	})

	view := Render(call, nil)
	var stdout string
	for _, block := range view.Disclosure {
		if block.Label == "stdout" {
			stdout = block.Content
		}
	}
	assert.Contains(t, stdout, "line1\n")
	assert.Contains(t, stdout, `"k": "v"`)
}

func TestRender_CodePreviewTruncated(t *testing.T) {
	long := "import os\nimport sys\nprint('x')"
	call := NewCall("tc-18", "run_python_code", map[string]any{"code": long})
	call.Advance(StatusExecuting)

	view := Render(call, nil)
	assert.Equal(t, "import os import sys", view.Title)
}

func TestFormPayload(t *testing.T) {
	defs := toolargs.ParseFieldDefinitions("email:Email|msg:Message")
	payload := FormPayload(defs, map[string]string{"email": "a@b.c", "msg": "hi"})
	assert.Equal(t, "a@b.c", payload["email"])
	assert.Equal(t, "hi", payload["msg"])
}
