// ABOUTME: HTML export of a conversation thread for sharing or archiving.
// ABOUTME: Renders message markdown via goldmark inside a self-contained page.

package transcript

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/yuin/goldmark"

	"github.com/2389/familiar/internal/runtime"
	"github.com/2389/familiar/internal/session"
	"github.com/2389/familiar/internal/toolcall"
)

// pageTemplate is the self-contained HTML shell. No external assets so the
// file can be mailed or archived as-is.
var pageTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
.meta { color: #666; font-size: 0.85rem; margin-bottom: 2rem; }
.msg { margin: 1rem 0; padding: 0.75rem 1rem; border-radius: 8px; }
.msg.user { background: #e8f0fe; }
.msg.assistant { background: #f6f6f6; }
.msg.system { background: #fff3e0; font-style: italic; }
.msg .who { font-weight: 600; font-size: 0.8rem; text-transform: uppercase; color: #555; }
.tool { margin: 0.5rem 0 0.5rem 1.5rem; padding: 0.5rem 0.75rem; border-left: 3px solid #bbb; font-size: 0.9rem; color: #444; }
.tool .name { font-family: monospace; font-weight: 600; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">{{.AgentName}} &middot; exported {{.ExportedAt}}</div>
{{range .Entries}}
<div class="msg {{.Role}}">
<div class="who">{{.Who}}</div>
{{.Body}}
</div>
{{range .Tools}}
<div class="tool"><span class="name">{{.Name}}</span> &mdash; {{.Status}}</div>
{{end}}
{{end}}
</body>
</html>
`))

type pageEntry struct {
	Role  string
	Who   string
	Body  template.HTML
	Tools []toolEntry
}

type toolEntry struct {
	Name   string
	Status string
}

type pageData struct {
	Title      string
	AgentName  string
	ExportedAt string
	Entries    []pageEntry
}

// Export writes the pane's transcript as a standalone HTML page. Tool calls
// are appended after the last message since panes do not interleave them
// positionally.
func Export(w io.Writer, pane *runtime.Pane, binding session.Binding, title string) error {
	if title == "" {
		title = "Conversation"
	}

	data := pageData{
		Title:      title,
		AgentName:  binding.AgentName,
		ExportedAt: time.Now().Format("2006-01-02 15:04"),
	}

	for _, msg := range pane.Messages() {
		body, err := renderMarkdown(msg.Content)
		if err != nil {
			return fmt.Errorf("rendering message: %w", err)
		}
		data.Entries = append(data.Entries, pageEntry{
			Role: string(msg.Role),
			Who:  who(msg.Role, binding),
			Body: body,
		})
	}

	var tools []toolEntry
	for _, call := range pane.Calls() {
		if toolcall.Resolve(call.Name) == toolcall.KindSilent {
			continue
		}
		tools = append(tools, toolEntry{
			Name:   call.Name,
			Status: call.Status().String(),
		})
	}
	if len(tools) > 0 {
		if len(data.Entries) == 0 {
			data.Entries = append(data.Entries, pageEntry{Role: "system", Who: "System"})
		}
		data.Entries[len(data.Entries)-1].Tools = tools
	}

	return pageTemplate.Execute(w, data)
}

// renderMarkdown converts message markdown to HTML. goldmark escapes raw
// HTML by default, so agent or user content cannot inject markup.
func renderMarkdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func who(role runtime.Role, binding session.Binding) string {
	switch role {
	case runtime.RoleUser:
		return "You"
	case runtime.RoleAssistant:
		if binding.AgentName != "" {
			return binding.AgentName
		}
		return session.PlaceholderAgentName
	default:
		return "System"
	}
}
