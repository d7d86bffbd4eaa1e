// ABOUTME: Pure render projection from a tool call to frontend-agnostic view data
// ABOUTME: Computes titles, detail blocks, controls, and form state without any UI framework

package toolcall

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/2389/familiar/internal/toolargs"
)

// DetailBlock is a labeled chunk of preformatted text.
type DetailBlock struct {
	Label   string
	Content string
}

// Control is one actionable element (a button). Activating it should call
// Respond with the attached payload.
type Control struct {
	Label   string
	Payload map[string]any
	Danger  bool
}

// View is everything a frontend needs to draw one tool call. Computing it is
// pure: rendering the same call (and form state) twice yields the same view.
type View struct {
	Kind       Kind
	Hidden     bool
	Title      string
	StatusLine string
	Blocks     []DetailBlock
	// Disclosure blocks are shown on demand (progressive disclosure).
	Disclosure []DetailBlock
	Controls   []Control
	// Form inputs, present only for KindForm in the executing state.
	Fields        []toolargs.FieldDefinition
	SubmitLabel   string
	SubmitEnabled bool
	// Outcome styling hint for completed confirmations.
	Confirmed bool
}

// Render computes the view for a call. form carries the user's local field
// edits for form-style tools and is ignored for every other kind.
func Render(call *Call, form map[string]string) View {
	kind := Resolve(call.Name)
	status := call.Status()

	switch kind {
	case KindSilent:
		return View{Kind: kind, Hidden: true}
	case KindSelection:
		return renderSelection(call, status)
	case KindForm:
		return renderForm(call, status, form)
	case KindConfirmation:
		return renderConfirmation(call, status)
	case KindDisplay:
		return renderDisplay(call, status)
	default:
		return renderUnregistered(call, status)
	}
}

func renderSelection(call *Call, status Status) View {
	if status == StatusPending {
		return View{Kind: KindSelection, Hidden: true}
	}

	question := toolargs.StringArg(call.Args(), "question")
	if question == "" {
		question = "Please choose one of the options below"
	}

	if status == StatusComplete {
		selected, _ := call.Result()["selected"].(string)
		return View{
			Kind:       KindSelection,
			Title:      question,
			StatusLine: "Selected: " + selected,
		}
	}

	choices := toolargs.ParseChoiceList(toolargs.StringArg(call.Args(), "choices", "options"))
	if len(choices) == 0 {
		// Nothing selectable yet; stay invisible instead of rendering a husk.
		return View{Kind: KindSelection, Hidden: true}
	}

	view := View{Kind: KindSelection, Title: question}
	for _, choice := range choices {
		view.Controls = append(view.Controls, Control{
			Label: choice,
			Payload: map[string]any{
				"selected": choice,
				"question": question,
			},
		})
	}
	return view
}

func renderForm(call *Call, status Status, form map[string]string) View {
	if status == StatusPending {
		return View{Kind: KindForm, Hidden: true}
	}

	question := toolargs.StringArg(call.Args(), "question")
	if question == "" {
		question = "Please provide the requested details"
	}

	if status == StatusComplete {
		return renderFormOutcome(call, question)
	}

	fields := toolargs.ParseFieldDefinitions(toolargs.StringArg(call.Args(), "fields"))
	if len(fields) == 0 {
		return View{Kind: KindForm, Hidden: true}
	}

	submitLabel := toolargs.StringArg(call.Args(), "submit_label")
	if submitLabel == "" {
		submitLabel = "Submit"
	}

	return View{
		Kind:          KindForm,
		Title:         question,
		Fields:        fields,
		SubmitLabel:   submitLabel,
		SubmitEnabled: allFilled(fields, form),
	}
}

// FormPayload builds the respond payload for a completed form: every field
// value keyed by field name. The responder stamps the timestamp.
func FormPayload(fields []toolargs.FieldDefinition, form map[string]string) map[string]any {
	payload := make(map[string]any, len(fields))
	for _, field := range fields {
		payload[field.Name] = form[field.Name]
	}
	return payload
}

func renderFormOutcome(call *Call, question string) View {
	result := call.Result()

	keys := make([]string, 0, len(result))
	for key := range result {
		if key == "timestamp" || key == "tool_call_id" || key == "tool_name" || key == "source" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		return View{
			Kind:       KindForm,
			Title:      question,
			StatusLine: "Form was closed before any information was provided.",
		}
	}

	view := View{Kind: KindForm, Title: question, StatusLine: "Form submitted"}
	for _, key := range keys {
		view.Blocks = append(view.Blocks, DetailBlock{Label: key, Content: displayString(result[key])})
	}
	return view
}

func renderConfirmation(call *Call, status Status) View {
	if status == StatusPending {
		return View{Kind: KindConfirmation, Hidden: true}
	}

	if status == StatusComplete {
		confirmed := confirmedOutcome(call.Result())
		line := "Cancelled"
		if confirmed {
			line = "Confirmed"
		}
		return View{
			Kind:       KindConfirmation,
			Title:      humanize(call.Name),
			StatusLine: line,
			Confirmed:  confirmed,
		}
	}

	view := View{Kind: KindConfirmation, Title: humanize(call.Name)}
	args := call.Args()
	for _, key := range sortedKeys(args) {
		content := displayString(args[key])
		if content == "" {
			continue
		}
		view.Blocks = append(view.Blocks, DetailBlock{Label: key, Content: content})
	}
	view.Controls = []Control{
		{Label: "Confirm", Payload: map[string]any{"confirmed": true}, Danger: true},
		{Label: "Cancel", Payload: map[string]any{"confirmed": false}},
	}
	return view
}

// confirmedOutcome accepts either key: older agents send approved, newer send confirmed.
func confirmedOutcome(result map[string]any) bool {
	if v, ok := result["confirmed"].(bool); ok {
		return v
	}
	if v, ok := result["approved"].(bool); ok {
		return v
	}
	return false
}

// displayStatusLines maps display tools to their executing/complete phrasing.
var displayStatusLines = map[string][2]string{
	"read_file_content": {"Reading file...", "File read"},
	"run_command":       {"Running command...", "Command run"},
	"run_python_code":   {"Executing Python...", "Python executed"},
}

func renderDisplay(call *Call, status Status) View {
	if status == StatusPending {
		// Args may still be streaming in fragments; showing them now flickers.
		return View{Kind: KindDisplay, Hidden: true}
	}

	lines, ok := displayStatusLines[normalize(call.Name)]
	if !ok {
		lines = [2]string{fmt.Sprintf("Running %s...", call.Name), fmt.Sprintf("%s done", call.Name)}
	}

	view := View{Kind: KindDisplay, Title: displayTitle(call)}
	if status == StatusExecuting {
		view.StatusLine = lines[0]
		return view
	}

	view.StatusLine = lines[1]
	if input := displayInput(call); input != "" {
		view.Disclosure = append(view.Disclosure, DetailBlock{Label: "input", Content: input})
	}
	view.Disclosure = append(view.Disclosure, resultBlocks(call.Result())...)
	return view
}

func renderUnregistered(call *Call, status Status) View {
	view := View{
		Kind:       KindUnregistered,
		Title:      call.Name,
		StatusLine: statusText(status),
	}
	if args := call.Args(); len(args) > 0 {
		view.Blocks = append(view.Blocks, DetailBlock{Label: "Parameters", Content: prettyJSON(args)})
	}
	if status == StatusComplete {
		if result := call.Result(); len(result) > 0 {
			view.Blocks = append(view.Blocks, DetailBlock{Label: "Result", Content: prettyJSON(result)})
		}
	}
	return view
}

func statusText(status Status) string {
	switch status {
	case StatusExecuting:
		return "Running..."
	case StatusComplete:
		return "Complete"
	default:
		return "Preparing..."
	}
}

// displayTitle picks the primary input of a display tool: the file path,
// command line, or a one-line code preview.
func displayTitle(call *Call) string {
	switch normalize(call.Name) {
	case "read_file_content":
		if path := toolargs.StringArg(call.Args(), "file_path", "path", "file", "filename", "filepath"); path != "" {
			return path
		}
		return "File"
	case "run_command":
		if cmd := toolargs.StringArg(call.Args(), "command", "commands", "cmd", "line"); cmd != "" {
			return cmd
		}
		return "Command"
	case "run_python_code":
		code := toolargs.StringArg(call.Args(), "code", "script", "source", "python")
		if code == "" {
			return "Python code"
		}
		return codePreview(code)
	default:
		return call.Name
	}
}

// displayInput returns the full input for the disclosure section.
func displayInput(call *Call) string {
	switch normalize(call.Name) {
	case "run_command":
		return toolargs.StringArg(call.Args(), "command", "commands", "cmd", "line")
	case "run_python_code":
		return toolargs.StringArg(call.Args(), "code", "script", "source", "python")
	case "read_file_content":
		return toolargs.StringArg(call.Args(), "file_path", "path", "file", "filename", "filepath")
	default:
		return ""
	}
}

// codePreview squashes code to its first two lines, capped at 80 characters.
func codePreview(code string) string {
	lines := strings.Split(strings.TrimSpace(code), "\n")
	if len(lines) > 2 {
		lines = lines[:2]
	}
	preview := strings.Join(lines, " ")
	if len(preview) > 80 {
		preview = preview[:80] + "..."
	}
	return preview
}

// primaryResultKeys are extracted into their own named blocks; anything left
// over is grouped into a single pretty-printed block.
var primaryResultKeys = []struct {
	label string
	keys  []string
}{
	{"stdout", []string{"stdout", "STDOUT"}},
	{"stderr", []string{"stderr", "STDERR"}},
	{"output", []string{"output", "OUTPUT"}},
	{"result", []string{"result", "returnValue", "value"}},
}

var exitCodeKeys = []string{"exitCode", "exit_code", "code"}

// resultBlocks converts an arbitrary result shape into labeled preformatted
// blocks. Empty or absent fields are omitted entirely.
func resultBlocks(result map[string]any) []DetailBlock {
	if len(result) == 0 {
		return nil
	}

	var blocks []DetailBlock
	consumed := map[string]bool{}

	for _, primary := range primaryResultKeys {
		for _, key := range primary.keys {
			value, ok := result[key]
			if !ok {
				continue
			}
			consumed[key] = true
			if content := strings.TrimSpace(displayString(value)); content != "" {
				blocks = append(blocks, DetailBlock{Label: primary.label, Content: content})
				break
			}
		}
	}

	for _, key := range exitCodeKeys {
		value, ok := result[key]
		if !ok {
			continue
		}
		consumed[key] = true
		if code, ok := value.(float64); ok {
			blocks = append(blocks, DetailBlock{Label: "exit code", Content: fmt.Sprintf("%d", int(code))})
			break
		}
	}

	leftover := map[string]any{}
	for key, value := range result {
		if !consumed[key] {
			leftover[key] = value
		}
	}
	if len(leftover) > 0 {
		blocks = append(blocks, DetailBlock{Label: "details", Content: prettyJSON(leftover)})
	}

	return blocks
}

// displayString converts an arbitrary value to display text: strings pass
// through, slices join by newline (non-strings pretty-printed), everything
// else is pretty-printed.
func displayString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				parts = append(parts, s)
			} else {
				parts = append(parts, prettyJSON(entry))
			}
		}
		return strings.Join(parts, "\n")
	default:
		return prettyJSON(v)
	}
}

func prettyJSON(value any) string {
	blob, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(blob)
}

func allFilled(fields []toolargs.FieldDefinition, form map[string]string) bool {
	for _, field := range fields {
		if strings.TrimSpace(form[field.Name]) == "" {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// humanize turns snake_case tool names into title-ish labels for headers.
func humanize(name string) string {
	words := strings.Split(strings.ToLower(name), "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
