// ABOUTME: Closed mapping from tool names to handler kinds
// ABOUTME: Undeclared tools fall through to the Unregistered badge renderer

package toolcall

import "strings"

// Kind is the rendering/interaction behavior bound to a tool name.
type Kind int

const (
	// KindUnregistered is the wildcard fallback: a status badge plus
	// pretty-printed parameters and result.
	KindUnregistered Kind = iota
	// KindSilent renders nothing; the tool acts on the host app directly.
	KindSilent
	// KindDisplay echoes a file/command/code execution with progressive disclosure.
	KindDisplay
	// KindConfirmation gates a destructive or send-style action behind Confirm/Cancel.
	KindConfirmation
	// KindSelection asks the user to pick one of several choices.
	KindSelection
	// KindForm collects one or more structured input fields.
	KindForm
)

// kinds maps every tool name with a dedicated handler to its kind. This set
// doubles as the exclusion list for the wildcard path: a name present here is
// never routed through KindUnregistered, so nothing double-renders.
var kinds = map[string]Kind{
	"set_theme":                KindSilent,
	"navigate_to":              KindSilent,
	"analyze_contact_insights": KindDisplay,
	"read_file_content":        KindDisplay,
	"run_command":              KindDisplay,
	"run_python_code":          KindDisplay,
	"send_bulk_email":          KindConfirmation,
	"delete_contact":           KindConfirmation,
	"prompt_user_selection":    KindSelection,
	"prompt_user_input":        KindForm,
}

// Resolve maps a tool name to its handler kind. Resolution is by exact name
// after lowercasing; anything undeclared is KindUnregistered.
func Resolve(name string) Kind {
	if kind, ok := kinds[normalize(name)]; ok {
		return kind
	}
	return KindUnregistered
}

// Registered reports whether the name has a dedicated handler.
func Registered(name string) bool {
	_, ok := kinds[normalize(name)]
	return ok
}

// Interactive reports whether the kind collects a user response via Respond.
func (k Kind) Interactive() bool {
	switch k {
	case KindConfirmation, KindSelection, KindForm:
		return true
	default:
		return false
	}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
