// Package runtime holds the live conversation state: one pane per thread,
// all of them retained for the life of the process, exactly one visible.
//
// A Pane accumulates messages and tool calls from the gateway's event
// stream. Panes are never torn down when the user switches threads; hiding
// a pane is purely a presentation concern, so in-flight streams and
// unanswered tool prompts survive the switch. The only thing that empties
// the set is a sign-out reset.
package runtime
