// Package toolcall implements the interactive tool-call protocol: the
// lifecycle of an agent-issued tool invocation from announcement to
// completion, the closed mapping from tool names to handler kinds, and the
// at-most-once response channel back into the conversation stream.
//
// # Lifecycle
//
// A Call moves pending -> executing -> complete and never backward. Interactive
// kinds (confirmation, selection, form) complete through Responder.Respond,
// which emits exactly one tool-response message into the owning thread's
// stream. Passive kinds complete purely from upstream status.
//
// # Rendering
//
// Render projects a Call (plus local form state) into a frontend-agnostic
// View: a status line, labeled detail blocks, progressive-disclosure blocks,
// and actionable controls. The projection is pure so protocol behavior stays
// testable without any UI harness.
package toolcall
