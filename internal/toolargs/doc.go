// Package toolargs parses the semi-structured argument strings agents attach
// to tool calls. Parsing is total: malformed input degrades to a best-effort
// result, never an error, because arguments originate from an external agent
// and must not crash the UI.
package toolargs
