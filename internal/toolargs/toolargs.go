// ABOUTME: Best-effort parsing of semi-structured tool-call arguments
// ABOUTME: Handles delimited choice lists and pipe/colon field descriptors

package toolargs

import (
	"encoding/json"
	"strings"
)

// FieldDefinition describes one input field requested by a form-style tool.
// Derived from a "name:label:placeholder:type" descriptor segment.
type FieldDefinition struct {
	Name        string
	Label       string
	Placeholder string
	Type        string
}

// Textarea reports whether the field should render as a multi-line input.
func (f FieldDefinition) Textarea() bool {
	return f.Type == "textarea"
}

// ParseChoiceList extracts a list of choices from an agent-supplied string.
// Agents emit choices in whatever shape their prompt produced: a JSON array,
// newline-separated lines, "a|b" or "a,b". All shapes are accepted and
// malformed input degrades to a best-effort result rather than an error.
func ParseChoiceList(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	// JSON array is the most precise shape, so try it first.
	var parsed []any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		return cleanAll(stringify(parsed))
	}

	newlineSplit := cleanAll(splitLines(trimmed))
	if strings.Contains(trimmed, "\n") || len(newlineSplit) > 1 {
		return newlineSplit
	}

	if strings.Contains(trimmed, "|") {
		return cleanAll(strings.Split(trimmed, "|"))
	}

	if strings.Contains(trimmed, ",") {
		return cleanAll(strings.Split(trimmed, ","))
	}

	return cleanAll([]string{trimmed})
}

// ParseFieldDefinitions parses a pipe-separated list of field descriptors.
// Each segment is "name:label:placeholder:type"; only name is required.
// Label defaults to the name, type defaults to "text". Segments with an
// empty name are dropped.
func ParseFieldDefinitions(raw string) []FieldDefinition {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var fields []FieldDefinition
	for _, segment := range strings.Split(raw, "|") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		// A full split keeps the type honest when a descriptor carries
		// stray colons: "a:b:c:d:e" has type "d", not "d:e".
		parts := strings.Split(segment, ":")
		field := FieldDefinition{Name: strings.TrimSpace(parts[0])}
		if field.Name == "" {
			continue
		}
		if len(parts) > 1 {
			field.Label = strings.TrimSpace(parts[1])
		}
		if field.Label == "" {
			field.Label = field.Name
		}
		if len(parts) > 2 {
			field.Placeholder = strings.TrimSpace(parts[2])
		}
		if len(parts) > 3 {
			field.Type = strings.ToLower(strings.TrimSpace(parts[3]))
		}
		if field.Type == "" {
			field.Type = "text"
		}
		fields = append(fields, field)
	}
	return fields
}

// StringArg returns the first non-empty argument found under any of the given
// keys, rendered as a string. Non-string values are JSON-encoded so callers
// always get something displayable.
func StringArg(args map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := args[key]
		if !ok || value == nil {
			continue
		}
		if s, ok := value.(string); ok {
			if strings.TrimSpace(s) != "" {
				return s
			}
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			continue
		}
		return string(encoded)
	}
	return ""
}

// cleanChoice strips one layer of surrounding brackets, then one matching
// quote pair. Each strip is followed by a trim so "  [ 'x' ]  " reduces to "x".
func cleanChoice(choice string) string {
	cleaned := strings.TrimSpace(choice)
	if strings.HasPrefix(cleaned, "[") {
		cleaned = strings.TrimSpace(cleaned[1:])
	}
	if strings.HasSuffix(cleaned, "]") {
		cleaned = strings.TrimSpace(cleaned[:len(cleaned)-1])
	}
	if len(cleaned) >= 2 {
		first, last := cleaned[0], cleaned[len(cleaned)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
		}
	}
	return cleaned
}

func cleanAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		if cleaned := cleanChoice(entry); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringify(entries []any) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if s, ok := entry.(string); ok {
			out = append(out, s)
			continue
		}
		encoded, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		out = append(out, string(encoded))
	}
	return out
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}
