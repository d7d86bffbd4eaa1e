// ABOUTME: Tests for choice-list and field-definition parsing
// ABOUTME: Covers JSON arrays, delimiter fallbacks, and malformed input tolerance

package toolargs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChoiceList_EmptyInput(t *testing.T) {
	assert.Empty(t, ParseChoiceList(""))
	assert.Empty(t, ParseChoiceList("   \n\t  "))
}

func TestParseChoiceList_JSONArray(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseChoiceList(`["a","b"]`))
}

func TestParseChoiceList_JSONArrayWithNonStrings(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "yes"}, ParseChoiceList(`[1, 2, "yes"]`))
}

func TestParseChoiceList_NewlineSeparated(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseChoiceList("a\nb\nc"))
}

func TestParseChoiceList_CRLFSeparated(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseChoiceList("a\r\nb"))
}

func TestParseChoiceList_PipeSeparated(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseChoiceList("a|b"))
}

func TestParseChoiceList_CommaSeparated(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseChoiceList("a,b"))
}

func TestParseChoiceList_NewlineWinsOverPipe(t *testing.T) {
	// Newline is the highest-priority delimiter; pipes inside lines survive.
	assert.Equal(t, []string{"a|b", "c"}, ParseChoiceList("a|b\nc"))
}

func TestParseChoiceList_BracketAndWhitespaceStripped(t *testing.T) {
	assert.Equal(t, []string{"a"}, ParseChoiceList("  [a]  "))
}

func TestParseChoiceList_QuotedSingleChoice(t *testing.T) {
	assert.Equal(t, []string{"solo"}, ParseChoiceList(`"solo"`))
}

func TestParseChoiceList_SingleQuotes(t *testing.T) {
	assert.Equal(t, []string{"solo"}, ParseChoiceList("'solo'"))
}

func TestParseChoiceList_EmptiesDropped(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseChoiceList("a||b|"))
}

func TestParseChoiceList_SingleWord(t *testing.T) {
	assert.Equal(t, []string{"confirm"}, ParseChoiceList("confirm"))
}

func TestParseChoiceList_MalformedJSONFallsBack(t *testing.T) {
	// Looks like JSON but isn't; delimiter fallback should still yield results.
	assert.Equal(t, []string{"a", "b"}, ParseChoiceList(`["a", "b"`))
}

func TestParseFieldDefinitions_FullDescriptors(t *testing.T) {
	fields := ParseFieldDefinitions("email:Email:you@x.com:email|msg:Message::textarea")
	require.Len(t, fields, 2)

	assert.Equal(t, FieldDefinition{Name: "email", Label: "Email", Placeholder: "you@x.com", Type: "email"}, fields[0])
	assert.Equal(t, FieldDefinition{Name: "msg", Label: "Message", Placeholder: "", Type: "textarea"}, fields[1])
	assert.True(t, fields[1].Textarea())
}

func TestParseFieldDefinitions_Defaults(t *testing.T) {
	fields := ParseFieldDefinitions("city")
	require.Len(t, fields, 1)
	assert.Equal(t, "city", fields[0].Name)
	assert.Equal(t, "city", fields[0].Label)
	assert.Equal(t, "text", fields[0].Type)
}

func TestParseFieldDefinitions_EmptyNameDropped(t *testing.T) {
	fields := ParseFieldDefinitions(":Label:ph:text|name:Name")
	require.Len(t, fields, 1)
	assert.Equal(t, "name", fields[0].Name)
}

func TestParseFieldDefinitions_TypeLowercased(t *testing.T) {
	fields := ParseFieldDefinitions("msg:Message::TEXTAREA")
	require.Len(t, fields, 1)
	assert.Equal(t, "textarea", fields[0].Type)
}

func TestParseFieldDefinitions_ExtraColonsIgnored(t *testing.T) {
	fields := ParseFieldDefinitions("when:When:09:00:time")
	require.Len(t, fields, 1)
	assert.Equal(t, FieldDefinition{Name: "when", Label: "When", Placeholder: "09", Type: "00"}, fields[0])

	fields = ParseFieldDefinitions("a:b:c:d:e")
	require.Len(t, fields, 1)
	assert.Equal(t, "d", fields[0].Type)
}

func TestParseFieldDefinitions_EmptyInput(t *testing.T) {
	assert.Empty(t, ParseFieldDefinitions(""))
	assert.Empty(t, ParseFieldDefinitions("  |  |  "))
}

func TestStringArg_FirstNonEmptyKeyWins(t *testing.T) {
	args := map[string]any{
		"path":      "",
		"file_path": "/tmp/x.txt",
	}
	assert.Equal(t, "/tmp/x.txt", StringArg(args, "path", "file_path"))
}

func TestStringArg_NonStringEncoded(t *testing.T) {
	args := map[string]any{"commands": []any{"ls", "pwd"}}
	assert.Equal(t, `["ls","pwd"]`, StringArg(args, "commands"))
}

func TestStringArg_Missing(t *testing.T) {
	assert.Equal(t, "", StringArg(map[string]any{}, "question"))
	assert.Equal(t, "", StringArg(map[string]any{"q": nil}, "q"))
}
