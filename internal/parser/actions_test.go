package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionsObject(t *testing.T) {
	text := `{"actions": [{"type": "create_file", "filename": "a.py", "content": "pass"}]}`
	actions := ParseActions(text)
	require.Len(t, actions, 1)
	assert.Equal(t, "create_file", actions[0]["type"])
	assert.Equal(t, "a.py", actions[0]["filename"])
}

func TestParseActionsBareArray(t *testing.T) {
	text := `[{"type": "run_command", "command": "ls"}, {"type": "read_file", "filename": "go.mod"}]`
	actions := ParseActions(text)
	require.Len(t, actions, 2)
	assert.Equal(t, "run_command", actions[0]["type"])
}

func TestParseActionsEmbeddedInProse(t *testing.T) {
	text := "I'll list the directory first. {\"actions\": [{\"type\": \"list_files\", \"directory\": \".\"}]} Then we can proceed."
	actions := ParseActions(text)
	require.Len(t, actions, 1)
	assert.Equal(t, "list_files", actions[0]["type"])
}

func TestParseActionsInferredFromCodeBlock(t *testing.T) {
	text := "Here is the file:\n\nCreate `tool.py`:\n```python\nprint(1)\n```\n"
	actions := ParseActions(text)
	require.Len(t, actions, 1)
	assert.Equal(t, "create_file", actions[0]["type"])
	assert.Equal(t, "tool.py", actions[0]["filename"])
}

func TestParseActionsNothing(t *testing.T) {
	actions := ParseActions("No actions needed here.")
	assert.Empty(t, actions)
}

func TestMatchedJSONFragmentIgnoresBracesInStrings(t *testing.T) {
	text := `prefix {"a": "val{ue}", "b": 1} suffix`
	assert.Equal(t, `{"a": "val{ue}", "b": 1}`, matchedJSONFragment(text))
}
