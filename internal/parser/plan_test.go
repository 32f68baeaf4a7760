package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goforge/internal/plan"
)

func TestExtractPlanDirectJSON(t *testing.T) {
	text := `{
		"description": "Add a greeting script",
		"files": {"create": ["hello.py"], "modify": []},
		"steps": [
			{"description": "Write hello.py", "action": "create", "file": "hello.py"}
		]
	}`

	p := ExtractPlan(text)
	assert.Equal(t, "Add a greeting script", p.Description)
	assert.Equal(t, []string{"hello.py"}, p.Files.Create)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, plan.ActionCreate, p.Steps[0].Action)
}

func TestExtractPlanTripleQuotedContent(t *testing.T) {
	text := "{\"steps\":[{\"file\":\"x.py\",\"action\":\"create\",\"description\":\"x\",\"content\":\"\"\"a\nb\"\"\"}]}"

	p := ExtractPlan(text)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, "a\nb", p.Steps[0].Content)
}

func TestExtractPlanFencedBlock(t *testing.T) {
	inner := `{
		"description": "Fix the parser",
		"files": {"create": [], "modify": ["parser.py"]},
		"steps": [{"description": "Patch parser.py", "action": "modify", "file": "parser.py"}]
	}`
	text := "Here is the plan you asked for:\n\n```json\n" + inner + "\n```\n\nLet me know."

	got := ExtractPlan(text)
	want := plan.Sanitize(plan.Plan{
		Description: "Fix the parser",
		Files:       plan.FileSet{Create: []string{}, Modify: []string{"parser.py"}},
		Steps:       []plan.Step{{Description: "Patch parser.py", Action: "modify", File: "parser.py"}},
	})
	assert.Equal(t, want, got)
}

func TestExtractPlanFieldScavenging(t *testing.T) {
	// Unbalanced braces, no valid JSON anywhere.
	text := `plan: build the game
	{"files": {"create": ["game.py", "assets.py"],
	"steps": [
	  {"description": "Main loop", "action": "create", "file": "game.py"
	  {"description": "Load assets", "action": "create", "file": "assets.py"`

	p := ExtractPlan(text)
	assert.False(t, p.IsEmpty())
	assert.Contains(t, p.Files.Create, "game.py")
	assert.Contains(t, p.Files.Create, "assets.py")
	require.Len(t, p.Steps, 2)
	assert.Equal(t, "game.py", p.Steps[0].File)
	assert.Equal(t, "Load assets", p.Steps[1].Description)
}

func TestExtractPlanGarbage(t *testing.T) {
	p := ExtractPlan("I cannot help with that request.")
	assert.Equal(t, FailedPlanDescription, p.Description)
	assert.True(t, p.IsEmpty())
	assert.NotNil(t, p.Files.Create)
	assert.NotNil(t, p.Files.Modify)
	assert.NotNil(t, p.Steps)
}

func TestExtractPlanProseWrappedObject(t *testing.T) {
	text := "Sure! {\"description\": \"tidy\", \"files\": {\"create\": [\"a.py\"], \"modify\": []}, \"steps\": []}"
	p := ExtractPlan(text)
	assert.Equal(t, "tidy", p.Description)
	assert.Equal(t, []string{"a.py"}, p.Files.Create)
}

func TestDecodeLenientNestedPlaceholders(t *testing.T) {
	text := `{"outer": {"content": """line1
line2"""}, "plain": "kept"}`

	v, err := decodeLenient(text)
	require.NoError(t, err)
	m := v.(map[string]any)
	assert.Equal(t, "kept", m["plain"])
	assert.Equal(t, "line1\nline2", m["outer"].(map[string]any)["content"])
}
