package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goforge/internal/action"
	"goforge/internal/explore"
	"goforge/internal/memory"
	"goforge/internal/plan"
)

// scriptedRouter returns canned responses in order.
type scriptedRouter struct {
	responses []string
	err       error
	calls     int
}

func (r *scriptedRouter) Query(context.Context, string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.calls >= len(r.responses) {
		return "", errors.New("unexpected extra query")
	}
	r.calls++
	return r.responses[r.calls-1], nil
}

// scriptedPrompt answers gates from fixed scripts.
type scriptedPrompt struct {
	confirm   bool
	decisions []Decision
	edits     []string
	reviewed  []string
}

func (p *scriptedPrompt) Confirm(string) bool { return p.confirm }

func (p *scriptedPrompt) Review(file, content string) (Decision, string) {
	p.reviewed = append(p.reviewed, file)
	i := len(p.reviewed) - 1
	if i >= len(p.decisions) {
		return DecisionAccept, ""
	}
	edited := ""
	if i < len(p.edits) {
		edited = p.edits[i]
	}
	return p.decisions[i], edited
}

// nullRenderer records errors and discards everything else.
type nullRenderer struct {
	errors []string
	plans  []plan.Plan
}

func (r *nullRenderer) ShowPlan(p plan.Plan)         { r.plans = append(r.plans, p) }
func (r *nullRenderer) ShowPreview(string, string)   {}
func (r *nullRenderer) ShowDiff(_, _, _ string)      {}
func (r *nullRenderer) ShowError(msg string)         { r.errors = append(r.errors, msg) }
func (r *nullRenderer) Info(string)                  {}

type fixture struct {
	planner  *Planner
	fs       *action.OSFileSystem
	store    *memory.Store
	prompt   *scriptedPrompt
	renderer *nullRenderer
}

func newFixture(t *testing.T, router Querier, prompt *scriptedPrompt) *fixture {
	t.Helper()
	root := t.TempDir()
	fs := action.NewOSFileSystem(root)
	store := memory.NewStore(root, ".goforge", true)
	ledger := memory.NewLedger(store)
	renderer := &nullRenderer{}
	return &fixture{
		planner:  NewPlanner(router, fs, prompt, renderer, store, ledger, explore.New(root)),
		fs:       fs,
		store:    store,
		prompt:   prompt,
		renderer: renderer,
	}
}

const helloPlan = `{
	"description": "Create a greeting script",
	"files": {"create": ["hello.py"], "modify": []},
	"steps": [{"description": "Write hello.py that prints Hello", "action": "create", "file": "hello.py"}]
}`

func TestRunEndToEnd(t *testing.T) {
	router := &scriptedRouter{responses: []string{
		helloPlan,
		"```python\nprint(\"Hello\")\n```",
	}}
	f := newFixture(t, router, &scriptedPrompt{confirm: true})

	outcome := f.planner.Run(context.Background(), "create hello.py that prints Hello")

	require.Equal(t, StateDone, outcome.State)
	assert.Equal(t, []string{"hello.py"}, outcome.Plan.Files.Create)
	assert.Equal(t, []string{"hello.py"}, outcome.Applied)

	content, err := f.fs.Read("hello.py")
	require.NoError(t, err)
	assert.Equal(t, "print(\"Hello\")\n", content)

	recs, err := f.store.Recent(memory.CategoryFile, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "hello.py", recs[0].Payload["file"])
}

func TestRunPlanRejected(t *testing.T) {
	router := &scriptedRouter{responses: []string{helloPlan}}
	f := newFixture(t, router, &scriptedPrompt{confirm: false})

	outcome := f.planner.Run(context.Background(), "anything")

	assert.Equal(t, StateRejected, outcome.State)
	assert.Empty(t, outcome.Applied)
	assert.False(t, f.fs.Exists("hello.py"))
	// No side effects at all: memory stays empty.
	recs, err := f.store.Recent("", 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRunFileRejectedInPreview(t *testing.T) {
	router := &scriptedRouter{responses: []string{
		helloPlan,
		"```python\nprint(\"Hello\")\n```",
	}}
	prompt := &scriptedPrompt{confirm: true, decisions: []Decision{DecisionReject}}
	f := newFixture(t, router, prompt)

	outcome := f.planner.Run(context.Background(), "anything")

	assert.Equal(t, StateDone, outcome.State)
	assert.Empty(t, outcome.Applied)
	assert.Equal(t, []string{"hello.py"}, outcome.Skipped)
	assert.False(t, f.fs.Exists("hello.py"))
}

func TestRunEditReentersPreview(t *testing.T) {
	router := &scriptedRouter{responses: []string{
		helloPlan,
		"```python\nprint(\"Hello\")\n```",
	}}
	prompt := &scriptedPrompt{
		confirm:   true,
		decisions: []Decision{DecisionEdit, DecisionAccept},
		edits:     []string{"print(\"Edited\")\n", ""},
	}
	f := newFixture(t, router, prompt)

	outcome := f.planner.Run(context.Background(), "anything")

	require.Equal(t, StateDone, outcome.State)
	content, err := f.fs.Read("hello.py")
	require.NoError(t, err)
	assert.Equal(t, "print(\"Edited\")\n", content)
	// The file was reviewed twice: once original, once edited.
	assert.Equal(t, []string{"hello.py", "hello.py"}, prompt.reviewed)
}

func TestRunBackendFailureIsFailed(t *testing.T) {
	router := &scriptedRouter{err: errors.New("all completion candidates failed")}
	f := newFixture(t, router, &scriptedPrompt{confirm: true})

	outcome := f.planner.Run(context.Background(), "anything")

	assert.Equal(t, StateFailed, outcome.State)
	require.Error(t, outcome.Err)
	assert.NotEmpty(t, f.renderer.errors)
}

func TestRunUnparseablePlanIsFailed(t *testing.T) {
	router := &scriptedRouter{responses: []string{"I cannot help with that."}}
	f := newFixture(t, router, &scriptedPrompt{confirm: true})

	outcome := f.planner.Run(context.Background(), "anything")

	assert.Equal(t, StateFailed, outcome.State)
	require.Error(t, outcome.Err)
}

func TestRunStepContentSkipsGeneration(t *testing.T) {
	planWithContent := `{
		"description": "Inline content",
		"files": {"create": ["a.txt"], "modify": []},
		"steps": [{"description": "Write a.txt", "action": "create", "file": "a.txt", "content": """inline
body"""}]
	}`
	router := &scriptedRouter{responses: []string{planWithContent}}
	f := newFixture(t, router, &scriptedPrompt{confirm: true})

	outcome := f.planner.Run(context.Background(), "anything")

	require.Equal(t, StateDone, outcome.State)
	content, err := f.fs.Read("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "inline\nbody", content)
	// Only the plan query was made; the step carried its own content.
	assert.Equal(t, 1, router.calls)
}

func TestSuggestions(t *testing.T) {
	s := suggestions([]string{"package.json", "src/app.js", "main.py"})
	assert.Contains(t, s, "npm install")
	assert.Contains(t, s, "python main.py")
	assert.Empty(t, suggestions([]string{"notes.txt"}))
}

func TestRunModifyShowsDiffAndUpdates(t *testing.T) {
	modifyPlan := `{
		"description": "Update the script",
		"files": {"create": [], "modify": ["app.py"]},
		"steps": [{"description": "Change greeting in app.py", "action": "modify", "file": "app.py"}]
	}`
	router := &scriptedRouter{responses: []string{
		modifyPlan,
		"```python\nprint(\"bye\")\n```",
	}}
	f := newFixture(t, router, &scriptedPrompt{confirm: true})
	require.NoError(t, f.fs.Write("app.py", "print(\"hi\")\n"))

	outcome := f.planner.Run(context.Background(), "change the greeting")

	require.Equal(t, StateDone, outcome.State)
	content, _ := f.fs.Read("app.py")
	assert.Equal(t, "print(\"bye\")\n", content)

	if !strings.Contains(outcome.Plan.Description, "Update") {
		t.Fatalf("unexpected plan description %q", outcome.Plan.Description)
	}

	// The previous content was snapshotted before the overwrite.
	backups, err := f.store.Recent(memory.CategoryBackup, 0)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, "print(\"hi\")\n", backups[0].Payload["content"])
}

func TestRunCreateOverExistingFileIsBackedUp(t *testing.T) {
	// A create step can land on an existing file via sanitizer inference;
	// the prior content must still be snapshotted.
	router := &scriptedRouter{responses: []string{
		helloPlan,
		"```python\nprint(\"Hello\")\n```",
	}}
	f := newFixture(t, router, &scriptedPrompt{confirm: true})
	require.NoError(t, f.fs.Write("hello.py", "print(\"old\")\n"))

	outcome := f.planner.Run(context.Background(), "recreate hello.py")

	require.Equal(t, StateDone, outcome.State)
	backups, err := f.store.Recent(memory.CategoryBackup, 0)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, "print(\"old\")\n", backups[0].Payload["content"])
}

// recordingTracker collects the paths the planner reports as its own.
type recordingTracker struct {
	paths []string
}

func (r *recordingTracker) Track(path string) { r.paths = append(r.paths, path) }

func TestRunNotifiesTrackerOfOwnWrites(t *testing.T) {
	router := &scriptedRouter{responses: []string{
		helloPlan,
		"```python\nprint(\"Hello\")\n```",
	}}
	f := newFixture(t, router, &scriptedPrompt{confirm: true})
	tracker := &recordingTracker{}
	f.planner.SetTracker(tracker)

	outcome := f.planner.Run(context.Background(), "create hello.py")

	require.Equal(t, StateDone, outcome.State)
	// Tracked before the write and again when recorded.
	assert.Contains(t, tracker.paths, "hello.py")
}
