package action

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goforge/internal/config"
	"goforge/internal/explore"
	"goforge/internal/memory"
	"goforge/internal/shell"
)

func newTestExecutor(t *testing.T) (*Executor, string) {
	t.Helper()
	root := t.TempDir()
	store := memory.NewStore(root, ".goforge", true)
	return &Executor{
		FS:       NewOSFileSystem(root),
		Runner:   shell.NewRunner(config.ShellConfig{QueueSize: 100}, root),
		Explorer: explore.New(root),
		Store:    store,
		Ledger:   memory.NewLedger(store),
	}, root
}

func TestExecuteUnknownType(t *testing.T) {
	e, _ := newTestExecutor(t)
	result := e.Execute(context.Background(), Action{"type": "bogus"})
	assert.Equal(t, false, result["success"])
	assert.Contains(t, result["message"], "unknown action type: bogus")
}

func TestCreateFileRecordsMemory(t *testing.T) {
	e, _ := newTestExecutor(t)
	result := e.Execute(context.Background(), Action{
		"type":     TypeCreateFile,
		"filename": "src/hello.py",
		"content":  "print('hi')\n",
	})
	require.Equal(t, true, result["success"])

	content, err := e.FS.Read("src/hello.py")
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", content)

	recs, err := e.Store.Recent(memory.CategoryFile, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "src/hello.py", recs[0].Payload["file"])

	entry, ok := e.Ledger.Entry("src/hello.py")
	require.True(t, ok)
	assert.Equal(t, memory.StatusCreated, entry.Status)
}

func TestRunCommandNonZeroExit(t *testing.T) {
	e, _ := newTestExecutor(t)
	result := e.Execute(context.Background(), Action{
		"type":    TypeRunCommand,
		"command": "echo oops; exit 1",
	})
	assert.Equal(t, false, result["success"])
	assert.Equal(t, 1, result["return_code"])
	assert.Equal(t, "oops\n", result["stdout"])
}

func TestRunCommandSuccess(t *testing.T) {
	e, _ := newTestExecutor(t)
	result := e.Execute(context.Background(), Action{
		"type":    TypeRunCommand,
		"command": "echo fine",
	})
	assert.Equal(t, true, result["success"])
	assert.Equal(t, 0, result["return_code"])
}

func TestReadFileMissing(t *testing.T) {
	e, _ := newTestExecutor(t)
	result := e.Execute(context.Background(), Action{"type": TypeReadFile, "filename": "nope.txt"})
	assert.Equal(t, false, result["success"])
}

func TestBatchContinuesAfterFailure(t *testing.T) {
	e, _ := newTestExecutor(t)
	results := e.ExecuteBatch(context.Background(), []Action{
		{"type": "bogus"},
		{"type": TypeCreateFile, "filename": "a.txt", "content": "a"},
	})
	require.Len(t, results, 2)
	assert.Equal(t, false, results[0]["success"])
	assert.Equal(t, true, results[1]["success"])
	assert.True(t, e.FS.Exists("a.txt"))
}

func TestListDirectory(t *testing.T) {
	e, _ := newTestExecutor(t)
	require.Equal(t, true, e.Execute(context.Background(), Action{
		"type": TypeCreateFile, "filename": "sub/file.txt", "content": "x",
	})["success"])

	result := e.Execute(context.Background(), Action{"type": TypeListDirectory, "directory": "sub"})
	require.Equal(t, true, result["success"])
	assert.Equal(t, []string{"file.txt"}, result["entries"])
}

func TestFindFilesAction(t *testing.T) {
	e, _ := newTestExecutor(t)
	e.Execute(context.Background(), Action{"type": TypeCreateFile, "filename": "a.py", "content": "x"})
	e.Execute(context.Background(), Action{"type": TypeCreateFile, "filename": "b.txt", "content": "x"})

	result := e.Execute(context.Background(), Action{"type": TypeFindFiles, "pattern": "**/*.py"})
	require.Equal(t, true, result["success"])
	assert.Equal(t, []string{"a.py"}, result["files"])
}

func TestEditFileWithContent(t *testing.T) {
	e, _ := newTestExecutor(t)
	e.Execute(context.Background(), Action{"type": TypeCreateFile, "filename": "x.py", "content": "old"})

	result := e.Execute(context.Background(), Action{
		"type": TypeEditFile, "filename": "x.py", "content": "new",
	})
	require.Equal(t, true, result["success"])

	content, err := e.FS.Read("x.py")
	require.NoError(t, err)
	assert.Equal(t, "new", content)

	entry, _ := e.Ledger.Entry("x.py")
	assert.Equal(t, memory.StatusModified, entry.Status)
}

type recordingTracker struct{ paths []string }

func (r *recordingTracker) Track(path string) { r.paths = append(r.paths, path) }

func TestWritesNotifyTracker(t *testing.T) {
	e, _ := newTestExecutor(t)
	tracker := &recordingTracker{}
	e.Tracker = tracker

	e.Execute(context.Background(), Action{"type": TypeCreateFile, "filename": "a.py", "content": "x"})
	e.Execute(context.Background(), Action{"type": TypeEditFile, "filename": "a.py", "content": "y"})

	assert.Contains(t, tracker.paths, "a.py")
}

type scriptedQuerier struct{ response string }

func (s *scriptedQuerier) Query(context.Context, string) (string, error) {
	return s.response, nil
}

func TestEditFileWithChanges(t *testing.T) {
	e, _ := newTestExecutor(t)
	e.Execute(context.Background(), Action{"type": TypeCreateFile, "filename": "x.py", "content": "print(1)\n"})
	e.Router = &scriptedQuerier{response: "```python\nprint(2)\n```"}

	result := e.Execute(context.Background(), Action{
		"type": TypeEditFile, "filename": "x.py", "changes": "print 2 instead",
	})
	require.Equal(t, true, result["success"])

	content, _ := e.FS.Read("x.py")
	assert.Equal(t, "print(2)\n", content)
}
