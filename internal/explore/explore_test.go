package explore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"go.mod":            "module demo\n",
		"main.py":           "def main():\n    run_server()\n\nif __name__ == \"__main__\":\n    main()\n",
		"src/server.py":     "class Server:\n    def start(self):\n        pass\n",
		"src/util/paths.py": "def join(a, b):\n    return a + b\n",
		".git/config":       "[core]\n",
		"node_modules/x.js": "ignored\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestFindFiles(t *testing.T) {
	e := New(setupProject(t))
	matches, err := e.FindFiles("**/*.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py", "src/server.py", "src/util/paths.py"}, matches)
}

func TestFindFilesSkipsIgnoredDirs(t *testing.T) {
	e := New(setupProject(t))
	matches, err := e.FindFiles("**/*.js")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchCode(t *testing.T) {
	e := New(setupProject(t))
	matches, err := e.SearchCode(`def \w+`)
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	var paths []string
	for _, m := range matches {
		paths = append(paths, m.Path)
		assert.Positive(t, m.Line)
		assert.NotEmpty(t, m.Context)
	}
	assert.Contains(t, paths, "main.py")
	assert.NotContains(t, paths, filepath.Join("node_modules", "x.js"))
}

func TestSearchCodeInvalidPattern(t *testing.T) {
	e := New(setupProject(t))
	_, err := e.SearchCode("([")
	assert.Error(t, err)
}

func TestKeywords(t *testing.T) {
	kws := Keywords("Please create a new server module with websocket support")
	assert.Contains(t, kws, "server")
	assert.Contains(t, kws, "websocket")
	assert.NotContains(t, kws, "create")
	assert.NotContains(t, kws, "the")
	// deduplicated
	kws = Keywords("server server server")
	assert.Equal(t, []string{"server"}, kws)
}

func TestSummary(t *testing.T) {
	e := New(setupProject(t))
	summary := e.Summary("improve the server startup")
	assert.Contains(t, summary, "go.mod")
	assert.Contains(t, summary, "Directory structure:")
	assert.Contains(t, summary, "server.py")
	assert.NotContains(t, summary, "node_modules")
}
