package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"goforge/internal/fileutil"
)

func newWatchedLedger(t *testing.T) (string, *Ledger, *Watcher) {
	t.Helper()
	root := t.TempDir()
	store := NewStore(root, ".goforge", true)
	ledger := NewLedger(store)

	path := filepath.Join(root, "app.py")
	require.NoError(t, os.WriteFile(path, []byte("print(\"hi\")\n"), 0644))
	require.NoError(t, ledger.Touch("app.py", StatusModified))

	w, err := NewWatcher(root, ledger)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return root, ledger, w
}

func entryStatus(t *testing.T, l *Ledger, path string) string {
	t.Helper()
	e, ok := l.Entry(path)
	require.True(t, ok)
	return e.Status
}

func TestWatcherMarksInPlaceWriteStale(t *testing.T) {
	root, ledger, _ := newWatchedLedger(t)

	f, err := os.OpenFile(filepath.Join(root, "app.py"), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("print(\"more\")\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool {
		return entryStatus(t, ledger, "app.py") == StatusStale
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherMarksAtomicSaveStale(t *testing.T) {
	// Editors typically save by writing a temp file and renaming it over
	// the target, which arrives as a Create event on the target path.
	root, ledger, _ := newWatchedLedger(t)

	tmp := filepath.Join(root, ".app.py.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("print(\"saved\")\n"), 0644))
	require.NoError(t, os.Rename(tmp, filepath.Join(root, "app.py")))

	require.Eventually(t, func() bool {
		return entryStatus(t, ledger, "app.py") == StatusStale
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresAgentOwnWrites(t *testing.T) {
	root, ledger, w := newWatchedLedger(t)

	w.Track("app.py")
	require.NoError(t, fileutil.AtomicWriteString(filepath.Join(root, "app.py"), "print(\"mine\")\n", 0644))

	time.Sleep(300 * time.Millisecond)
	require.Equal(t, StatusModified, entryStatus(t, ledger, "app.py"))
}

func TestWatcherIgnoresAgentRemove(t *testing.T) {
	root, ledger, w := newWatchedLedger(t)

	w.Track("app.py")
	require.NoError(t, os.Remove(filepath.Join(root, "app.py")))
	require.NoError(t, ledger.Touch("app.py", StatusDeleted))

	time.Sleep(300 * time.Millisecond)
	require.Equal(t, StatusDeleted, entryStatus(t, ledger, "app.py"))
}

func TestWatcherIgnoresUntrackedFiles(t *testing.T) {
	root, ledger, _ := newWatchedLedger(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "other.py"), []byte("x"), 0644))

	time.Sleep(300 * time.Millisecond)
	_, tracked := ledger.Entry("other.py")
	require.False(t, tracked)
	require.Equal(t, StatusModified, entryStatus(t, ledger, "app.py"))
}
