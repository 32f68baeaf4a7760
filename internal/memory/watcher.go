package memory

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"goforge/internal/logging"
)

// Events for a path within this window of a Track call are treated as the
// agent's own writes and ignored.
const selfWriteWindow = 2 * time.Second

// Watcher marks ledger entries stale when their files change on disk
// outside the agent. Only directories containing tracked files are
// watched; untracked paths in those directories are ignored. Editors
// commonly save via tmp-file+rename, which surfaces as a Create event on
// the target path, so Create counts as a modification here.
type Watcher struct {
	ledger      *Ledger
	projectRoot string
	fsw         *fsnotify.Watcher
	done        chan struct{}

	mu         sync.Mutex
	selfWrites map[string]time.Time // rel path -> last agent write
}

// NewWatcher starts watching the directories of all currently tracked
// files. Close releases the watcher.
func NewWatcher(projectRoot string, ledger *Ledger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		ledger:      ledger,
		projectRoot: projectRoot,
		fsw:         fsw,
		done:        make(chan struct{}),
		selfWrites:  map[string]time.Time{},
	}

	entries, err := ledger.Entries()
	if err != nil {
		fsw.Close()
		return nil, err
	}
	dirs := map[string]bool{}
	for _, e := range entries {
		dirs[filepath.Dir(filepath.Join(projectRoot, e.Path))] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			logging.Warn("cannot watch directory", "dir", dir, "error", err)
		}
	}

	go w.loop()
	return w, nil
}

// Track notes that the agent is writing or removing path itself, so the
// resulting events are not mistaken for external changes, and adds the
// path's directory to the watch set. Callers invoke it around their own
// file operations; it is idempotent.
func (w *Watcher) Track(path string) {
	w.mu.Lock()
	w.selfWrites[path] = time.Now()
	w.mu.Unlock()

	dir := filepath.Dir(filepath.Join(w.projectRoot, path))
	if err := w.fsw.Add(dir); err != nil {
		// The directory may not exist yet when Track precedes the write.
		logging.Debug("cannot watch directory", "dir", dir, "error", err)
	}
}

// selfWrite reports whether the agent wrote rel recently enough that an
// event for it is its own doing. Expired entries are pruned as seen.
func (w *Watcher) selfWrite(rel string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	at, ok := w.selfWrites[rel]
	if !ok {
		return false
	}
	if time.Since(at) > selfWriteWindow {
		delete(w.selfWrites, rel)
		return false
	}
	return true
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			rel, err := filepath.Rel(w.projectRoot, event.Name)
			if err != nil || strings.HasPrefix(rel, "..") {
				continue
			}
			if w.selfWrite(rel) {
				continue
			}
			if _, tracked := w.ledger.Entry(rel); !tracked {
				continue
			}
			if err := w.ledger.MarkStale(rel); err != nil {
				logging.Warn("cannot mark ledger entry stale", "path", rel, "error", err)
			} else {
				logging.Debug("ledger entry marked stale", "path", rel)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn("file watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
