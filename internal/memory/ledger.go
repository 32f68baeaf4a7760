package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"goforge/internal/fileutil"
)

const ledgerFile = "files.json"

// File statuses tracked by the ledger.
const (
	StatusCreated  = "created"
	StatusModified = "modified"
	StatusDeleted  = "deleted"
	// StatusStale marks a file changed outside the agent since it was
	// last touched.
	StatusStale = "stale"
)

// LedgerEntry records the agent's last interaction with one file.
type LedgerEntry struct {
	Path         string    `json:"path"`
	Status       string    `json:"status"`
	LastModified time.Time `json:"last_modified"`
}

// Ledger tracks files the agent has touched, keyed by project-relative
// path. Every mutation is a whole-file read-modify-write of files.json;
// concurrent writers can lose updates, which is accepted: the ledger is a
// hint for prompt context, not a source of truth.
type Ledger struct {
	path    string
	enabled bool
}

// NewLedger creates a ledger stored alongside the record store.
func NewLedger(store *Store) *Ledger {
	return &Ledger{
		path:    filepath.Join(store.Dir(), ledgerFile),
		enabled: store.enabled,
	}
}

// Touch records a file interaction, replacing any previous entry for the
// same path.
func (l *Ledger) Touch(path, status string) error {
	if !l.enabled {
		return nil
	}
	entries, err := l.read()
	if err != nil {
		return err
	}
	entries[path] = LedgerEntry{
		Path:         path,
		Status:       status,
		LastModified: time.Now().UTC(),
	}
	return l.write(entries)
}

// MarkStale flags a tracked path as changed externally. Untracked paths
// are ignored.
func (l *Ledger) MarkStale(path string) error {
	if !l.enabled {
		return nil
	}
	entries, err := l.read()
	if err != nil {
		return err
	}
	entry, ok := entries[path]
	if !ok {
		return nil
	}
	entry.Status = StatusStale
	entries[path] = entry
	return l.write(entries)
}

// Entries returns all ledger entries sorted by path.
func (l *Ledger) Entries() ([]LedgerEntry, error) {
	if !l.enabled {
		return nil, nil
	}
	entries, err := l.read()
	if err != nil {
		return nil, err
	}
	out := make([]LedgerEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Entry returns the entry for path, if tracked.
func (l *Ledger) Entry(path string) (LedgerEntry, bool) {
	entries, err := l.read()
	if err != nil {
		return LedgerEntry{}, false
	}
	e, ok := entries[path]
	return e, ok
}

func (l *Ledger) read() (map[string]LedgerEntry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]LedgerEntry{}, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	var entries map[string]LedgerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse ledger: %w", err)
	}
	if entries == nil {
		entries = map[string]LedgerEntry{}
	}
	return entries, nil
}

func (l *Ledger) write(entries map[string]LedgerEntry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	return fileutil.AtomicWrite(l.path, data, 0644)
}
