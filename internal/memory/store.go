// Package memory persists project history across runs: an append-only
// record store of what the agent did, and a ledger of which files it
// touched. Both live under the project's memory directory and are written
// atomically so a crash never leaves a torn file.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"goforge/internal/fileutil"
	"goforge/internal/logging"
)

// Record categories.
const (
	CategoryPlan    = "plan"
	CategoryFile    = "file"
	CategoryCommand = "command"
	CategoryBackup  = "backup"
	CategoryNote    = "note"
)

// Record is one append-only memory entry. Records are never modified or
// deleted once written.
type Record struct {
	ID        string         `json:"id"`
	Category  string         `json:"category"`
	Timestamp time.Time      `json:"timestamp"`
	Summary   string         `json:"summary"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Store is the project memory root. The zero value is unusable; construct
// with NewStore.
type Store struct {
	dir     string // memory directory, e.g. <project>/.goforge/memory
	enabled bool
}

// NewStore creates a store rooted at dir under the project root. When
// enabled is false every operation is a no-op that reports success, so
// callers never branch on memory configuration.
func NewStore(projectRoot, dir string, enabled bool) *Store {
	return &Store{
		dir:     filepath.Join(projectRoot, dir, "memory"),
		enabled: enabled,
	}
}

// Dir returns the store's directory.
func (s *Store) Dir() string { return s.dir }

// Append writes a new record. The record is assigned an ID and timestamp
// if missing. One file per (category, timestamp): existing records are
// never rewritten.
func (s *Store) Append(rec Record) error {
	if !s.enabled {
		return nil
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.Category == "" {
		rec.Category = CategoryNote
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.json",
		rec.Timestamp.Format("20060102T150405.000000000"),
		rec.Category,
		rec.ID[:8])
	path := filepath.Join(s.dir, name)
	if err := fileutil.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	logging.Debug("memory record appended", "category", rec.Category, "id", rec.ID)
	return nil
}

// Recent returns up to limit records of the given category, newest first.
// Empty category matches all. Unreadable files are skipped with a warning.
func (s *Store) Recent(category string, limit int) ([]Record, error) {
	if !s.enabled {
		return nil, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") && e.Name() != ledgerFile {
			names = append(names, e.Name())
		}
	}
	// Timestamp-prefixed names sort chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var records []Record
	for _, name := range names {
		if limit > 0 && len(records) >= limit {
			break
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			logging.Warn("skipping unreadable memory record", "file", name, "error", err)
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			logging.Warn("skipping corrupt memory record", "file", name, "error", err)
			continue
		}
		if category != "" && rec.Category != category {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
