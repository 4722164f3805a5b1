// Package store persists daily sleep summaries, one JSON record per
// calendar date, and renders the history for export.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sweeney/breath-sensor/internal/sleep"
)

// Observer is notified of summary write outcomes. The daemon wires its
// metrics here; tests and tools leave it unset.
type Observer interface {
	IncSummaryWrites()
	IncSummaryWriteErrors()
}

// Store holds summary records under a single directory. Records are named
// <date>.json and replaced wholesale on rewrite.
type Store struct {
	dir      string
	logger   *zap.Logger
	observer Observer
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create summary dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// SetObserver registers the write observer. Call before the daemon's loops
// start; the store does not synchronize observer replacement.
func (s *Store) SetObserver(o Observer) {
	s.observer = o
}

// Dir returns the directory records are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Write persists the summary for its date, replacing any existing record.
// The record lands via a temp file and rename so a reader never observes a
// partially written file.
func (s *Store) Write(sum sleep.Summary) error {
	err := s.write(sum)
	if s.observer != nil {
		if err != nil {
			s.observer.IncSummaryWriteErrors()
		} else {
			s.observer.IncSummaryWrites()
		}
	}
	return err
}

func (s *Store) write(sum sleep.Summary) error {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary %s: %w", sum.Date, err)
	}

	tmp, err := os.CreateTemp(s.dir, sum.Date+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp summary: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp summary: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(sum.Date)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace summary %s: %w", sum.Date, err)
	}
	return nil
}

// Read loads the record for one date.
func (s *Store) Read(date string) (sleep.Summary, error) {
	return s.read(s.path(date))
}

// List loads every record sorted by date ascending. Files that fail to read
// or decode are skipped with a warning, so one corrupt record never hides
// the rest of the history.
func (s *Store) List() ([]sleep.Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read summary dir: %w", err)
	}

	var out []sleep.Summary
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		sum, err := s.read(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable summary", zap.String("file", name), zap.Error(err))
			continue
		}
		out = append(out, sum)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// Count returns the number of summary records on disk.
func (s *Store) Count() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			n++
		}
	}
	return n
}

func (s *Store) read(path string) (sleep.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sleep.Summary{}, fmt.Errorf("read summary: %w", err)
	}
	var sum sleep.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return sleep.Summary{}, fmt.Errorf("decode summary %s: %w", filepath.Base(path), err)
	}
	return sum, nil
}

func (s *Store) path(date string) string {
	return filepath.Join(s.dir, date+".json")
}
