// Package snapshot stores chart screenshots captured from the dashboard.
// The browser posts the canvas as a base64 data URL; snapshots land as
// timestamped PNG files so the alerts page can show them newest first.
package snapshot

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// tsFormat names snapshot files by capture time, second resolution.
const tsFormat = "20060102-150405"

// Saver writes and lists snapshot images under a single directory.
type Saver struct {
	dir string
}

// New creates a saver rooted at dir, creating the directory if needed.
func New(dir string) (*Saver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Saver{dir: dir}, nil
}

// Dir returns the directory snapshots are written to.
func (s *Saver) Dir() string {
	return s.dir
}

// Save decodes a "data:image/png;base64,..." data URL and writes it as
// <timestamp>.png. Returns the stored filename.
func (s *Saver) Save(dataURL string, now time.Time) (string, error) {
	_, encoded, found := strings.Cut(dataURL, ",")
	if !found {
		return "", errors.New("malformed image data: no base64 payload")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode image data: %w", err)
	}

	name := now.Format(tsFormat) + ".png"
	if err := os.WriteFile(filepath.Join(s.dir, name), raw, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return name, nil
}

// List returns stored snapshot filenames, newest first.
func (s *Saver) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".png") {
			names = append(names, e.Name())
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}
