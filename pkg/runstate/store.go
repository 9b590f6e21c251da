package runstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Store persists and loads run state from an on-disk log directory.
//
// Directory layout:
//
//	<dir>/<name>.txt         per-configuration run log
//	<dir>/<name>.lastupdate  success marker (JSON RunRecord)
//
// Each configuration owns its own pair of files, keyed by name, so
// concurrent runs of different configurations never touch the same file.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: strings.TrimSpace(dir)}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) LogPath(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func (s *Store) MarkerPath(name string) string {
	return filepath.Join(s.dir, name+".lastupdate")
}

func (s *Store) EnsureDir() error {
	if strings.TrimSpace(s.dir) == "" {
		return fmt.Errorf("log dir is empty")
	}
	return os.MkdirAll(s.dir, 0755)
}

// WriteMarker records a successful run. The marker is replaced atomically
// so a crash mid-write never leaves a torn record, and at most one marker
// exists per configuration name.
func (s *Store) WriteMarker(rec *RunRecord) error {
	if rec == nil {
		return fmt.Errorf("run record is nil")
	}
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return fmt.Errorf("configuration name is required")
	}
	if err := s.EnsureDir(); err != nil {
		return err
	}

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}
	b = append(b, '\n')

	tmp, err := os.CreateTemp(s.dir, name+".lastupdate.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp marker: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp marker: %w", err)
	}

	if err := os.Rename(tmpName, s.MarkerPath(name)); err != nil {
		return fmt.Errorf("rename marker: %w", err)
	}
	return nil
}

// LastRun returns the recorded run for a configuration, or (nil, nil) if it
// has never completed successfully. Markers written by older versions of the
// tool were empty files whose mtime was the completion time; those are still
// honored by synthesizing a record from the file's mtime.
func (s *Store) LastRun(name string) (*RunRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("configuration name is required")
	}

	path := s.MarkerPath(name)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read marker: %w", err)
	}

	trimmed := strings.TrimSpace(string(b))
	if trimmed != "" {
		var rec RunRecord
		if err := json.Unmarshal([]byte(trimmed), &rec); err == nil && !rec.CompletedAt.IsZero() {
			return &rec, nil
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat marker: %w", err)
	}
	return &RunRecord{Name: name, CompletedAt: info.ModTime().UTC()}, nil
}

// LastUpdate returns the completion time of a configuration's most recent
// successful run. ok is false if it has never succeeded or the marker is
// unreadable; a missing or uninitialized log dir is not an error.
func (s *Store) LastUpdate(name string) (time.Time, bool) {
	rec, err := s.LastRun(name)
	if err != nil || rec == nil {
		return time.Time{}, false
	}
	return rec.CompletedAt, true
}

// Snapshot reads the marker for each given name and returns entries sorted
// for status display: never-updated configurations first, then oldest to
// newest, ties broken by name.
func (s *Store) Snapshot(names []string) []Entry {
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		t, ok := s.LastUpdate(name)
		out = append(out, Entry{Name: name, LastUpdate: t, Updated: ok})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Updated != b.Updated {
			return !a.Updated
		}
		if !a.LastUpdate.Equal(b.LastUpdate) {
			return a.LastUpdate.Before(b.LastUpdate)
		}
		return a.Name < b.Name
	})

	return out
}
