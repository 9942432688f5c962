// Package state persists ETL stream watermarks as a flat JSON object on
// disk. Every Set rewrites the whole file through a temp-file rename so a
// crash leaves either the old state or the new one, never a torn write.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	perr "cinedex/internal/platform/errors"
	"cinedex/internal/platform/logger"
)

// watermarkLayout is the ISO-8601 form stored in the file.
const watermarkLayout = time.RFC3339Nano

// Store is a durable string-to-string map with flush-on-write semantics.
// One ETL process owns one store; the mutex serializes writers inside it.
type Store struct {
	path string

	mu   sync.Mutex
	vals map[string]string
}

// Open loads the state file at path, creating its directory when missing.
// A missing or unreadable file starts empty so a fresh deployment (or a
// corrupted file) falls back to re-syncing from the epoch.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "state dir %s", dir)
		}
	}

	s := &Store{path: path, vals: map[string]string{}}

	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "read state %s", path)
		}
		return s, nil
	}
	if err := json.Unmarshal(b, &s.vals); err != nil {
		logger.Get().Warn().Err(err).Str("path", path).Msg("state file unreadable, starting empty")
		s.vals = map[string]string{}
	}
	return s, nil
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Get returns the stored value for key, ok=false when absent.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vals[key]
	return v, ok
}

// Set stores value under key and flushes the whole map to disk before
// returning. The write goes to a temp file in the same directory, is
// synced, then renamed over the target.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vals[key] = value

	b, err := json.MarshalIndent(s.vals, "", "  ")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "encode state")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp*")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "state temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "write state")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "sync state")
	}
	if err := tmp.Close(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "close state temp")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "replace state file")
	}
	return nil
}

// GetTime parses the stored watermark under key. Absent or unparseable
// values come back as the zero time, which selects everything since the
// epoch on the next pass.
func (s *Store) GetTime(key string) time.Time {
	v, ok := s.Get(key)
	if !ok || v == "" {
		return time.Time{}
	}
	t, err := time.Parse(watermarkLayout, v)
	if err != nil {
		logger.Get().Warn().Str("key", key).Str("value", v).Msg("unparseable watermark, resetting to epoch")
		return time.Time{}
	}
	return t
}

// SetTime stores t as the watermark under key.
func (s *Store) SetTime(key string, t time.Time) error {
	return s.Set(key, t.UTC().Format(watermarkLayout))
}
