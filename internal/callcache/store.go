package callcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store is a persistent, unbounded key/value cache backed by one JSON file.
type Store struct {
	entries map[string]string
	logger  *slog.Logger
	path    string
	mu      sync.RWMutex
}

// Open loads the cache at path. A missing file yields an empty store; any other
// failure is logged and also yields an empty store, so Open never fails a run.
// An empty path gives a memory-only store.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		entries: make(map[string]string),
		logger:  logger.With("component", "callcache", "path", path),
		path:    path,
	}

	if path == "" {
		return s
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read cache file, starting empty", "error", err)
		}
		return s
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("failed to parse cache file, starting empty", "error", err)
		return s
	}
	if entries == nil {
		s.logger.Warn("cache file holds no object, starting empty")
		return s
	}

	s.entries = entries
	s.logger.Debug("loaded cache", "entries", len(entries))
	return s
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the stored payload for key.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return []byte(v), true
}

// Put stores value under key and rewrites the cache file before returning.
func (s *Store) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = string(value)
	return s.flushLocked()
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Flush rewrites the whole cache file.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	if s.path == "" {
		return nil
	}

	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close cache: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	return nil
}
