// Package localstore is a scoped key-value store backed by one JSON file per
// scope. It survives restarts and offers no transactional guarantees; the
// reminder scheduler and the poll voted-set are its only consumers.
package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store is a file-backed string map. Every Set/Remove rewrites the file so a
// crash loses at most the in-flight mutation.
type Store struct {
	path string

	mu   sync.Mutex
	data map[string]string
}

// Open loads the store at path, creating parent directories as needed. A
// missing file is an empty store; a corrupt file is treated as empty rather
// than an error, since nothing here is worth refusing to start over.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("localstore: mkdir: %w", err)
	}
	s := &Store{path: path, data: make(map[string]string)}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.data = make(map[string]string)
	}
	return s, nil
}

// Get returns the value for key and whether it exists.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores key=value and flushes to disk.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.flush()
}

// Remove deletes key and flushes to disk. Removing an absent key is a no-op.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flush()
}

// Keys returns all keys with the given prefix.
func (s *Store) Keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("localstore: marshal: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("localstore: write %s: %w", s.path, err)
	}
	return nil
}
