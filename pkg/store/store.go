// Package store persists small JSON documents for the badge runtime: the
// resolved location/timezone and the last good data snapshots, so a reboot in
// a dead spot still has something to show. Each document is one file; writes
// are atomic via temp-file-then-rename.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// envelope is the on-disk wrapper around every document.
type envelope struct {
	Key     string          `json:"key"`
	SavedAt time.Time       `json:"saved_at"`
	Payload json.RawMessage `json:"payload"`
}

// Store is a disk-backed document store. It is safe for concurrent use.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open creates the store directory if needed and returns a Store. Corrupted
// documents found on disk are removed so a partial write can never wedge boot.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: create directory %s: %w", dir, err)
	}
	s := &Store{dir: dir}
	s.sweepCorrupt()
	return s, nil
}

// Put stores raw JSON payload under key.
func (s *Store) Put(key string, payload []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	env := envelope{Key: key, SavedAt: time.Now(), Payload: payload}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("store: marshal envelope for %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := atomicWrite(s.path(key), data, s.dir); err != nil {
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	return nil
}

// Get returns the raw payload and save time for key. Returns false if the
// document is absent or unreadable.
func (s *Store) Get(key string) ([]byte, time.Time, bool) {
	if validKey(key) != nil {
		return nil, time.Time{}, false
	}

	s.mu.Lock()
	data, err := os.ReadFile(s.path(key))
	s.mu.Unlock()
	if err != nil {
		return nil, time.Time{}, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, time.Time{}, false
	}
	return env.Payload, env.SavedAt, true
}

// Delete removes the document for key. Missing documents are a no-op.
func (s *Store) Delete(key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Keys lists the stored document keys in directory order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// sweepCorrupt removes documents that fail to decode. Runs once at Open.
func (s *Store) sweepCorrupt() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(name, ".tmp-") {
			_ = os.Remove(filepath.Join(s.dir, name))
			continue
		}
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			_ = os.Remove(path)
		}
	}
}

// validKey restricts keys to filename-safe characters.
func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("store: empty key")
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return fmt.Errorf("store: invalid key %q", key)
		}
	}
	return nil
}

// atomicWrite writes data to path via a temporary file and rename.
func atomicWrite(path string, data []byte, tmpDir string) error {
	tmp, err := os.CreateTemp(tmpDir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	success = true
	return nil
}
