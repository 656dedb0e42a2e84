// Package storage persists opaque values under named keys. The journal keeps
// its whole bounded list under a single key.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Store reads and writes values by key.
type Store interface {
	// Get returns the value for key. ok is false when the key was never set.
	Get(key string) (value []byte, ok bool, err error)
	// Set replaces the value for key atomically.
	Set(key string, value []byte) error
	Close() error
}

// ErrInvalidKey is returned for keys that cannot be stored safely.
var ErrInvalidKey = errors.New("storage: invalid key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

func validKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Open returns the backend named by backend ("file" or "sqlite") rooted at base.
func Open(backend, base string) (Store, error) {
	switch backend {
	case "", "file":
		return NewFileStore(base)
	case "sqlite":
		return OpenSQLite(base)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}

// FileStore keeps each key in base/<key>.json.
type FileStore struct {
	base string
	mu   sync.Mutex
}

// NewFileStore creates base if needed and returns a FileStore over it.
func NewFileStore(base string) (*FileStore, error) {
	if err := os.MkdirAll(base, 0o700); err != nil {
		return nil, fmt.Errorf("storage error creating directories: %w", err)
	}
	return &FileStore{base: base}, nil
}

// filePath returns the path for the given key.
func (s *FileStore) filePath(key string) string {
	return filepath.Join(s.base, key+".json")
}

// Get reads the file for key.
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	if err := validKey(key); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.filePath(key)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage error reading %s: %w", path, err)
	}
	return data, true, nil
}

// Set atomically writes value for key.
func (s *FileStore) Set(key string, value []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.filePath(key)
	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, value, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// Close is a no-op for files.
func (s *FileStore) Close() error {
	return nil
}
