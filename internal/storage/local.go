// Package storage persists task attachments on local disk.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LocalStore writes attachment files under a base directory
type LocalStore struct {
	dir string
}

// NewLocalStore creates a local store rooted at dir
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Save writes the file and returns its storage key.
// The key is prefixed with a timestamp so repeated uploads of the same
// filename never collide.
func (s *LocalStore) Save(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	key := filepath.Join(s.dir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(filename)))

	f, err := os.Create(key)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(key)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return key, nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *LocalStore) Remove(key string) error {
	if err := os.Remove(key); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}
