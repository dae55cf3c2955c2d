package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements [Store] on the local filesystem.
//
// Objects are written under dir using the object key as a relative path. URLs
// are urlBase + "/" + key when a base is configured, otherwise the absolute
// file path.
type LocalStore struct {
	dir     string
	urlBase string
}

// NewLocalStore creates a LocalStore rooted at dir.
func NewLocalStore(dir, urlBase string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("local store directory is required")
	}
	return &LocalStore{dir: dir, urlBase: strings.TrimRight(urlBase, "/")}, nil
}

// EnsureContainer creates the root directory if absent.
func (s *LocalStore) EnsureContainer(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return nil
}

// Put writes data to dir/key, creating intermediate directories as needed.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	return s.objectURL(key, path), nil
}

// Exists reports whether a file is already stored under key.
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(key))

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}

	return true, nil
}

func (s *LocalStore) objectURL(key, path string) string {
	if s.urlBase != "" {
		return s.urlBase + "/" + key
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
