package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DirStore stores blobs as files under a root directory.
type DirStore struct {
	root string
}

// NewDirStore creates a store rooted at dir, creating it if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create root: %w", err)
	}
	return &DirStore{root: dir}, nil
}

// Put writes the blob to root/key, creating intermediate directories.
func (s *DirStore) Put(ctx context.Context, key string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	return f.Close()
}
