package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"

	"reelscan/internal/fileutil"
)

// FilesystemStore keeps objects as files under Root.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore returns a store rooted at root.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &FilesystemStore{root: abs}, nil
}

func (s *FilesystemStore) objectPath(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

// Fetch implements ObjectStore.
func (s *FilesystemStore) Fetch(ctx context.Context, key, destPath string) (int64, error) {
	src, err := s.objectPath(key)
	if err != nil {
		return 0, err
	}
	n, err := fileutil.CopyFile(ctx, src, destPath)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if err != nil {
		return n, fmt.Errorf("fetch object %s: %w", key, err)
	}
	return n, nil
}

// Put implements ObjectStore.
func (s *FilesystemStore) Put(ctx context.Context, key, srcPath string) (string, error) {
	dst, err := s.objectPath(key)
	if err != nil {
		return "", err
	}
	if _, err := fileutil.CopyFile(ctx, srcPath, dst); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(dst)}).String(), nil
}
