package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"reelscan/internal/config"
	"reelscan/internal/services/rest"
)

// ObjectStore fetches and puts objects by key.
type ObjectStore interface {
	// Fetch streams the object at key into destPath.
	Fetch(ctx context.Context, key, destPath string) (int64, error)
	// Put uploads srcPath under key and returns a URI the object can be read from.
	Put(ctx context.Context, key, srcPath string) (string, error)
}

// ErrObjectNotFound reports a missing object.
var ErrObjectNotFound = errors.New("object not found")

// CleanKey normalizes key and rejects keys that escape the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" {
		return "", fmt.Errorf("object key required")
	}
	cleaned := path.Clean("/" + key)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("object key %q escapes store root", key)
		}
	}
	return cleaned, nil
}

// AudioStager uploads extracted audio under a staging prefix.
type AudioStager struct {
	Store  ObjectStore
	Prefix string
}

// StageAudio implements the transcription staging hook.
func (s AudioStager) StageAudio(ctx context.Context, localPath, name string) (string, error) {
	key := path.Join(strings.Trim(s.Prefix, "/"), name+path.Ext(localPath))
	return s.Store.Put(ctx, key, localPath)
}

// FromConfig builds the object store selected by cfg.Storage.
func FromConfig(cfg *config.Config) (ObjectStore, error) {
	switch cfg.Storage.Backend {
	case config.StorageFilesystem:
		return NewFilesystemStore(cfg.Storage.Root)
	case config.StorageHTTP:
		return NewHTTPStore(rest.NewClient(rest.Config{
			Name:           "storage",
			BaseURL:        cfg.Storage.BaseURL,
			Token:          cfg.Storage.Token,
			TimeoutSeconds: cfg.Storage.TimeoutSeconds,
		})), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
