package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"reelscan/internal/fileutil"
	"reelscan/internal/services/rest"
)

// HTTPStore reads and writes objects at {base}/objects/{key}.
type HTTPStore struct {
	client *rest.Client
}

// NewHTTPStore wraps a REST client.
func NewHTTPStore(client *rest.Client) *HTTPStore {
	return &HTTPStore{client: client}
}

func objectPath(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	parts := strings.Split(cleaned, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return path.Join("objects", strings.Join(parts, "/")), nil
}

// Fetch implements ObjectStore.
func (s *HTTPStore) Fetch(ctx context.Context, key, destPath string) (int64, error) {
	p, err := objectPath(key)
	if err != nil {
		return 0, err
	}
	n, err := fileutil.WriteAtomic(destPath, 0o644, func(w io.Writer) (int64, error) {
		return s.client.Download(ctx, p, w)
	})
	if rest.IsNotFound(err) {
		return 0, fmt.Errorf("%w: %s: %w", ErrObjectNotFound, key, err)
	}
	return n, err
}

// Put implements ObjectStore.
func (s *HTTPStore) Put(ctx context.Context, key, srcPath string) (string, error) {
	p, err := objectPath(key)
	if err != nil {
		return "", err
	}
	err = s.client.Upload(ctx, p, "application/octet-stream", func() (io.ReadCloser, error) {
		return os.Open(srcPath)
	})
	if err != nil {
		return "", err
	}
	return s.client.BaseURL() + "/" + p, nil
}
