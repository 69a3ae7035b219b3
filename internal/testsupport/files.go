package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"reelscan/internal/config"
	"reelscan/internal/storage"
)

// WriteFootage places a fake footage object of size bytes under the
// filesystem object store configured by cfg and returns its path. The
// content repeats a short marker so truncated copies are detectable.
func WriteFootage(t testing.TB, cfg *config.Config, key string, size int) string {
	t.Helper()
	cleaned, err := storage.CleanKey(key)
	if err != nil {
		t.Fatalf("footage key %q: %v", key, err)
	}
	if size <= 0 {
		size = 1
	}
	path := filepath.Join(cfg.Storage.Root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	marker := []byte("reelscan-footage;")
	data := bytes.Repeat(marker, size/len(marker)+1)[:size]
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write footage %s: %v", path, err)
	}
	return path
}
