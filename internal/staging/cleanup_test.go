package staging

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelscan/internal/logging"
)

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldJobDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	oldTime := time.Now().Add(-2 * time.Hour)

	oldDir := filepath.Join(tmpDir, "job-em1-aaaa")
	foreignDir := filepath.Join(tmpDir, "keep-me")
	recentDir := filepath.Join(tmpDir, "job-em2-bbbb")
	for _, dir := range []string{oldDir, foreignDir, recentDir} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatalf("create dir: %v", err)
		}
	}
	for _, dir := range []string{oldDir, foreignDir} {
		if err := os.Chtimes(dir, oldTime, oldTime); err != nil {
			t.Fatalf("set old time: %v", err)
		}
	}

	result := CleanStale(context.Background(), tmpDir, time.Hour, nil)

	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("expected only %s removed, got %v", oldDir, result.Removed)
	}
	for _, dir := range []string{foreignDir, recentDir} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("%s should still exist", dir)
		}
	}
}

func TestJobDirLifecycle(t *testing.T) {
	root := filepath.Join(t.TempDir(), "scratch")

	first, err := NewJobDir(root, "EM/42")
	if err != nil {
		t.Fatalf("NewJobDir: %v", err)
	}
	second, err := NewJobDir(root, "EM/42")
	if err != nil {
		t.Fatalf("NewJobDir: %v", err)
	}
	if first.Path() == second.Path() {
		t.Fatal("expected distinct directories for reruns")
	}
	if !strings.HasPrefix(filepath.Base(first.Path()), "job-em_42-") {
		t.Fatalf("unexpected dir name %s", first.Path())
	}
	if filepath.Dir(first.File("source.mp4")) != first.Path() {
		t.Fatalf("file should live in job dir: %s", first.File("source.mp4"))
	}

	if err := os.WriteFile(first.File("audio.wav"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if _, err := os.Stat(first.Path()); !os.IsNotExist(err) {
		t.Fatal("expected job dir to be removed")
	}
}
