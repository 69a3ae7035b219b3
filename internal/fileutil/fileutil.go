// Package fileutil holds small file helpers shared by storage backends.
package fileutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteAtomic writes dst through fill into a sibling temp file and renames it
// into place, so readers never observe a partial file. The temp file is
// removed on any failure.
func WriteAtomic(dst string, mode os.FileMode, fill func(w io.Writer) (int64, error)) (int64, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".partial-*")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	written, err := fill(tmp)
	if err != nil {
		return written, err
	}
	if err := tmp.Sync(); err != nil {
		return written, err
	}
	if err := tmp.Close(); err != nil {
		return written, err
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return written, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return written, err
	}
	committed = true
	return written, nil
}

// CopyFile streams src to dst atomically with mode 0o644. The copy stops
// with ctx's error once ctx is done.
func CopyFile(ctx context.Context, src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	return WriteAtomic(dst, 0o644, func(w io.Writer) (int64, error) {
		return io.Copy(w, contextReader{ctx: ctx, r: in})
	})
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
