package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"reelscan/internal/textutil"
)

// JobDirPrefix marks directories created by NewJobDir.
const JobDirPrefix = "job-"

// JobDir is a job-owned scratch directory.
type JobDir struct {
	path string
}

// NewJobDir creates a unique scratch directory for jobID under root. Reruns
// of the same job get distinct directories.
func NewJobDir(root, jobID string) (*JobDir, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("scratch root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ensure scratch root: %w", err)
	}
	name := fmt.Sprintf("%s%s-%s", JobDirPrefix, textutil.IDToken(jobID), uuid.NewString()[:8])
	path := filepath.Join(root, name)
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &JobDir{path: path}, nil
}

// Path returns the directory path.
func (d *JobDir) Path() string {
	return d.path
}

// File returns the path of name inside the directory.
func (d *JobDir) File(name string) string {
	return filepath.Join(d.path, textutil.FileName(name))
}

// Release removes the directory and everything in it. Safe to call twice.
func (d *JobDir) Release() error {
	if d == nil || d.path == "" {
		return nil
	}
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("remove scratch dir %s: %w", d.path, err)
	}
	return nil
}
