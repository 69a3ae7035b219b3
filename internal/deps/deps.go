package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// versionTimeout bounds each version probe.
const versionTimeout = 5 * time.Second

// Requirement defines an external binary the worker shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs, when set, are passed to the resolved binary and the first
	// line of its output is reported as the version.
	VersionArgs []string
}

// Status reports the outcome of one dependency check.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Path is the resolved executable for binary checks.
	Path    string
	Version string
	Detail  string
}

// CheckBinaries resolves every requirement in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, CheckBinary(req))
	}
	return results
}

// CheckBinary resolves req on PATH and probes its version. A binary that
// resolves but fails the version probe is still available; the failure is
// recorded in Detail.
func CheckBinary(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Available = true
	status.Path = path
	if len(req.VersionArgs) == 0 {
		return status
	}
	version, err := probeVersion(path, req.VersionArgs)
	if err != nil {
		status.Detail = fmt.Sprintf("version probe failed: %v", err)
		return status
	}
	status.Version = version
	return status
}

func probeVersion(path string, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", nil
}
