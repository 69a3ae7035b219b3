package deps

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"reelscan/internal/config"
	"reelscan/internal/transcription"
)

// Requirements lists the binaries cfg needs. uvx is only required for the
// local WhisperX backend.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "Audio extraction, silence and scene detection", VersionArgs: []string{"-version"}},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "Container duration and stream inventory", VersionArgs: []string{"-version"}},
	}
	if cfg.Transcription.Backend == config.TranscriptionWhisperX {
		reqs = append(reqs, Requirement{
			Name:        "uvx",
			Command:     transcription.UVXCommand,
			Description: "Runs WhisperX for local transcription",
			VersionArgs: []string{"--version"},
		})
	}
	return reqs
}

// CheckDirectory reports whether path exists as a directory the process can
// create and remove entries in.
func CheckDirectory(name, path string) Status {
	status := Status{Name: name, Command: path, Description: "Writable directory"}
	path = strings.TrimSpace(path)
	if path == "" {
		status.Detail = "path not configured"
		return status
	}
	info, err := os.Stat(path)
	if err != nil {
		status.Detail = fmt.Sprintf("stat: %v", err)
		return status
	}
	if !info.IsDir() {
		status.Detail = "not a directory"
		return status
	}
	if err := unix.Access(path, unix.W_OK|unix.X_OK); err != nil {
		status.Detail = fmt.Sprintf("not writable: %v", err)
		return status
	}
	status.Available = true
	return status
}

// Check runs every binary and directory check for cfg.
func Check(cfg *config.Config) []Status {
	results := CheckBinaries(Requirements(cfg))
	results = append(results,
		CheckDirectory("Scratch directory", cfg.Paths.ScratchDir),
		CheckDirectory("State directory", cfg.Paths.StateDir),
	)
	return results
}

// Missing joins the required checks that failed into one error, or nil.
func Missing(results []Status) error {
	var errs []error
	for _, r := range results {
		if r.Available || r.Optional {
			continue
		}
		errs = append(errs, fmt.Errorf("%s (%s): %s", r.Name, r.Command, r.Detail))
	}
	return errors.Join(errs...)
}
