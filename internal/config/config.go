package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ScratchDir string `toml:"scratch_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
}

// Workflow contains configuration for job consumption and the worker pool.
type Workflow struct {
	Workers                  int `toml:"workers"`
	BatchSize                int `toml:"batch_size"`
	PollIntervalSeconds      int `toml:"poll_interval_seconds"`
	VisibilityTimeoutSeconds int `toml:"visibility_timeout_seconds"`
	HeartbeatIntervalSeconds int `toml:"heartbeat_interval_seconds"`
	ErrorRetrySeconds        int `toml:"error_retry_seconds"`
	StaleScratchHours        int `toml:"stale_scratch_hours"`
}

// Storage selects and configures the object-storage collaborator.
type Storage struct {
	Backend        string `toml:"backend"`
	Root           string `toml:"root"`
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	StagingPrefix  string `toml:"staging_prefix"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Metadata selects and configures the metadata-store collaborator.
type Metadata struct {
	Backend        string `toml:"backend"`
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transcription configures the speech-to-text collaborator and the poll loop.
type Transcription struct {
	Backend             string `toml:"backend"`
	BaseURL             string `toml:"base_url"`
	Token               string `toml:"token"`
	Language            string `toml:"language"`
	Diarization         bool   `toml:"diarization"`
	MaxSpeakers         int    `toml:"max_speakers"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	MaxWaitSeconds      int    `toml:"max_wait_seconds"`
	WhisperXModel       string `toml:"whisperx_model"`
	WhisperXCUDA        bool   `toml:"whisperx_cuda"`
	HFToken             string `toml:"hf_token"`
}

// Analysis holds the heuristic thresholds of the analysis tracks.
type Analysis struct {
	SilenceNoiseDB             float64 `toml:"silence_noise_db"`
	SilenceMinSeconds          float64 `toml:"silence_min_seconds"`
	SceneThreshold             float64 `toml:"scene_threshold"`
	PresencePlaceholderSeconds float64 `toml:"presence_placeholder_seconds"`
	// SpeakerMatch is "containment" (default) or "overlap".
	SpeakerMatch    string  `toml:"speaker_match"`
	OverlapFraction float64 `toml:"overlap_fraction"`
	// AudioEventsFatal and PresenceFatal turn the best-effort tracks into
	// job-failing stages.
	AudioEventsFatal bool `toml:"audio_events_fatal"`
	PresenceFatal    bool `toml:"presence_fatal"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics configures the Prometheus listener.
type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

// Config encapsulates all configuration values for reelscan.
//
// Configuration sections by subsystem:
//   - Paths: scratch, state (queue database, lock), and log directories
//   - Workflow: worker pool sizing and queue polling
//   - Storage: object storage used for footage retrieval and audio staging
//   - Metadata: where status updates and edit maps are written
//   - Transcription: speech-to-text provider and poll bounds
//   - Analysis: silence, scene, and speaker matching heuristics
//   - Logging: log format and level
//   - Metrics: Prometheus exposition
type Config struct {
	Paths         Paths         `toml:"paths"`
	Workflow      Workflow      `toml:"workflow"`
	Storage       Storage       `toml:"storage"`
	Metadata      Metadata      `toml:"metadata"`
	Transcription Transcription `toml:"transcription"`
	Analysis      Analysis      `toml:"analysis"`
	Logging       Logging       `toml:"logging"`
	Metrics       Metrics       `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelscan/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelscan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for worker operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ScratchDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Storage.Backend == StorageFilesystem && strings.TrimSpace(c.Storage.Root) != "" {
		if err := os.MkdirAll(c.Storage.Root, 0o755); err != nil {
			return fmt.Errorf("create storage root %q: %w", c.Storage.Root, err)
		}
	}
	return nil
}

// QueuePath returns the SQLite database path shared by the job queue and the
// local metadata store.
func (c *Config) QueuePath() string {
	return filepath.Join(c.Paths.StateDir, "queue.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "reelscand.lock")
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for duration probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// PollInterval is the delay between empty queue polls.
func (w Workflow) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalSeconds) * time.Second
}

// VisibilityTimeout is how long a claimed job stays invisible without a heartbeat.
func (w Workflow) VisibilityTimeout() time.Duration {
	return time.Duration(w.VisibilityTimeoutSeconds) * time.Second
}

// HeartbeatInterval is how often a running job extends its claim.
func (w Workflow) HeartbeatInterval() time.Duration {
	return time.Duration(w.HeartbeatIntervalSeconds) * time.Second
}

// ErrorRetry is the back-off after a queue read failure.
func (w Workflow) ErrorRetry() time.Duration {
	return time.Duration(w.ErrorRetrySeconds) * time.Second
}

// PollInterval is the fixed delay between transcription status checks.
func (t Transcription) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalSeconds) * time.Second
}

// MaxWait bounds the total transcription wait.
func (t Transcription) MaxWait() time.Duration {
	return time.Duration(t.MaxWaitSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML, redacting secrets.
func (c *Config) Encode() ([]byte, error) {
	redacted := *c
	redacted.Storage.Token = redact(redacted.Storage.Token)
	redacted.Metadata.Token = redact(redacted.Metadata.Token)
	redacted.Transcription.Token = redact(redacted.Transcription.Token)
	redacted.Transcription.HFToken = redact(redacted.Transcription.HFToken)
	return toml.Marshal(redacted)
}

func redact(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return "********"
}
