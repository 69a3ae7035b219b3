package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers < 0 {
		return errors.New("workflow.workers must be zero (auto) or positive")
	}
	if err := ensurePositiveMap(map[string]int{
		"workflow.batch_size":                 c.Workflow.BatchSize,
		"workflow.poll_interval_seconds":      c.Workflow.PollIntervalSeconds,
		"workflow.visibility_timeout_seconds": c.Workflow.VisibilityTimeoutSeconds,
		"workflow.heartbeat_interval_seconds": c.Workflow.HeartbeatIntervalSeconds,
		"workflow.error_retry_seconds":        c.Workflow.ErrorRetrySeconds,
	}); err != nil {
		return err
	}
	if c.Workflow.VisibilityTimeoutSeconds <= c.Workflow.HeartbeatIntervalSeconds {
		return errors.New("workflow.visibility_timeout_seconds must be greater than workflow.heartbeat_interval_seconds")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageFilesystem:
		if strings.TrimSpace(c.Storage.Root) == "" {
			return errors.New("storage.root must be set for the filesystem backend")
		}
	case StorageHTTP:
		if c.Storage.BaseURL == "" {
			return errors.New("storage.base_url must be set for the http backend")
		}
	default:
		return fmt.Errorf("storage.backend: unsupported value %q", c.Storage.Backend)
	}
	if c.Storage.TimeoutSeconds <= 0 {
		return errors.New("storage.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateMetadata() error {
	switch c.Metadata.Backend {
	case MetadataSQLite:
	case MetadataHTTP:
		if c.Metadata.BaseURL == "" {
			return errors.New("metadata.base_url must be set for the http backend")
		}
	default:
		return fmt.Errorf("metadata.backend: unsupported value %q", c.Metadata.Backend)
	}
	if c.Metadata.TimeoutSeconds <= 0 {
		return errors.New("metadata.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Backend {
	case TranscriptionWhisperX:
	case TranscriptionHTTP:
		if c.Transcription.BaseURL == "" {
			return errors.New("transcription.base_url must be set for the http backend")
		}
	default:
		return fmt.Errorf("transcription.backend: unsupported value %q", c.Transcription.Backend)
	}
	if c.Transcription.PollIntervalSeconds <= 0 {
		return errors.New("transcription.poll_interval_seconds must be positive")
	}
	if c.Transcription.MaxWaitSeconds < c.Transcription.PollIntervalSeconds {
		return errors.New("transcription.max_wait_seconds must be at least transcription.poll_interval_seconds")
	}
	if c.Transcription.MaxSpeakers < 0 {
		return errors.New("transcription.max_speakers must not be negative")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.SceneThreshold <= 0 || c.Analysis.SceneThreshold >= 1 {
		return errors.New("analysis.scene_threshold must be between 0 and 1")
	}
	if c.Analysis.SilenceMinSeconds <= 0 {
		return errors.New("analysis.silence_min_seconds must be positive")
	}
	if c.Analysis.SilenceNoiseDB >= 0 {
		return errors.New("analysis.silence_noise_db must be negative (dBFS)")
	}
	if c.Analysis.PresencePlaceholderSeconds < 0 {
		return errors.New("analysis.presence_placeholder_seconds must not be negative")
	}
	switch c.Analysis.SpeakerMatch {
	case SpeakerMatchContainment:
	case SpeakerMatchOverlap:
		if c.Analysis.OverlapFraction <= 0 || c.Analysis.OverlapFraction > 1 {
			return errors.New("analysis.overlap_fraction must be in (0, 1] when analysis.speaker_match is overlap")
		}
	default:
		return fmt.Errorf("analysis.speaker_match: unsupported value %q", c.Analysis.SpeakerMatch)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
