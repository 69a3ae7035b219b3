package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeMetadata()
	c.normalizeTranscription()
	c.normalizeAnalysis()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageFilesystem
	}
	if c.Storage.Backend == StorageFilesystem {
		if strings.TrimSpace(c.Storage.Root) == "" {
			c.Storage.Root = defaultStorageRoot
		}
		var err error
		if c.Storage.Root, err = expandPath(c.Storage.Root); err != nil {
			return fmt.Errorf("storage.root: %w", err)
		}
	}
	c.Storage.BaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.BaseURL), "/")
	c.Storage.StagingPrefix = strings.Trim(strings.TrimSpace(c.Storage.StagingPrefix), "/")
	if c.Storage.StagingPrefix == "" {
		c.Storage.StagingPrefix = defaultStagingPrefix
	}
	if c.Storage.Token == "" {
		if value, ok := os.LookupEnv("REELSCAN_STORAGE_TOKEN"); ok {
			c.Storage.Token = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeMetadata() {
	c.Metadata.Backend = strings.ToLower(strings.TrimSpace(c.Metadata.Backend))
	if c.Metadata.Backend == "" {
		c.Metadata.Backend = MetadataSQLite
	}
	c.Metadata.BaseURL = strings.TrimRight(strings.TrimSpace(c.Metadata.BaseURL), "/")
	if c.Metadata.Token == "" {
		if value, ok := os.LookupEnv("REELSCAN_METADATA_TOKEN"); ok {
			c.Metadata.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Backend = strings.ToLower(strings.TrimSpace(c.Transcription.Backend))
	if c.Transcription.Backend == "" {
		c.Transcription.Backend = TranscriptionWhisperX
	}
	c.Transcription.BaseURL = strings.TrimRight(strings.TrimSpace(c.Transcription.BaseURL), "/")
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	if c.Transcription.Language == "" {
		c.Transcription.Language = defaultTranscriptionLanguage
	}
	if strings.TrimSpace(c.Transcription.WhisperXModel) == "" {
		c.Transcription.WhisperXModel = defaultWhisperXModel
	}
	if c.Transcription.Token == "" {
		if value, ok := os.LookupEnv("REELSCAN_STT_TOKEN"); ok {
			c.Transcription.Token = strings.TrimSpace(value)
		}
	}
	if c.Transcription.HFToken == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeAnalysis() {
	c.Analysis.SpeakerMatch = strings.ToLower(strings.TrimSpace(c.Analysis.SpeakerMatch))
	if c.Analysis.SpeakerMatch == "" {
		c.Analysis.SpeakerMatch = SpeakerMatchContainment
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
