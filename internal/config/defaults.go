package config

// Backend identifiers.
const (
	StorageFilesystem = "filesystem"
	StorageHTTP       = "http"

	MetadataSQLite = "sqlite"
	MetadataHTTP   = "http"

	TranscriptionHTTP     = "http"
	TranscriptionWhisperX = "whisperx"

	SpeakerMatchContainment = "containment"
	SpeakerMatchOverlap     = "overlap"
)

const (
	defaultScratchDir                 = "~/.local/share/reelscan/scratch"
	defaultStateDir                   = "~/.local/share/reelscan/state"
	defaultLogDir                     = "~/.local/share/reelscan/logs"
	defaultStorageRoot                = "~/.local/share/reelscan/objects"
	defaultStagingPrefix              = "transcription-staging"
	defaultLogFormat                  = "auto"
	defaultLogLevel                   = "info"
	defaultBatchSize                  = 10
	defaultPollIntervalSeconds        = 5
	defaultVisibilityTimeoutSeconds   = 300
	defaultHeartbeatIntervalSeconds   = 60
	defaultErrorRetrySeconds          = 10
	defaultStaleScratchHours          = 24
	defaultCollaboratorTimeoutSeconds = 30
	defaultTranscriptionLanguage      = "en-US"
	defaultTranscriptionPollSeconds   = 5
	defaultTranscriptionMaxWait       = 3600
	defaultTranscriptionMaxSpeakers   = 10
	defaultWhisperXModel              = "large-v3"
	defaultSilenceNoiseDB             = -30.0
	defaultSilenceMinSeconds          = 0.5
	defaultSceneThreshold             = 0.3
	defaultPresencePlaceholderSeconds = 60.0
	defaultOverlapFraction            = 0.5
	defaultMetricsBind                = "127.0.0.1:9464"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Workflow: Workflow{
			Workers:                  0,
			BatchSize:                defaultBatchSize,
			PollIntervalSeconds:      defaultPollIntervalSeconds,
			VisibilityTimeoutSeconds: defaultVisibilityTimeoutSeconds,
			HeartbeatIntervalSeconds: defaultHeartbeatIntervalSeconds,
			ErrorRetrySeconds:        defaultErrorRetrySeconds,
			StaleScratchHours:        defaultStaleScratchHours,
		},
		Storage: Storage{
			Backend:        StorageFilesystem,
			Root:           defaultStorageRoot,
			StagingPrefix:  defaultStagingPrefix,
			TimeoutSeconds: defaultCollaboratorTimeoutSeconds,
		},
		Metadata: Metadata{
			Backend:        MetadataSQLite,
			TimeoutSeconds: defaultCollaboratorTimeoutSeconds,
		},
		Transcription: Transcription{
			Backend:             TranscriptionWhisperX,
			Language:            defaultTranscriptionLanguage,
			Diarization:         true,
			MaxSpeakers:         defaultTranscriptionMaxSpeakers,
			PollIntervalSeconds: defaultTranscriptionPollSeconds,
			MaxWaitSeconds:      defaultTranscriptionMaxWait,
			WhisperXModel:       defaultWhisperXModel,
		},
		Analysis: Analysis{
			SilenceNoiseDB:             defaultSilenceNoiseDB,
			SilenceMinSeconds:          defaultSilenceMinSeconds,
			SceneThreshold:             defaultSceneThreshold,
			PresencePlaceholderSeconds: defaultPresencePlaceholderSeconds,
			SpeakerMatch:               SpeakerMatchContainment,
			OverlapFraction:            defaultOverlapFraction,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Metrics: Metrics{
			Enabled: true,
			Bind:    defaultMetricsBind,
		},
	}
}
