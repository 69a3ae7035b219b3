package pipeline

import (
	"fmt"
	"log/slog"

	"reelscan/internal/activespeaker"
	"reelscan/internal/audioevents"
	"reelscan/internal/config"
	"reelscan/internal/media/ffmpeg"
	"reelscan/internal/media/ffprobe"
	"reelscan/internal/presence"
	"reelscan/internal/scenes"
	"reelscan/internal/services"
	"reelscan/internal/services/rest"
	"reelscan/internal/storage"
	"reelscan/internal/transcription"
)

// Hooks carries the optional observers wired into a configured Analyzer.
type Hooks struct {
	Stage StageObserver
	Poll  transcription.PollObserver
}

// FromConfig assembles an Analyzer from cfg using the real collaborators:
// the configured object store, ffprobe/ffmpeg, the configured speech-to-text
// backend, silencedetect, the placeholder presence tracker, and scene-change
// detection.
func FromConfig(cfg *config.Config, logger *slog.Logger, hooks Hooks) (*Analyzer, error) {
	store, err := storage.FromConfig(cfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "storage", "", err)
	}

	svc, err := transcriptionService(cfg, logger)
	if err != nil {
		return nil, err
	}
	opts := transcription.Options{
		Language:     cfg.Transcription.Language,
		Diarization:  cfg.Transcription.Diarization,
		MaxSpeakers:  cfg.Transcription.MaxSpeakers,
		PollInterval: cfg.Transcription.PollInterval(),
		MaxWait:      cfg.Transcription.MaxWait(),
		Observer:     hooks.Poll,
		Logger:       logger,
	}
	if cfg.Transcription.Backend == config.TranscriptionHTTP {
		opts.Stager = storage.AudioStager{Store: store, Prefix: cfg.Storage.StagingPrefix}
	}

	matcher, err := activespeaker.NewMatcher(activespeaker.Policy(cfg.Analysis.SpeakerMatch), cfg.Analysis.OverlapFraction)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "speaker match", "", err)
	}

	tool := ffmpeg.New(cfg.FFmpegBinary())
	return NewAnalyzer(Collaborators{
		Fetcher:     store,
		Prober:      ffprobe.New(cfg.FFprobeBinary()),
		Extractor:   tool,
		Transcriber: transcription.NewTranscriber(svc, opts),
		Events:      audioevents.NewDetector(tool, cfg.Analysis.SilenceNoiseDB, cfg.Analysis.SilenceMinSeconds, audioevents.Classifiers{}),
		Presence:    presence.NewPlaceholder(cfg.Analysis.PresencePlaceholderSeconds),
		Scenes:      scenes.NewDetector(tool, cfg.Analysis.SceneThreshold),
		Matcher:     matcher,
	}, Options{
		ScratchRoot:      cfg.Paths.ScratchDir,
		Language:         cfg.Transcription.Language,
		AudioEventsFatal: cfg.Analysis.AudioEventsFatal,
		PresenceFatal:    cfg.Analysis.PresenceFatal,
		Observer:         hooks.Stage,
		Logger:           logger,
	})
}

func transcriptionService(cfg *config.Config, logger *slog.Logger) (transcription.Service, error) {
	switch cfg.Transcription.Backend {
	case config.TranscriptionHTTP:
		return transcription.NewHTTPService(rest.NewClient(rest.Config{
			Name:    "transcription",
			BaseURL: cfg.Transcription.BaseURL,
			Token:   cfg.Transcription.Token,
		})), nil
	case config.TranscriptionWhisperX:
		return transcription.NewWhisperXService(transcription.WhisperXConfig{
			Model:       cfg.Transcription.WhisperXModel,
			CUDAEnabled: cfg.Transcription.WhisperXCUDA,
			HFToken:     cfg.Transcription.HFToken,
		}, logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "transcription",
			fmt.Sprintf("unsupported backend %q", cfg.Transcription.Backend), nil)
	}
}
