package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"reelscan/internal/activespeaker"
	"reelscan/internal/editmap"
	"reelscan/internal/language"
	"reelscan/internal/logging"
	"reelscan/internal/media/audio"
	"reelscan/internal/media/ffprobe"
	"reelscan/internal/presence"
	"reelscan/internal/services"
	"reelscan/internal/staging"
	"reelscan/internal/suggest"
)

// Stage names used in logs, errors, and metrics.
const (
	StageRetrieval     = "retrieval"
	StageProbe         = "probe"
	StageExtraction    = "extraction"
	StageTranscription = "transcription"
	StageDiarization   = "diarization"
	StageAudioEvents   = "audio_events"
	StagePresence      = "presence"
	StageScenes        = "scene_detection"
	StageActiveSpeaker = "active_speaker"
	StageSuggest       = "suggest"
	StageAssembly      = "assembly"
)

// Fetcher retrieves the source footage. storage.ObjectStore satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, key, destPath string) (int64, error)
}

// Prober reads container metadata. *ffprobe.Prober satisfies it.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// AudioExtractor writes the speech audio track. *ffmpeg.Tool satisfies it.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, source string, audioIndex int, dest string) error
}

// Transcriber turns speech audio into word tokens.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, jobName string) ([]editmap.Token, error)
}

// EventDetector finds silences and other audio events.
type EventDetector interface {
	Detect(ctx context.Context, audioPath string) (editmap.AudioEvents, error)
}

// SceneDetector finds visual scene boundaries.
type SceneDetector interface {
	Detect(ctx context.Context, videoPath string) ([]editmap.SceneBoundaryMark, error)
}

// SpeakerMatcher fuses diarized segments with on-screen presence.
type SpeakerMatcher interface {
	Resolve(segments []editmap.SpeakerSegment, presence []editmap.PresenceInterval) []editmap.ActiveSpeakerEntry
}

// StageObserver sees the duration and outcome of every stage. Used for metrics.
type StageObserver func(stage string, elapsed time.Duration, err error)

// Collaborators bundles the injected services an Analyzer drives.
type Collaborators struct {
	Fetcher     Fetcher
	Prober      Prober
	Extractor   AudioExtractor
	Transcriber Transcriber
	Events      EventDetector
	Presence    presence.Tracker
	Scenes      SceneDetector
	Matcher     SpeakerMatcher
}

// Options tunes an Analyzer.
type Options struct {
	ScratchRoot string
	// Language steers source audio stream selection.
	Language         string
	AudioEventsFatal bool
	PresenceFatal    bool
	Observer         StageObserver
	Logger           *slog.Logger
	Now              func() time.Time
}

// Analyzer runs the per-job pipeline. It holds no job state and is safe for
// concurrent Analyze calls.
type Analyzer struct {
	c    Collaborators
	opts Options
}

// NewAnalyzer validates the collaborators and returns an Analyzer. A nil
// Presence tracker defaults to the placeholder and a nil Matcher to
// containment matching.
func NewAnalyzer(c Collaborators, opts Options) (*Analyzer, error) {
	var missing []string
	for _, check := range []struct {
		name    string
		present bool
	}{
		{"fetcher", c.Fetcher != nil},
		{"prober", c.Prober != nil},
		{"extractor", c.Extractor != nil},
		{"transcriber", c.Transcriber != nil},
		{"event detector", c.Events != nil},
		{"scene detector", c.Scenes != nil},
	} {
		if !check.present {
			missing = append(missing, check.name)
		}
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init",
			"missing collaborators: "+strings.Join(missing, ", "), nil)
	}
	if strings.TrimSpace(opts.ScratchRoot) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "scratch root required", nil)
	}
	if c.Presence == nil {
		c.Presence = presence.NewPlaceholder(0)
	}
	if c.Matcher == nil {
		c.Matcher = activespeaker.Matcher{Policy: activespeaker.Containment}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Analyzer{c: c, opts: opts}, nil
}

// Analyze runs every stage for job and returns the assembled EditMap. The
// returned error is already wrapped with its taxonomy marker.
func (a *Analyzer) Analyze(ctx context.Context, job editmap.AnalysisJob) (result editmap.EditMap, err error) {
	if err := job.Validate(); err != nil {
		return editmap.EditMap{}, services.Wrap(services.ErrValidation, "pipeline", "validate job", "", err)
	}
	ctx = services.WithJobID(ctx, job.EditMapID)
	logger := logging.WithContext(ctx, a.opts.Logger)

	dir, err := staging.NewJobDir(a.opts.ScratchRoot, job.EditMapID)
	if err != nil {
		return editmap.EditMap{}, services.Wrap(services.ErrConfiguration, "pipeline", "scratch", a.opts.ScratchRoot, err)
	}
	defer func() {
		if releaseErr := dir.Release(); releaseErr != nil {
			logging.WarnWithContext(logger, "scratch cleanup failed", "scratch_cleanup_failed",
				logging.String("scratch_dir", dir.Path()),
				logging.Error(releaseErr),
				logging.Hint("remove the directory manually or let stale cleanup reclaim it"),
				logging.Impact("disk space held until the next daemon start"),
			)
		}
	}()

	videoPath := dir.File("source" + sourceExt(job.StorageKey))
	if err := a.stage(ctx, StageRetrieval, func(ctx context.Context) error {
		n, err := a.c.Fetcher.Fetch(ctx, job.StorageKey, videoPath)
		if err != nil {
			return services.Wrap(services.ErrRetrieval, StageRetrieval, "fetch", job.StorageKey, err)
		}
		logging.WithContext(ctx, a.opts.Logger).Debug("footage retrieved",
			logging.String("storage_key", job.StorageKey),
			logging.Int64("bytes", n),
		)
		return nil
	}); err != nil {
		return editmap.EditMap{}, err
	}

	var probe ffprobe.Result
	if err := a.stage(ctx, StageProbe, func(ctx context.Context) error {
		var inspectErr error
		probe, inspectErr = a.c.Prober.Inspect(ctx, videoPath)
		if inspectErr != nil {
			return services.Wrap(services.ErrExtraction, StageProbe, "ffprobe", filepath.Base(videoPath), inspectErr)
		}
		return nil
	}); err != nil {
		return editmap.EditMap{}, err
	}
	selection := audio.Select(probe.Streams, a.opts.Language)
	if !selection.Found() {
		return editmap.EditMap{}, services.Wrap(services.ErrExtraction, StageProbe, "select audio", "source has no audio stream", nil)
	}
	logger.Debug("source probed",
		logging.Int("video_streams", probe.VideoStreamCount()),
		logging.Int("audio_streams", probe.AudioStreamCount()),
		logging.Int64("size_bytes", probe.SizeBytes()),
		logging.Int("audio_stream", selection.PrimaryIndex),
		logging.String("audio_language", language.DisplayName(selection.Language)),
	)

	audioPath := dir.File("audio.wav")
	if err := a.stage(ctx, StageExtraction, func(ctx context.Context) error {
		if err := a.c.Extractor.ExtractAudio(ctx, videoPath, selection.PrimaryIndex, audioPath); err != nil {
			return services.Wrap(services.ErrExtraction, StageExtraction, "ffmpeg", fmt.Sprintf("audio stream %d", selection.PrimaryIndex), err)
		}
		return nil
	}); err != nil {
		return editmap.EditMap{}, err
	}

	tracks, err := a.runTracks(ctx, trackInput{
		videoPath: videoPath,
		audioPath: audioPath,
		jobName:   transcriptionJobName(dir.Path()),
	})
	if err != nil {
		return editmap.EditMap{}, err
	}

	var active []editmap.ActiveSpeakerEntry
	_ = a.stage(ctx, StageActiveSpeaker, func(context.Context) error {
		active = a.c.Matcher.Resolve(tracks.segments, tracks.presence)
		return nil
	})
	var (
		cuts  []editmap.Cut
		broll []editmap.BRollOpportunity
	)
	_ = a.stage(ctx, StageSuggest, func(context.Context) error {
		cuts = suggest.Cuts(tracks.tokens, tracks.events)
		broll = suggest.BRoll(active)
		return nil
	})

	_ = a.stage(ctx, StageAssembly, func(context.Context) error {
		result = editmap.Assemble(editmap.Parts{
			Job:             job,
			DurationSeconds: probe.DurationSeconds(),
			Tokens:          tracks.tokens,
			Segments:        tracks.segments,
			AudioEvents:     tracks.events,
			Presence:        tracks.presence,
			ActiveSpeakers:  active,
			SceneBoundaries: tracks.scenes,
			Cuts:            cuts,
			BRoll:           broll,
			Warnings:        tracks.warnings,
		}, a.opts.Now())
		return nil
	})
	logger.Info("analysis complete",
		logging.EventType("analysis_complete"),
		logging.Float64("duration_seconds", result.DurationSeconds),
		logging.Int("words", result.WordCount),
		logging.Int("speakers", result.SpeakerCount),
		logging.Int("scene_boundaries", len(result.SceneBoundaries)),
		logging.Int("cuts", len(result.CutPoints)),
		logging.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// stage runs fn with the stage stamped into ctx and reports its outcome.
func (a *Analyzer) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx = services.WithStage(ctx, name)
	started := time.Now()
	err := fn(ctx)
	elapsed := time.Since(started)
	if a.opts.Observer != nil {
		a.opts.Observer(name, elapsed, err)
	}
	logger := logging.WithContext(ctx, a.opts.Logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Debug("stage failed", logging.Duration("elapsed", elapsed), logging.Error(err))
		return err
	}
	logger.Debug("stage finished", logging.Duration("elapsed", elapsed))
	return err
}

func sourceExt(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ext == "" || len(ext) > 6 {
		return ".bin"
	}
	return ext
}

// transcriptionJobName derives a unique service job name from the scratch
// directory, which already carries the sanitized edit map id and a random
// suffix.
func transcriptionJobName(scratchDir string) string {
	return "reelscan-" + strings.TrimPrefix(filepath.Base(scratchDir), staging.JobDirPrefix)
}
