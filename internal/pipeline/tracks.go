package pipeline

import (
	"context"
	"sync"

	"reelscan/internal/diarize"
	"reelscan/internal/editmap"
	"reelscan/internal/logging"
	"reelscan/internal/scenes"
	"reelscan/internal/services"
)

type trackInput struct {
	videoPath string
	audioPath string
	jobName   string
}

type trackOutput struct {
	tokens   []editmap.Token
	segments []editmap.SpeakerSegment
	events   editmap.AudioEvents
	presence []editmap.PresenceInterval
	scenes   []editmap.SceneBoundaryMark
	warnings []string
}

// failFast records the first fatal track error and cancels the siblings.
type failFast struct {
	once   sync.Once
	err    error
	cancel context.CancelFunc
}

func (f *failFast) fail(err error) {
	f.once.Do(func() {
		f.err = err
		f.cancel()
	})
}

// runTracks runs the four independent analysis tracks concurrently and joins
// them. Each track writes only its own fields of out.
func (a *Analyzer) runTracks(ctx context.Context, in trackInput) (trackOutput, error) {
	trackCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	ff := &failFast{cancel: cancel}

	var (
		out      trackOutput
		warnMu   sync.Mutex
		warnings []string
		wg       sync.WaitGroup
	)
	degrade := func(stage string, err error) {
		logging.WarnWithContext(logging.WithContext(services.WithStage(ctx, stage), a.opts.Logger),
			"analysis track degraded", "track_degraded",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, string(services.Kind(err))),
			logging.Hint("the edit map omits this track; rerun the job after fixing the cause"),
		)
		warnMu.Lock()
		warnings = append(warnings, stage+": "+err.Error())
		warnMu.Unlock()
	}
	// settle routes a finished track's error: fatal errors, and every error
	// once the job is cancelled, stop the siblings; the rest degrade.
	settle := func(stage string, err error, fatal bool) bool {
		if err == nil {
			return true
		}
		if fatal || services.IsFatal(err) || trackCtx.Err() != nil {
			ff.fail(err)
			return false
		}
		degrade(stage, err)
		return false
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		var tokens []editmap.Token
		err := a.stage(trackCtx, StageTranscription, func(ctx context.Context) error {
			var err error
			tokens, err = a.c.Transcriber.Transcribe(ctx, in.audioPath, in.jobName)
			return err
		})
		if !settle(StageTranscription, err, true) {
			return
		}
		out.tokens = tokens
		_ = a.stage(trackCtx, StageDiarization, func(context.Context) error {
			out.segments = diarize.Segments(tokens)
			return nil
		})
	}()

	go func() {
		defer wg.Done()
		err := a.stage(trackCtx, StageAudioEvents, func(ctx context.Context) error {
			events, err := a.c.Events.Detect(ctx, in.audioPath)
			if err != nil {
				return services.Wrap(services.ErrStage, StageAudioEvents, "detect", "", err)
			}
			out.events = events
			return nil
		})
		if !settle(StageAudioEvents, err, a.opts.AudioEventsFatal) {
			out.events = editmap.AudioEvents{}
		}
	}()

	go func() {
		defer wg.Done()
		err := a.stage(trackCtx, StagePresence, func(ctx context.Context) error {
			intervals, err := a.c.Presence.Track(ctx, in.videoPath)
			if err != nil {
				return services.Wrap(services.ErrStage, StagePresence, "track", "", err)
			}
			out.presence = intervals
			return nil
		})
		if !settle(StagePresence, err, a.opts.PresenceFatal) {
			out.presence = nil
		}
	}()

	go func() {
		defer wg.Done()
		err := a.stage(trackCtx, StageScenes, func(ctx context.Context) error {
			marks, err := a.c.Scenes.Detect(ctx, in.videoPath)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return services.Wrap(services.ErrSceneDetection, StageScenes, "detect", "", err)
			}
			out.scenes = marks
			logging.WithContext(ctx, a.opts.Logger).Debug("scene boundaries detected",
				logging.Int("count", len(marks)),
				logging.String("boundaries", scenes.String(marks)),
			)
			return nil
		})
		settle(StageScenes, err, false)
	}()

	wg.Wait()

	// A parent cancellation surfaces as the context error rather than
	// whichever track noticed it first.
	if err := ctx.Err(); err != nil {
		return trackOutput{}, err
	}
	if ff.err != nil {
		return trackOutput{}, ff.err
	}
	out.warnings = warnings
	return out, nil
}
