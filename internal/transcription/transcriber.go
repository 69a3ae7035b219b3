package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reelscan/internal/editmap"
	"reelscan/internal/logging"
	"reelscan/internal/services"
)

// Options configures a Transcriber.
type Options struct {
	Language     string
	Diarization  bool
	MaxSpeakers  int
	PollInterval time.Duration
	MaxWait      time.Duration
	// Stager is optional; without one the service receives the local path.
	Stager   Stager
	Observer PollObserver
	Logger   *slog.Logger
}

// Transcriber runs one transcription job per call.
type Transcriber struct {
	svc  Service
	opts Options
}

// NewTranscriber returns a Transcriber. Defaults: 5s poll interval, one hour ceiling.
func NewTranscriber(svc Service, opts Options) *Transcriber {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Transcriber{svc: svc, opts: opts}
}

// Transcribe stages audioPath, starts a job named jobName, waits for it, and
// returns the parsed tokens. Cancelling ctx abandons the wait and asks the
// service to cancel the job when it supports that.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath, jobName string) ([]editmap.Token, error) {
	jobName = strings.TrimSpace(jobName)
	if jobName == "" {
		return nil, services.Wrap(services.ErrValidation, "transcription", "start", "job name required", nil)
	}
	logger := logging.WithContext(ctx, t.opts.Logger)

	req := JobRequest{
		Name:        jobName,
		AudioPath:   audioPath,
		Language:    t.opts.Language,
		Diarization: t.opts.Diarization,
		MaxSpeakers: t.opts.MaxSpeakers,
	}
	if t.opts.Stager != nil {
		uri, err := t.opts.Stager.StageAudio(ctx, audioPath, jobName)
		if err != nil {
			return nil, services.Wrap(services.ErrTranscription, "transcription", "stage audio", audioPath, err)
		}
		req.MediaURI = uri
	}

	if err := t.svc.Start(ctx, req); err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcription", "start", fmt.Sprintf("job %s", jobName), err)
	}
	logger.Info("transcription job started",
		logging.EventType("transcription_started"),
		logging.String("transcription_job", jobName),
		logging.Duration("poll_interval", t.opts.PollInterval),
		logging.Duration("max_wait", t.opts.MaxWait),
	)

	started := time.Now()
	status, err := WaitForCompletion(ctx, t.svc, jobName, t.opts.PollInterval, t.opts.MaxWait, t.opts.Observer)
	if err != nil {
		t.cancel(logger, jobName)
		return nil, err
	}
	if status.State == StateFailed {
		reason := strings.TrimSpace(status.FailureReason)
		if reason == "" {
			reason = "service reported FAILED"
		}
		return nil, services.Wrap(services.ErrTranscription, "transcription", "job failed", fmt.Sprintf("job %s: %s", jobName, reason), nil)
	}

	tokens, err := t.svc.Result(ctx, jobName)
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcription", "fetch result", fmt.Sprintf("job %s", jobName), err)
	}
	logger.Info("transcription job completed",
		logging.EventType("transcription_completed"),
		logging.String("transcription_job", jobName),
		logging.Int("tokens", len(tokens)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return tokens, nil
}

// cancel runs on a fresh context because the job context may already be done.
func (t *Transcriber) cancel(logger *slog.Logger, name string) {
	canceler, ok := t.svc.(Canceler)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := canceler.Cancel(ctx, name); err != nil {
		logger.Warn("transcription job cancel failed",
			logging.String("transcription_job", name),
			logging.Error(err),
			logging.EventType("transcription_cancel_failed"),
			logging.Hint("remote job may keep running until it finishes"),
			logging.Impact("speech-to-text capacity held by an abandoned job"),
		)
	}
}
