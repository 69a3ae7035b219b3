package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"reelscan/internal/editmap"
	"reelscan/internal/logging"
	"reelscan/internal/metrics"
	"reelscan/internal/services"
)

// ErrAbandoned marks a job whose context ended before it finished. The job
// is neither completed nor failed and will be redelivered.
var ErrAbandoned = errors.New("job abandoned")

// RunJob analyzes one job and reports its status transitions: processing,
// then completed with the edit map written, or failed with the error message.
// Status report failures are logged and never mask the analysis outcome.
func (m *Manager) RunJob(ctx context.Context, job editmap.AnalysisJob) (editmap.EditMap, error) {
	ctx = services.WithJobID(ctx, job.EditMapID)
	logger := logging.WithContext(ctx, m.logger)
	started := m.now().UTC()
	m.jobStarted(job.EditMapID)

	logger.Info("analysis job started",
		logging.EventType("job_started"),
		logging.String("storage_key", job.StorageKey),
		logging.String("episode_id", job.EpisodeID),
	)
	m.report(ctx, job.EditMapID, "processing", editmap.StatusUpdate{
		ProcessingStatus:    editmap.StatusProcessing,
		ProcessingStartedAt: &started,
	})

	result, err := m.analyzer.Analyze(ctx, job)
	elapsed := m.now().Sub(started)
	if err == nil {
		return m.complete(ctx, job, result, elapsed)
	}

	if ctx.Err() != nil {
		m.jobFinished(metrics.OutcomeAbandoned, elapsed, err)
		logger.Info("analysis job abandoned",
			logging.EventType("job_abandoned"),
			logging.Duration("elapsed", elapsed),
			logging.String("reason", abandonReason(ctx)),
		)
		return editmap.EditMap{}, errors.Join(ErrAbandoned, err)
	}

	m.fail(ctx, job, err, elapsed)
	return editmap.EditMap{}, err
}

func (m *Manager) complete(ctx context.Context, job editmap.AnalysisJob, result editmap.EditMap, elapsed time.Duration) (editmap.EditMap, error) {
	logger := logging.WithContext(ctx, m.logger)
	if err := m.reporter.WriteEditMap(ctx, job.EditMapID, result); err != nil {
		m.metrics.ReportFailed("edit_map")
		wrapped := services.Wrap(services.ErrTransient, "assembly", "write edit map", "metadata store rejected the edit map", err)
		m.fail(ctx, job, wrapped, elapsed)
		return editmap.EditMap{}, wrapped
	}
	completed := m.now().UTC()
	m.report(ctx, job.EditMapID, "completed", editmap.StatusUpdate{
		ProcessingStatus:      editmap.StatusCompleted,
		ProcessingCompletedAt: &completed,
	})
	for _, warning := range result.Warnings {
		stage, _, _ := strings.Cut(warning, ":")
		m.metrics.TrackDegraded(stage)
	}
	m.jobFinished(metrics.OutcomeCompleted, elapsed, nil)
	logger.Info("analysis job completed",
		logging.EventType("job_completed"),
		logging.Duration("elapsed", elapsed),
		logging.Int("speakers", result.SpeakerCount),
		logging.Int("words", result.WordCount),
		logging.Int("cuts", len(result.CutPoints)),
		logging.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

func (m *Manager) fail(ctx context.Context, job editmap.AnalysisJob, err error, elapsed time.Duration) {
	attrs := append(logging.Failure(err),
		logging.EventType("job_failed"),
		logging.Duration("elapsed", elapsed),
	)
	logging.WithContext(ctx, m.logger).Error("analysis job failed", logging.Args(attrs...)...)
	completed := m.now().UTC()
	m.report(ctx, job.EditMapID, "failed", editmap.StatusUpdate{
		ProcessingStatus:      editmap.StatusFailed,
		ErrorMessage:          err.Error(),
		ProcessingCompletedAt: &completed,
	})
	m.jobFinished(metrics.OutcomeFailed, elapsed, err)
}

func (m *Manager) report(ctx context.Context, editMapID, write string, update editmap.StatusUpdate) {
	if err := m.reporter.UpdateStatus(ctx, editMapID, update); err != nil {
		m.metrics.ReportFailed("status_" + write)
		logging.WarnWithContext(logging.WithContext(ctx, m.logger),
			"status report failed", "status_report_failed",
			logging.Error(err),
			logging.String("status", string(update.ProcessingStatus)),
			logging.Hint("check metadata store connectivity"),
			logging.Impact("metadata store may show a stale status for this edit map"),
		)
	}
}

func abandonReason(ctx context.Context) string {
	if cause := context.Cause(ctx); cause != nil {
		return cause.Error()
	}
	return "context done"
}
