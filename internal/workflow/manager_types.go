package workflow

import (
	"context"
	"time"

	"reelscan/internal/editmap"
	"reelscan/internal/queue"
)

// Queue is the job source the daemon loop drives. *queue.Store satisfies it.
type Queue interface {
	Claim(ctx context.Context, owner string, limit int, visibility time.Duration) ([]*queue.Message, error)
	Extend(ctx context.Context, id int64, token string, visibility time.Duration) error
	Ack(ctx context.Context, id int64, token string, jobErr error) error
	Release(ctx context.Context, id int64, token, reason string) error
	ReleaseOwner(ctx context.Context, owner, reason string) (int64, error)
	ReclaimExpired(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
}

// Analyzer runs the pipeline for one job. *pipeline.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, job editmap.AnalysisJob) (editmap.EditMap, error)
}

// Settings are the pool and polling knobs.
type Settings struct {
	Workers           int
	BatchSize         int
	PollInterval      time.Duration
	Visibility        time.Duration
	HeartbeatInterval time.Duration
	ErrorRetry        time.Duration
}

// JobResult is the outcome of one job in a batch.
type JobResult struct {
	Job     editmap.AnalysisJob
	EditMap *editmap.EditMap
	Err     error
}

// StatusSummary is a point-in-time view of the manager for health output.
type StatusSummary struct {
	Running   bool
	Owner     string
	Workers   int
	InFlight  int
	Completed int64
	Failed    int64
	Abandoned int64
	LastError string
	LastJob   string
}
