package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelscan/internal/config"
	"reelscan/internal/logging"
	"reelscan/internal/metadata"
	"reelscan/internal/metrics"
)

// Manager coordinates job execution, status reporting, and queue claims.
type Manager struct {
	settings Settings
	analyzer Analyzer
	reporter metadata.Reporter
	queue    Queue
	metrics  *metrics.Manager
	logger   *slog.Logger
	owner    string
	now      func() time.Time

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	inFlight  int
	completed int64
	failed    int64
	abandoned int64
	lastErr   error
	lastJob   string
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithQueue attaches the queue the daemon loop claims from.
func WithQueue(q Queue) Option {
	return func(m *Manager) { m.queue = q }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(mm *metrics.Manager) Option {
	return func(m *Manager) { m.metrics = mm }
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source used for status timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithOwner overrides the claim owner name.
func WithOwner(owner string) Option {
	return func(m *Manager) {
		if owner != "" {
			m.owner = owner
		}
	}
}

// SettingsFromConfig maps the [workflow] section onto Settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Workers:           cfg.Workflow.Workers,
		BatchSize:         cfg.Workflow.BatchSize,
		PollInterval:      cfg.Workflow.PollInterval(),
		Visibility:        cfg.Workflow.VisibilityTimeout(),
		HeartbeatInterval: cfg.Workflow.HeartbeatInterval(),
		ErrorRetry:        cfg.Workflow.ErrorRetry(),
	}
}

// NewManager constructs a workflow manager. Zero settings take defaults:
// NumCPU workers, batches of 10, 5s polls, 5m visibility with a heartbeat at
// a third of it.
func NewManager(settings Settings, analyzer Analyzer, reporter metadata.Reporter, opts ...Option) *Manager {
	if settings.Workers <= 0 {
		settings.Workers = runtime.NumCPU()
	}
	if settings.BatchSize <= 0 {
		settings.BatchSize = 10
	}
	if settings.PollInterval <= 0 {
		settings.PollInterval = 5 * time.Second
	}
	if settings.Visibility <= 0 {
		settings.Visibility = 5 * time.Minute
	}
	if settings.HeartbeatInterval <= 0 || settings.HeartbeatInterval >= settings.Visibility {
		settings.HeartbeatInterval = settings.Visibility / 3
	}
	if settings.ErrorRetry <= 0 {
		settings.ErrorRetry = 10 * time.Second
	}
	m := &Manager{
		settings: settings,
		analyzer: analyzer,
		reporter: reporter,
		logger:   logging.NewNop(),
		now:      time.Now,
		owner:    defaultOwner(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.NewComponentLogger(m.logger, "workflow")
	return m
}

func defaultOwner() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), uuid.NewString()[:8])
}

// Owner returns the claim owner name.
func (m *Manager) Owner() string {
	return m.owner
}

// Status returns a snapshot for health output.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	summary := StatusSummary{
		Running:   m.running,
		Owner:     m.owner,
		Workers:   m.settings.Workers,
		InFlight:  m.inFlight,
		Completed: m.completed,
		Failed:    m.failed,
		Abandoned: m.abandoned,
		LastJob:   m.lastJob,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) jobStarted(editMapID string) {
	m.mu.Lock()
	m.inFlight++
	m.lastJob = editMapID
	m.mu.Unlock()
	m.metrics.JobStarted()
}

func (m *Manager) jobFinished(outcome string, elapsed time.Duration, err error) {
	m.mu.Lock()
	m.inFlight--
	switch outcome {
	case metrics.OutcomeCompleted:
		m.completed++
	case metrics.OutcomeFailed:
		m.failed++
		m.lastErr = err
	default:
		m.abandoned++
	}
	m.mu.Unlock()
	m.metrics.JobFinished(outcome, elapsed)
}
