package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"reelscan/internal/config"
	"reelscan/internal/deps"
	"reelscan/internal/logging"
	"reelscan/internal/metrics"
	"reelscan/internal/queue"
	"reelscan/internal/workflow"
)

// Daemon owns the single-instance lock, the workflow manager, and the HTTP
// listener.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	metrics  *metrics.Manager

	lockPath string
	lock     *flock.Flock
	server   *httpServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies. mm may be nil.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager, mm *metrics.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		metrics:  mm,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	if cfg.Metrics.Enabled {
		d.server = newHTTPServer(cfg.Metrics.Bind, d, d.logger)
	}
	return d, nil
}

// Start acquires the daemon lock, starts the HTTP listener, and launches the
// workflow loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another reelscan daemon holds %s", d.lockPath)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		d.server.stop()
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("reelscan daemon started",
		logging.EventType("daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("queue_db", d.store.Path()),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	d.server.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("reelscan daemon stopped", logging.EventType("daemon_stopped"))
}

// Close stops the daemon. The store belongs to the caller.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Addr returns the HTTP listener address, or "" when it is disabled.
func (d *Daemon) Addr() string {
	return d.server.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     d.workflow.Status(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		Dependencies: deps.Check(d.cfg),
	}
}
