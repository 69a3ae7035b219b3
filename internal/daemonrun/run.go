package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"reelscan/internal/config"
	"reelscan/internal/daemon"
	"reelscan/internal/deps"
	"reelscan/internal/logging"
	"reelscan/internal/metadata"
	"reelscan/internal/metrics"
	"reelscan/internal/pipeline"
	"reelscan/internal/queue"
	"reelscan/internal/staging"
	"reelscan/internal/transcription"
	"reelscan/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	// SkipPreflight starts even when required binaries are missing.
	SkipPreflight bool
}

// Run starts the reelscan daemon and blocks until SIGINT/SIGTERM or ctx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	results := deps.Check(cfg)
	logDependencySnapshot(logger, results)
	if missing := deps.Missing(results); missing != nil {
		if !opts.SkipPreflight {
			return fmt.Errorf("preflight failed: %w", missing)
		}
		logging.WarnWithContext(logger, "preflight failed; continuing", "preflight_skipped",
			logging.Error(missing),
			logging.Hint("install the missing tools or fix directory permissions"),
			logging.Impact("jobs will fail at the stage that needs the missing dependency"),
		)
	}

	maxAge := time.Duration(cfg.Workflow.StaleScratchHours) * time.Hour
	cleaned := staging.CleanStale(signalCtx, cfg.Paths.ScratchDir, maxAge, logger)
	if len(cleaned.Removed) > 0 || len(cleaned.Errors) > 0 {
		logger.Info("stale scratch cleanup",
			logging.EventType("scratch_cleanup"),
			logging.Int("removed", len(cleaned.Removed)),
			logging.Int("errors", len(cleaned.Errors)),
		)
	}

	pidPath := filepath.Join(cfg.Paths.StateDir, "reelscand.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	mm := metrics.NewManager()
	reporter, err := metadata.FromConfig(cfg, store)
	if err != nil {
		return fmt.Errorf("metadata reporter: %w", err)
	}
	analyzer, err := pipeline.FromConfig(cfg, logger, pipeline.Hooks{
		Stage: mm.ObserveStage,
		Poll:  func(state transcription.State) { mm.ObservePoll(string(state)) },
	})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	manager := workflow.NewManager(workflow.SettingsFromConfig(cfg), analyzer, reporter,
		workflow.WithQueue(store),
		workflow.WithMetrics(mm),
		workflow.WithLogger(logger),
	)

	d, err := daemon.New(cfg, store, logger, manager, mm)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("reelscan daemon shutting down", logging.EventType("daemon_shutdown"))
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, results []deps.Status) {
	attrs := []logging.Attr{logging.EventType("dependency_snapshot")}
	for _, r := range results {
		key := strings.ToLower(strings.ReplaceAll(r.Name, " ", "_"))
		attrs = append(attrs,
			logging.Bool(key+"_available", r.Available),
			logging.String(key+"_command", r.Command),
		)
		if r.Version != "" {
			attrs = append(attrs, logging.String(key+"_version", r.Version))
		}
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
