package workflow_test

import (
	"context"
	"testing"
	"time"

	"reelscan/internal/editmap"
	"reelscan/internal/metadata"
	"reelscan/internal/queue"
	"reelscan/internal/testsupport"
	"reelscan/internal/workflow"
)

func loopSettings() workflow.Settings {
	return workflow.Settings{
		Workers:           2,
		BatchSize:         4,
		PollInterval:      10 * time.Millisecond,
		Visibility:        time.Second,
		HeartbeatInterval: 20 * time.Millisecond,
		ErrorRetry:        10 * time.Millisecond,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestDaemonLoopAcksClaimedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ok := testsupport.Enqueue(t, store, "em-1", testsupport.FootageKey)
	bad := testsupport.Enqueue(t, store, "em-2", "raw/missing.mp4")

	c, _, _ := testsupport.NewCollaborators()
	reporter := metadata.NewLocalReporter(store)
	mgr := workflow.NewManager(loopSettings(), newAnalyzer(t, c), reporter, workflow.WithQueue(store))
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()

	ctx := context.Background()
	waitFor(t, 5*time.Second, func() bool {
		stats, err := store.Stats(ctx)
		return err == nil && stats[queue.StatusCompleted] == 1 && stats[queue.StatusFailed] == 1
	})
	mgr.Stop()

	done, err := store.GetByID(ctx, ok.ID)
	if err != nil || done.Status != queue.StatusCompleted {
		t.Fatalf("job 1: %+v, %v", done, err)
	}
	failed, err := store.GetByID(ctx, bad.ID)
	if err != nil || failed.Status != queue.StatusFailed || failed.LastError == "" {
		t.Fatalf("job 2: %+v, %v", failed, err)
	}

	status, err := store.Status(ctx, "em-1")
	if err != nil || status.ProcessingStatus != editmap.StatusCompleted {
		t.Fatalf("edit map status: %+v, %v", status, err)
	}
	if _, err := store.LatestEditMap(ctx, "em-1"); err != nil {
		t.Fatalf("LatestEditMap: %v", err)
	}
	if mgr.Status().Running {
		t.Fatal("manager should report stopped")
	}
}

func TestStopReleasesInFlightClaims(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	msg := testsupport.Enqueue(t, store, "em-1", testsupport.FootageKey)

	c, _, transcriber := testsupport.NewCollaborators()
	transcriber.Block = true
	reporter := &metadata.MemoryReporter{}
	mgr := workflow.NewManager(loopSettings(), newAnalyzer(t, c), reporter, workflow.WithQueue(store))
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, 5*time.Second, func() bool { return len(transcriber.JobNames()) > 0 })
	mgr.Stop()

	got, err := store.GetByID(context.Background(), msg.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusPending || got.LastError != queue.DaemonStopReason {
		t.Fatalf("expected released pending job, got %+v", got)
	}
	if last, _ := reporter.LastStatus("em-1"); last.ProcessingStatus != editmap.StatusProcessing {
		t.Fatalf("abandoned job must not report a terminal status, got %q", last.ProcessingStatus)
	}
}

// lossyQueue wraps a store and reports every extend as a lost claim.
type lossyQueue struct {
	*queue.Store
}

func (q lossyQueue) Extend(context.Context, int64, string, time.Duration) error {
	return queue.ErrClaimLost
}

func TestLostClaimCancelsJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	msg := testsupport.Enqueue(t, store, "em-1", testsupport.FootageKey)

	c, _, transcriber := testsupport.NewCollaborators()
	transcriber.Block = true
	mgr := workflow.NewManager(loopSettings(), newAnalyzer(t, c), &metadata.MemoryReporter{},
		workflow.WithQueue(lossyQueue{store}))
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()

	waitFor(t, 5*time.Second, func() bool { return mgr.Status().Abandoned == 1 })

	got, err := store.GetByID(context.Background(), msg.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusClaimed {
		t.Fatalf("lost claim must be left for its new owner, got %q", got.Status)
	}
}

func TestStartRequiresQueue(t *testing.T) {
	mgr := workflow.NewManager(loopSettings(), &countingAnalyzer{}, &metadata.MemoryReporter{})
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected error without a queue")
	}
}
