package workflow_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"reelscan/internal/editmap"
	"reelscan/internal/metadata"
	"reelscan/internal/metrics"
	"reelscan/internal/pipeline"
	"reelscan/internal/queue"
	"reelscan/internal/services"
	"reelscan/internal/testsupport"
	"reelscan/internal/workflow"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newAnalyzer(t *testing.T, c pipeline.Collaborators) *pipeline.Analyzer {
	t.Helper()
	analyzer, err := pipeline.NewAnalyzer(c, pipeline.Options{
		ScratchRoot: t.TempDir(),
		Language:    "en",
		Now:         func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	return analyzer
}

func job(id, key string) editmap.AnalysisJob {
	return editmap.AnalysisJob{EditMapID: id, RawFootageID: "raw-" + id, StorageKey: key, EpisodeID: "ep-1"}
}

func statuses(writes []metadata.Write) []editmap.Status {
	var out []editmap.Status
	for _, w := range writes {
		if w.Status != nil {
			out = append(out, w.Status.ProcessingStatus)
		}
	}
	return out
}

func TestRunJobReportsProcessingThenCompleted(t *testing.T) {
	c, _, _ := testsupport.NewCollaborators()
	reporter := &metadata.MemoryReporter{}
	mgr := workflow.NewManager(workflow.Settings{Workers: 1}, newAnalyzer(t, c), reporter,
		workflow.WithClock(func() time.Time { return fixedNow }))

	result, err := mgr.RunJob(context.Background(), job("em-1", testsupport.FootageKey))
	if err != nil {
		t.Fatalf("RunJob: %v", err)
	}
	if result.EditMapID != "em-1" || result.SpeakerCount != 2 {
		t.Fatalf("unexpected edit map: %+v", result)
	}

	writes := reporter.Writes("em-1")
	if len(writes) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(writes))
	}
	if writes[0].Status == nil || writes[0].Status.ProcessingStatus != editmap.StatusProcessing {
		t.Fatalf("first write should be processing, got %+v", writes[0])
	}
	if writes[0].Status.ProcessingStartedAt == nil || !writes[0].Status.ProcessingStartedAt.Equal(fixedNow) {
		t.Fatalf("expected started_at %v, got %v", fixedNow, writes[0].Status.ProcessingStartedAt)
	}
	if writes[1].EditMap == nil {
		t.Fatalf("second write should be the edit map, got %+v", writes[1])
	}
	last := writes[2].Status
	if last == nil || last.ProcessingStatus != editmap.StatusCompleted || last.ProcessingCompletedAt == nil {
		t.Fatalf("last write should be completed with a timestamp, got %+v", writes[2])
	}

	summary := mgr.Status()
	if summary.Completed != 1 || summary.InFlight != 0 || summary.LastJob != "em-1" {
		t.Fatalf("unexpected status summary: %+v", summary)
	}
}

func TestRunJobReportsFailureMessage(t *testing.T) {
	c, _, transcriber := testsupport.NewCollaborators()
	transcriber.Err = testsupport.ErrInjected
	reporter := &metadata.MemoryReporter{}
	mgr := workflow.NewManager(workflow.Settings{Workers: 1}, newAnalyzer(t, c), reporter)

	_, err := mgr.RunJob(context.Background(), job("em-1", testsupport.FootageKey))
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
	got := statuses(reporter.Writes("em-1"))
	if len(got) != 2 || got[0] != editmap.StatusProcessing || got[1] != editmap.StatusFailed {
		t.Fatalf("unexpected status sequence %v", got)
	}
	last, _ := reporter.LastStatus("em-1")
	if last.ErrorMessage != err.Error() {
		t.Fatalf("error message %q, want %q", last.ErrorMessage, err.Error())
	}
	if _, ok := reporter.LastEditMap("em-1"); ok {
		t.Fatal("failed job must not write an edit map")
	}
	if mgr.Status().Failed != 1 {
		t.Fatalf("expected one failed job, got %+v", mgr.Status())
	}
}

func TestRunJobCancelledIsAbandoned(t *testing.T) {
	c, _, transcriber := testsupport.NewCollaborators()
	transcriber.Block = true
	reporter := &metadata.MemoryReporter{}
	mgr := workflow.NewManager(workflow.Settings{Workers: 1}, newAnalyzer(t, c), reporter)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for len(transcriber.JobNames()) == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()
	_, err := mgr.RunJob(ctx, job("em-1", testsupport.FootageKey))
	if !errors.Is(err, workflow.ErrAbandoned) {
		t.Fatalf("expected ErrAbandoned, got %v", err)
	}
	got := statuses(reporter.Writes("em-1"))
	if len(got) != 1 || got[0] != editmap.StatusProcessing {
		t.Fatalf("abandoned job should only report processing, got %v", got)
	}
	if mgr.Status().Abandoned != 1 {
		t.Fatalf("expected one abandoned job, got %+v", mgr.Status())
	}
}

type failingReporter struct {
	metadata.MemoryReporter
}

func (r *failingReporter) UpdateStatus(context.Context, string, editmap.StatusUpdate) error {
	return testsupport.ErrInjected
}

func TestRunJobStatusReportFailureDoesNotFailJob(t *testing.T) {
	c, _, _ := testsupport.NewCollaborators()
	reporter := &failingReporter{}
	mm := metrics.NewManager()
	mgr := workflow.NewManager(workflow.Settings{Workers: 1}, newAnalyzer(t, c), reporter, workflow.WithMetrics(mm))

	if _, err := mgr.RunJob(context.Background(), job("em-1", testsupport.FootageKey)); err != nil {
		t.Fatalf("status report failure should not fail the job: %v", err)
	}
	if _, ok := reporter.LastEditMap("em-1"); !ok {
		t.Fatal("expected edit map to be written")
	}
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	c, _, _ := testsupport.NewCollaborators()
	reporter := &metadata.MemoryReporter{}
	mgr := workflow.NewManager(workflow.Settings{Workers: 2}, newAnalyzer(t, c), reporter)

	jobs := []editmap.AnalysisJob{
		job("em-1", testsupport.FootageKey),
		job("em-2", "raw/missing.mp4"),
		job("em-3", testsupport.FootageKey),
	}
	results := mgr.ProcessBatch(context.Background(), jobs)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"em-1", "em-2", "em-3"} {
		if results[i].Job.EditMapID != want {
			t.Fatalf("result %d is for %s, want %s", i, results[i].Job.EditMapID, want)
		}
	}
	if results[0].Err != nil || results[0].EditMap == nil {
		t.Fatalf("job 1 should succeed: %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, services.ErrRetrieval) || results[1].EditMap != nil {
		t.Fatalf("job 2 should fail retrieval, got %v", results[1].Err)
	}
	if results[2].Err != nil || results[2].EditMap == nil {
		t.Fatalf("job 3 should succeed: %v", results[2].Err)
	}

	for id, want := range map[string]editmap.Status{
		"em-1": editmap.StatusCompleted,
		"em-2": editmap.StatusFailed,
		"em-3": editmap.StatusCompleted,
	} {
		last, ok := reporter.LastStatus(id)
		if !ok || last.ProcessingStatus != want {
			t.Fatalf("%s: status %q, want %q", id, last.ProcessingStatus, want)
		}
	}
	last, _ := reporter.LastStatus("em-2")
	if !strings.Contains(last.ErrorMessage, "missing.mp4") {
		t.Fatalf("error message should name the key, got %q", last.ErrorMessage)
	}
}

func TestProcessBatchBoundsConcurrency(t *testing.T) {
	analyzer := &countingAnalyzer{delay: 20 * time.Millisecond}
	mgr := workflow.NewManager(workflow.Settings{Workers: 2}, analyzer, &metadata.MemoryReporter{})

	jobs := make([]editmap.AnalysisJob, 6)
	for i := range jobs {
		jobs[i] = job("em-"+string(rune('a'+i)), testsupport.FootageKey)
	}
	for _, res := range mgr.ProcessBatch(context.Background(), jobs) {
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
	}
	if peak := analyzer.Peak(); peak > 2 || peak == 0 {
		t.Fatalf("expected at most 2 concurrent jobs, saw %d", peak)
	}
}

func TestRerunAppendsSecondEditMap(t *testing.T) {
	c, _, _ := testsupport.NewCollaborators()
	reporter := &metadata.MemoryReporter{}
	mgr := workflow.NewManager(workflow.Settings{Workers: 1}, newAnalyzer(t, c), reporter)

	for range 2 {
		if _, err := mgr.RunJob(context.Background(), job("em-1", testsupport.FootageKey)); err != nil {
			t.Fatalf("RunJob: %v", err)
		}
	}
	var maps []editmap.EditMap
	for _, w := range reporter.Writes("em-1") {
		if w.EditMap != nil {
			maps = append(maps, *w.EditMap)
		}
	}
	if len(maps) != 2 {
		t.Fatalf("expected two edit map writes, got %d", len(maps))
	}
	if maps[0].SpeakerCount != maps[1].SpeakerCount || len(maps[0].CutPoints) != len(maps[1].CutPoints) {
		t.Fatalf("reruns should produce equivalent edit maps: %+v vs %+v", maps[0], maps[1])
	}
}

type countingAnalyzer struct {
	delay   time.Duration
	mu      sync.Mutex
	current int
	peak    int
}

func (a *countingAnalyzer) Analyze(ctx context.Context, job editmap.AnalysisJob) (editmap.EditMap, error) {
	a.mu.Lock()
	a.current++
	a.peak = max(a.peak, a.current)
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.current--
		a.mu.Unlock()
	}()
	select {
	case <-time.After(a.delay):
	case <-ctx.Done():
		return editmap.EditMap{}, ctx.Err()
	}
	return editmap.EditMap{EditMapID: job.EditMapID}, nil
}

func (a *countingAnalyzer) Peak() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.peak
}

var _ workflow.Queue = (*queue.Store)(nil)
