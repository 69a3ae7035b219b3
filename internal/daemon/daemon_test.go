package daemon_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"reelscan/internal/api"
	"reelscan/internal/config"
	"reelscan/internal/daemon"
	"reelscan/internal/metadata"
	"reelscan/internal/metrics"
	"reelscan/internal/pipeline"
	"reelscan/internal/queue"
	"reelscan/internal/testsupport"
	"reelscan/internal/workflow"
)

func newDaemon(t *testing.T, cfg *config.Config, store *queue.Store) *daemon.Daemon {
	t.Helper()
	c, _, _ := testsupport.NewCollaborators()
	analyzer, err := pipeline.NewAnalyzer(c, pipeline.Options{ScratchRoot: cfg.Paths.ScratchDir})
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	mm := metrics.NewManager()
	mgr := workflow.NewManager(workflow.Settings{
		Workers:      1,
		PollInterval: 10 * time.Millisecond,
	}, analyzer, metadata.NewLocalReporter(store), workflow.WithQueue(store), workflow.WithMetrics(mm))
	d, err := daemon.New(cfg, store, nil, mgr, mm)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Metrics.Enabled = false
	store := testsupport.MustOpenStore(t, cfg)
	d := newDaemon(t, cfg, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Status().Running {
		t.Fatal("expected daemon to report running")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}
	if d.Addr() != "" {
		t.Fatalf("listener should be disabled, got %q", d.Addr())
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondDaemonCannotTakeLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Metrics.Enabled = false
	store := testsupport.MustOpenStore(t, cfg)
	first := newDaemon(t, cfg, store)
	second := newDaemon(t, cfg, store)

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	err := second.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "another reelscan daemon") {
		t.Fatalf("expected lock conflict, got %v", err)
	}
	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("second Start after release: %v", err)
	}
	second.Stop()
}

func TestDaemonHTTPEndpoints(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Metrics.Enabled = true
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.Enqueue(t, store, "em-1", testsupport.FootageKey)
	d := newDaemon(t, cfg, store)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()
	base := "http://" + d.Addr()

	if code := getJSON(t, base+"/healthz", nil); code != http.StatusOK {
		t.Fatalf("healthz status %d", code)
	}

	var status api.DaemonStatus
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status = api.DaemonStatus{}
		if getJSON(t, base+"/api/status", &status) == http.StatusOK && status.Workflow.QueueStats["completed"] == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !status.Running || status.Workflow.QueueStats["completed"] != 1 {
		t.Fatalf("expected one completed job, got %+v", status)
	}

	var em api.EditMapResponse
	if code := getJSON(t, base+"/api/edit-maps/em-1", &em); code != http.StatusOK {
		t.Fatalf("edit map status %d", code)
	}
	if em.Status.Status != "completed" || em.EditMap == nil || em.EditMap.EditMapID != "em-1" {
		t.Fatalf("unexpected edit map response: %+v", em)
	}

	var list api.QueueListResponse
	if code := getJSON(t, base+"/api/queue?status=completed", &list); code != http.StatusOK || len(list.Items) != 1 {
		t.Fatalf("queue list: code %d, items %+v", code, list.Items)
	}
	if code := getJSON(t, base+"/api/queue?status=bogus", nil); code != http.StatusBadRequest {
		t.Fatalf("bogus status should be rejected, got %d", code)
	}
	if code := getJSON(t, base+"/api/edit-maps/unknown", nil); code != http.StatusNotFound {
		t.Fatalf("unknown edit map should 404, got %d", code)
	}

	resp, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "reelscan_jobs_in_flight") {
		t.Fatalf("metrics output missing in-flight gauge:\n%s", body)
	}
}
