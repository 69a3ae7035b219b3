package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelscan/internal/api"
	"reelscan/internal/editmap"
	"reelscan/internal/testsupport"
	"reelscan/internal/workflow"
)

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestEnqueueAndQueueCommands(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := testsupport.WriteConfigFile(t, cfg)

	out, err := runCLI(t, configPath, "enqueue", "raw/ep1.mp4", "--edit-map-id", "em-1", "--episode-id", "ep-1")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if !strings.Contains(out, "edit map em-1") {
		t.Fatalf("unexpected enqueue output %q", out)
	}
	if _, err := runCLI(t, configPath, "enqueue", "raw/ep2.mp4"); err == nil {
		t.Fatal("enqueue without --edit-map-id should fail")
	}
	if _, err := runCLI(t, configPath, "enqueue", "raw/ep2.mp4", "--edit-map-id", "em-2"); err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	out, err = runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	for _, want := range []string{"em-1", "em-2", "raw/ep1.mp4", "Pending"} {
		if !strings.Contains(out, want) {
			t.Fatalf("queue list missing %q:\n%s", want, out)
		}
	}

	// Fail one job directly through the store so retry has work.
	store := testsupport.MustOpenStore(t, cfg)
	claimed, err := store.Claim(context.Background(), "test", 1, time.Minute)
	if err != nil || len(claimed) != 1 {
		t.Fatalf("Claim: %v, %d", err, len(claimed))
	}
	if err := store.Ack(context.Background(), claimed[0].ID, claimed[0].ClaimToken, os.ErrNotExist); err != nil {
		t.Fatalf("Ack: %v", err)
	}

	out, err = runCLI(t, configPath, "queue", "list", "--status", "failed", "--json")
	if err != nil {
		t.Fatalf("queue list --json: %v", err)
	}
	var listed api.QueueListResponse
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list json: %v\n%s", err, out)
	}
	if len(listed.Items) != 1 || listed.Items[0].ErrorMessage == "" {
		t.Fatalf("expected one failed job with an error, got %+v", listed.Items)
	}

	if _, err := runCLI(t, configPath, "queue", "list", "--status", "bogus"); err == nil {
		t.Fatal("unknown status should be rejected")
	}

	out, err = runCLI(t, configPath, "queue", "retry")
	if err != nil || !strings.Contains(out, "Retried 1 failed jobs") {
		t.Fatalf("queue retry: %v, %q", err, out)
	}

	out, err = runCLI(t, configPath, "queue", "status")
	if err != nil || !strings.Contains(out, "Pending") {
		t.Fatalf("queue status: %v, %q", err, out)
	}

	out, err = runCLI(t, configPath, "queue", "clear")
	if err != nil || !strings.Contains(out, "Cleared 2 queued jobs") {
		t.Fatalf("queue clear: %v, %q", err, out)
	}
	remaining, err := store.List(context.Background())
	if err != nil || len(remaining) != 0 {
		t.Fatalf("expected empty queue, got %d (%v)", len(remaining), err)
	}
	if _, err := runCLI(t, configPath, "queue", "clear", "--completed", "--failed"); err == nil {
		t.Fatal("conflicting clear flags should fail")
	}
}

func TestQueueHealthCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := testsupport.WriteConfigFile(t, cfg)

	out, err := runCLI(t, configPath, "queue", "health")
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	if !strings.Contains(out, cfg.QueuePath()) || !strings.Contains(out, "Integrity check") || !strings.Contains(out, "Expired claims") {
		t.Fatalf("unexpected health output:\n%s", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "reelscan.toml")

	out, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected init output %q", out)
	}
	if _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}

	t.Setenv("REELSCAN_METADATA_TOKEN", "secret-token")
	cfg := testsupport.NewConfig(t)
	configPath := testsupport.WriteConfigFile(t, cfg)
	out, err = runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "secret-token") {
		t.Fatalf("config show leaked a token:\n%s", out)
	}
	if !strings.Contains(out, "[workflow]") {
		t.Fatalf("config show missing sections:\n%s", out)
	}
}

func TestAnalyzeRequiresInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := testsupport.WriteConfigFile(t, cfg)
	if _, err := runCLI(t, configPath, "analyze"); err == nil {
		t.Fatal("analyze without a key or --file should fail")
	}
	if _, err := runCLI(t, configPath, "analyze", "raw/a.mp4", "--file", "a.mp4"); err == nil {
		t.Fatal("analyze with both a key and --file should fail")
	}
	if _, err := runCLI(t, configPath, "analyze", "raw/a.mp4", "raw/b.mp4", "--edit-map-id", "em-1"); err == nil {
		t.Fatal("--edit-map-id with several keys should fail")
	}
}

func TestBuildAnalyzeResultsCountsFailures(t *testing.T) {
	results := []workflow.JobResult{
		{Job: editmap.AnalysisJob{StorageKey: "raw/a.mp4"}, EditMap: &editmap.EditMap{EditMapID: "em-a"}},
		{Job: editmap.AnalysisJob{StorageKey: "raw/b.mp4"}, Err: errors.New("object not found")},
	}
	out, failed := buildAnalyzeResults(results)
	if failed != 1 || len(out) != 2 {
		t.Fatalf("expected 1 failure of 2, got %d of %d", failed, len(out))
	}
	if out[0].EditMap == nil || out[0].Error != "" {
		t.Fatalf("first key should carry its edit map, got %+v", out[0])
	}
	if out[1].StorageKey != "raw/b.mp4" || out[1].Error != "object not found" || out[1].EditMap != nil {
		t.Fatalf("second key should carry its error, got %+v", out[1])
	}
}

func TestFormatStatusLabel(t *testing.T) {
	tests := map[string]string{
		"pending":   "Pending",
		"completed": "Completed",
		"":          "",
	}
	for input, want := range tests {
		if got := formatStatusLabel(input); got != want {
			t.Fatalf("formatStatusLabel(%q) = %q, want %q", input, got, want)
		}
	}
	if got := truncate(strings.Repeat("x", 60), 10); len([]rune(got)) != 10 {
		t.Fatalf("truncate length = %d", len([]rune(got)))
	}
}

func TestBuildQueueStatusViewTotals(t *testing.T) {
	view := buildQueueStatusView(map[string]int{"pending": 2, "failed": 1, "completed": 4})
	if len(view.rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(view.rows))
	}
	if view.rows[0][0] != "Completed" || view.rows[2][0] != "Pending" {
		t.Fatalf("rows not sorted by status: %v", view.rows)
	}
	if len(view.footer) != 2 || view.footer[1] != "7" {
		t.Fatalf("unexpected footer %v", view.footer)
	}
	if out := view.render(); !strings.Contains(out, "Pending") || !strings.Contains(out, "7") {
		t.Fatalf("render missing rows or total:\n%s", out)
	}

	empty := buildQueueStatusView(nil)
	if len(empty.rows) != 0 || empty.footer != nil {
		t.Fatalf("expected empty view, got %+v", empty)
	}
}
