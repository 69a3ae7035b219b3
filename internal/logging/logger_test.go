package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelscan/internal/config"
	"reelscan/internal/logging"
	"reelscan/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "reelscan.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"hello"`) {
		t.Fatalf("expected json message in log file, got %q", content)
	}
}

func TestConsoleHandlerFormatsComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "workflow").Info("job completed",
		logging.String("status", "completed"),
		logging.String("message", "has spaces"),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO workflow: job completed") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "status=completed") {
		t.Fatalf("expected status attr, got %q", line)
	}
	if !strings.Contains(line, `message="has spaces"`) {
		t.Fatalf("expected quoted value, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", line)
	}
}

func TestJSONHandlerUsesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithJobID(context.Background(), "em-7")
	ctx = services.WithStage(ctx, "scenes")
	logging.WithContext(ctx, logger).Error("stage failed", logging.Error(errors.New("boom")))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if record[logging.FieldJobID] != "em-7" {
		t.Fatalf("expected edit_map_id field, got %v", record)
	}
	if record[logging.FieldStage] != "scenes" {
		t.Fatalf("expected stage field, got %v", record)
	}
	if record["level"] != "error" {
		t.Fatalf("expected lower-case level, got %v", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestAutoFormatFallsBackToJSONForNonTerminals(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "auto", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("probe")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("expected json output for buffer writer, got %q", buf.String())
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "presence degraded", "presence_degraded")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := record[key]; !ok {
			t.Fatalf("expected %s in %v", key, record)
		}
	}
}

func TestWarnWithContextKeepsCallerFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "queue claim lost", "queue_claim_lost",
		logging.Hint("raise the visibility timeout"),
		logging.Impact("job cancelled"),
	)
	if n := strings.Count(buf.String(), `"error_hint"`); n != 1 {
		t.Fatalf("expected one error_hint, got %d in %q", n, buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record[logging.FieldErrorHint] != "raise the visibility timeout" || record[logging.FieldImpact] != "job cancelled" {
		t.Fatalf("caller fields overwritten: %v", record)
	}
	if record[logging.FieldEventType] != "queue_claim_lost" {
		t.Fatalf("expected default event type, got %v", record)
	}
}

func TestFailureExpandsTaxonomy(t *testing.T) {
	err := services.Wrap(services.ErrRetrieval, "retrieval", "fetch", "object missing", errors.New("404"))
	attrs := map[string]string{}
	for _, a := range logging.Failure(err) {
		attrs[a.Key] = a.Value.String()
	}
	if attrs[logging.FieldErrorKind] != "retrieval" || attrs[logging.FieldStage] != "retrieval" {
		t.Fatalf("unexpected failure attrs %v", attrs)
	}
	if attrs[logging.FieldErrorHint] == "" || attrs["error"] == "" {
		t.Fatalf("expected hint and error, got %v", attrs)
	}

	plain := map[string]bool{}
	for _, a := range logging.Failure(errors.New("boom")) {
		plain[a.Key] = true
	}
	if plain[logging.FieldStage] || !plain[logging.FieldErrorKind] {
		t.Fatalf("plain error should carry kind only, got %v", plain)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
