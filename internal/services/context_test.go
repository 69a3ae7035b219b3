package services_test

import (
	"context"
	"testing"

	"reelscan/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, "em-42")
	ctx = services.WithStage(ctx, "transcription")
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithWorker(ctx, 3)

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "em-42" {
		t.Fatalf("unexpected job id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "transcription" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if slot, ok := services.WorkerFromContext(ctx); !ok || slot != 3 {
		t.Fatalf("unexpected worker slot: %v %v", slot, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithJobID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.JobIDFromContext(ctx); ok {
		t.Fatal("expected no job id value")
	}
}
