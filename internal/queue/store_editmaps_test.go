package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelscan/internal/editmap"
	"reelscan/internal/queue"
	"reelscan/internal/testsupport"
)

func TestSaveStatusKeepsStartTime(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(5 * time.Minute)

	if err := store.SaveStatus(ctx, "em-1", editmap.StatusUpdate{
		ProcessingStatus:    editmap.StatusProcessing,
		ProcessingStartedAt: &started,
	}); err != nil {
		t.Fatalf("SaveStatus processing: %v", err)
	}
	if err := store.SaveStatus(ctx, "em-1", editmap.StatusUpdate{
		ProcessingStatus:      editmap.StatusFailed,
		ErrorMessage:          "retrieval: object missing",
		ProcessingCompletedAt: &finished,
	}); err != nil {
		t.Fatalf("SaveStatus failed: %v", err)
	}

	got, err := store.Status(ctx, "em-1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got.ProcessingStatus != editmap.StatusFailed || got.ErrorMessage != "retrieval: object missing" {
		t.Fatalf("unexpected status: %#v", got)
	}
	if got.ProcessingStartedAt == nil || !got.ProcessingStartedAt.Equal(started) {
		t.Fatalf("expected start time preserved, got %v", got.ProcessingStartedAt)
	}
	if got.ProcessingCompletedAt == nil || !got.ProcessingCompletedAt.Equal(finished) {
		t.Fatalf("expected completion time, got %v", got.ProcessingCompletedAt)
	}

	if _, err := store.Status(ctx, "missing"); !errors.Is(err, queue.ErrEditMapNotFound) {
		t.Fatalf("expected ErrEditMapNotFound, got %v", err)
	}
}

func TestSaveEditMapKeepsEveryWrite(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := editmap.EditMap{DurationSeconds: 10, GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	second := editmap.EditMap{DurationSeconds: 20, GeneratedAt: time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)}
	for _, em := range []editmap.EditMap{first, second} {
		if err := store.SaveEditMap(ctx, "em-1", em); err != nil {
			t.Fatalf("SaveEditMap: %v", err)
		}
	}

	writes, err := store.EditMapWrites(ctx, "em-1")
	if err != nil || writes != 2 {
		t.Fatalf("expected 2 writes, got %d (%v)", writes, err)
	}
	latest, err := store.LatestEditMap(ctx, "em-1")
	if err != nil {
		t.Fatalf("LatestEditMap: %v", err)
	}
	if latest.DurationSeconds != 20 {
		t.Fatalf("expected latest write, got duration %v", latest.DurationSeconds)
	}
	if _, err := store.LatestEditMap(ctx, "em-2"); !errors.Is(err, queue.ErrEditMapNotFound) {
		t.Fatalf("expected ErrEditMapNotFound, got %v", err)
	}
}
