package testsupport

import (
	"context"
	"testing"

	"reelscan/internal/config"
	"reelscan/internal/editmap"
	"reelscan/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Enqueue stores a job descriptor for tests using the provided store.
func Enqueue(t testing.TB, store *queue.Store, editMapID, storageKey string) *queue.Message {
	t.Helper()

	msg, err := store.Enqueue(context.Background(), editmap.AnalysisJob{
		EditMapID:    editMapID,
		RawFootageID: "footage-" + editMapID,
		StorageKey:   storageKey,
		EpisodeID:    "episode-1",
	})
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return msg
}
