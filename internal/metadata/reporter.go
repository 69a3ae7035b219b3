package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"reelscan/internal/config"
	"reelscan/internal/editmap"
	"reelscan/internal/services/rest"
)

// Reporter is the metadata-store collaborator.
type Reporter interface {
	UpdateStatus(ctx context.Context, editMapID string, update editmap.StatusUpdate) error
	WriteEditMap(ctx context.Context, editMapID string, result editmap.EditMap) error
}

var errMissingID = errors.New("edit map id is required")

func checkID(editMapID string) error {
	if strings.TrimSpace(editMapID) == "" {
		return errMissingID
	}
	return nil
}

// LocalStore persists status and edit map rows. queue.Store implements it.
type LocalStore interface {
	SaveStatus(ctx context.Context, editMapID string, update editmap.StatusUpdate) error
	SaveEditMap(ctx context.Context, editMapID string, result editmap.EditMap) error
}

// LocalReporter writes through to a LocalStore.
type LocalReporter struct {
	store LocalStore
}

// NewLocalReporter wraps store.
func NewLocalReporter(store LocalStore) *LocalReporter {
	return &LocalReporter{store: store}
}

// UpdateStatus implements Reporter.
func (r *LocalReporter) UpdateStatus(ctx context.Context, editMapID string, update editmap.StatusUpdate) error {
	if err := checkID(editMapID); err != nil {
		return err
	}
	return r.store.SaveStatus(ctx, editMapID, update)
}

// WriteEditMap implements Reporter.
func (r *LocalReporter) WriteEditMap(ctx context.Context, editMapID string, result editmap.EditMap) error {
	if err := checkID(editMapID); err != nil {
		return err
	}
	return r.store.SaveEditMap(ctx, editMapID, result)
}

// Write is one call recorded by MemoryReporter.
type Write struct {
	EditMapID string
	Status    *editmap.StatusUpdate
	EditMap   *editmap.EditMap
}

// MemoryReporter keeps every write in order. The analyze command uses it to
// capture a one-shot result without a metadata backend.
type MemoryReporter struct {
	mu     sync.Mutex
	writes []Write
}

// UpdateStatus implements Reporter.
func (r *MemoryReporter) UpdateStatus(_ context.Context, editMapID string, update editmap.StatusUpdate) error {
	if err := checkID(editMapID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, Write{EditMapID: editMapID, Status: &update})
	return nil
}

// WriteEditMap implements Reporter.
func (r *MemoryReporter) WriteEditMap(_ context.Context, editMapID string, result editmap.EditMap) error {
	if err := checkID(editMapID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, Write{EditMapID: editMapID, EditMap: &result})
	return nil
}

// Writes returns a copy of the recorded writes, optionally filtered to one
// edit map.
func (r *MemoryReporter) Writes(editMapID string) []Write {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Write, 0, len(r.writes))
	for _, w := range r.writes {
		if editMapID == "" || w.EditMapID == editMapID {
			out = append(out, w)
		}
	}
	return out
}

// LastEditMap returns the most recent edit map written for editMapID.
func (r *MemoryReporter) LastEditMap(editMapID string) (editmap.EditMap, bool) {
	writes := r.Writes(editMapID)
	for i := len(writes) - 1; i >= 0; i-- {
		if writes[i].EditMap != nil {
			return *writes[i].EditMap, true
		}
	}
	return editmap.EditMap{}, false
}

// LastStatus returns the most recent status written for editMapID.
func (r *MemoryReporter) LastStatus(editMapID string) (editmap.StatusUpdate, bool) {
	writes := r.Writes(editMapID)
	for i := len(writes) - 1; i >= 0; i-- {
		if writes[i].Status != nil {
			return *writes[i].Status, true
		}
	}
	return editmap.StatusUpdate{}, false
}

// FromConfig builds the reporter selected by cfg.Metadata. local backs the
// sqlite backend.
func FromConfig(cfg *config.Config, local LocalStore) (Reporter, error) {
	switch cfg.Metadata.Backend {
	case config.MetadataHTTP:
		return NewHTTPReporter(rest.NewClient(rest.Config{
			Name:           "metadata",
			BaseURL:        cfg.Metadata.BaseURL,
			Token:          cfg.Metadata.Token,
			TimeoutSeconds: cfg.Metadata.TimeoutSeconds,
		})), nil
	case config.MetadataSQLite:
		if local == nil {
			return nil, errors.New("sqlite metadata backend requires the queue store")
		}
		return NewLocalReporter(local), nil
	default:
		return nil, fmt.Errorf("unsupported metadata backend %q", cfg.Metadata.Backend)
	}
}
