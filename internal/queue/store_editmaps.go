package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"reelscan/internal/editmap"
)

// ErrEditMapNotFound indicates no status or result row exists for an edit map.
var ErrEditMapNotFound = errors.New("edit map not found")

// SaveStatus upserts the processing status of an edit map. Timestamps absent
// from update keep their stored values so a completed write does not erase
// the start time recorded by the processing write.
func (s *Store) SaveStatus(ctx context.Context, editMapID string, update editmap.StatusUpdate) error {
	editMapID = strings.TrimSpace(editMapID)
	if editMapID == "" {
		return errors.New("save status: edit map id is required")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO edit_map_status (edit_map_id, processing_status, error_message, processing_started_at, processing_completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(edit_map_id) DO UPDATE SET
			processing_status = excluded.processing_status,
			error_message = excluded.error_message,
			processing_started_at = COALESCE(excluded.processing_started_at, edit_map_status.processing_started_at),
			processing_completed_at = excluded.processing_completed_at,
			updated_at = excluded.updated_at`,
		editMapID,
		string(update.ProcessingStatus),
		nullableString(update.ErrorMessage),
		nullableTime(update.ProcessingStartedAt),
		nullableTime(update.ProcessingCompletedAt),
		formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("save edit map status: %w", err)
	}
	return nil
}

// Status returns the stored status for an edit map.
func (s *Store) Status(ctx context.Context, editMapID string) (*editmap.StatusUpdate, error) {
	var (
		status      string
		errMessage  sql.NullString
		startedRaw  sql.NullString
		finishedRaw sql.NullString
	)
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT processing_status, error_message, processing_started_at, processing_completed_at
		FROM edit_map_status WHERE edit_map_id = ?`, editMapID,
	).Scan(&status, &errMessage, &startedRaw, &finishedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", editMapID, ErrEditMapNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load edit map status: %w", err)
	}
	update := &editmap.StatusUpdate{
		ProcessingStatus: editmap.Status(status),
		ErrorMessage:     errMessage.String,
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		update.ProcessingStartedAt = &started
	}
	if finished, err := parseTimeString(finishedRaw.String); err == nil {
		update.ProcessingCompletedAt = &finished
	}
	return update, nil
}

// SaveEditMap appends one edit map write. Every write is kept; readers take
// the latest.
func (s *Store) SaveEditMap(ctx context.Context, editMapID string, result editmap.EditMap) error {
	editMapID = strings.TrimSpace(editMapID)
	if editMapID == "" {
		return errors.New("save edit map: edit map id is required")
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode edit map: %w", err)
	}
	var generatedAt any
	if !result.GeneratedAt.IsZero() {
		generatedAt = formatTime(result.GeneratedAt)
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO edit_map_results (edit_map_id, edit_map_json, generated_at, written_at) VALUES (?, ?, ?, ?)`,
		editMapID, string(payload), generatedAt, formatTime(s.now()),
	); err != nil {
		return fmt.Errorf("save edit map: %w", err)
	}
	return nil
}

// LatestEditMap returns the most recent edit map written for editMapID.
func (s *Store) LatestEditMap(ctx context.Context, editMapID string) (*editmap.EditMap, error) {
	var payload string
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT edit_map_json FROM edit_map_results WHERE edit_map_id = ? ORDER BY id DESC LIMIT 1`, editMapID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", editMapID, ErrEditMapNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load edit map: %w", err)
	}
	var result editmap.EditMap
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("decode edit map: %w", err)
	}
	return &result, nil
}

// EditMapWrites counts the edit map writes recorded for editMapID.
func (s *Store) EditMapWrites(ctx context.Context, editMapID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM edit_map_results WHERE edit_map_id = ?`, editMapID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count edit map writes: %w", err)
	}
	return count, nil
}
