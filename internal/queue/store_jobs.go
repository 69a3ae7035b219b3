package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"reelscan/internal/editmap"
)

// Enqueue validates and stores a job descriptor as pending.
func (s *Store) Enqueue(ctx context.Context, job editmap.AnalysisJob) (*Message, error) {
	job.EditMapID = strings.TrimSpace(job.EditMapID)
	job.StorageKey = strings.TrimSpace(job.StorageKey)
	if err := job.Validate(); err != nil {
		return nil, err
	}
	now := formatTime(s.now())
	res, err := s.execWithRetry(ctx,
		`INSERT INTO analysis_jobs (edit_map_id, raw_footage_id, storage_key, episode_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.EditMapID,
		nullableString(job.RawFootageID),
		job.StorageKey,
		nullableString(job.EpisodeID),
		StatusPending,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job by id, returning ErrJobNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Message, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM analysis_jobs WHERE id = ?`, id)
	msg, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %d: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return msg, nil
}

// List returns jobs filtered by status (all jobs when none given), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Message, error) {
	query := `SELECT ` + jobColumns + ` FROM analysis_jobs`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		args = statusArgs(statuses)
	}
	query += ` ORDER BY id`
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return scanMessages(rows)
}

// Retry moves failed jobs back to pending. With no ids every failed job is
// retried. It returns the number of jobs reset.
func (s *Store) Retry(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE analysis_jobs
		SET status = ?, claim_token = NULL, claimed_by = NULL, visible_until = NULL, last_error = NULL, updated_at = ?
		WHERE status = ?`
	args := []any{StatusPending, formatTime(s.now()), StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		args = append(args, idArgs(ids)...)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry jobs: %w", err)
	}
	return res.RowsAffected()
}

// Remove deletes a single job regardless of status.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM analysis_jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("remove job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Clear deletes jobs in the given statuses, or every job when none are given.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	query := `DELETE FROM analysis_jobs`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		args = statusArgs(statuses)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}
