package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Claim leases up to limit deliverable jobs to owner for the visibility
// window. Pending jobs and claimed jobs whose deadline has passed are both
// deliverable; each claim gets a fresh token and bumps the attempt count.
func (s *Store) Claim(ctx context.Context, owner string, limit int, visibility time.Duration) ([]*Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	if visibility <= 0 {
		return nil, errors.New("claim visibility must be positive")
	}
	owner = strings.TrimSpace(owner)

	var claimed []*Message
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		claimed = claimed[:0]
		now := s.now()
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM analysis_jobs
			WHERE status = ? OR (status = ? AND visible_until <= ?)
			ORDER BY id LIMIT ?`,
			StatusPending, StatusClaimed, toMillis(now), limit,
		)
		if err != nil {
			return err
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		deadline := toMillis(now.Add(visibility))
		stamp := formatTime(now)
		for _, id := range ids {
			token := uuid.NewString()
			if _, err := tx.ExecContext(ctx,
				`UPDATE analysis_jobs
				SET status = ?, claim_token = ?, claimed_by = ?, visible_until = ?, attempts = attempts + 1, updated_at = ?
				WHERE id = ?`,
				StatusClaimed, token, nullableString(owner), deadline, stamp, id,
			); err != nil {
				return err
			}
			msg, err := scanMessage(tx.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM analysis_jobs WHERE id = ?`, id))
			if err != nil {
				return err
			}
			claimed = append(claimed, msg)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim jobs: %w", err)
	}
	return claimed, nil
}

// Extend pushes a claim's deadline to now+visibility. It returns ErrClaimLost
// when token no longer owns the job. An expired claim that nobody has
// reclaimed yet still extends.
func (s *Store) Extend(ctx context.Context, id int64, token string, visibility time.Duration) error {
	now := s.now()
	res, err := s.execWithRetry(ctx,
		`UPDATE analysis_jobs SET visible_until = ?, updated_at = ?
		WHERE id = ? AND status = ? AND claim_token = ?`,
		toMillis(now.Add(visibility)), formatTime(now), id, StatusClaimed, token,
	)
	if err != nil {
		return fmt.Errorf("extend claim: %w", err)
	}
	return requireOne(res, id)
}

// Ack finishes a claimed job. A nil jobErr marks it completed; otherwise it is
// marked failed with the error text recorded.
func (s *Store) Ack(ctx context.Context, id int64, token string, jobErr error) error {
	status := StatusCompleted
	var lastError any
	if jobErr != nil {
		status = StatusFailed
		lastError = jobErr.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE analysis_jobs
		SET status = ?, last_error = ?, claim_token = NULL, visible_until = NULL, updated_at = ?
		WHERE id = ? AND status = ? AND claim_token = ?`,
		status, lastError, formatTime(s.now()), id, StatusClaimed, token,
	)
	if err != nil {
		return fmt.Errorf("ack job: %w", err)
	}
	return requireOne(res, id)
}

// Release returns a claimed job to pending so it is redelivered immediately.
func (s *Store) Release(ctx context.Context, id int64, token, reason string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE analysis_jobs
		SET status = ?, last_error = ?, claim_token = NULL, claimed_by = NULL, visible_until = NULL, updated_at = ?
		WHERE id = ? AND status = ? AND claim_token = ?`,
		StatusPending, nullableString(reason), formatTime(s.now()), id, StatusClaimed, token,
	)
	if err != nil {
		return fmt.Errorf("release job: %w", err)
	}
	return requireOne(res, id)
}

// ReleaseOwner returns every job claimed by owner to pending.
func (s *Store) ReleaseOwner(ctx context.Context, owner, reason string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE analysis_jobs
		SET status = ?, last_error = ?, claim_token = NULL, claimed_by = NULL, visible_until = NULL, updated_at = ?
		WHERE status = ? AND claimed_by = ?`,
		StatusPending, nullableString(reason), formatTime(s.now()), StatusClaimed, owner,
	)
	if err != nil {
		return 0, fmt.Errorf("release owner claims: %w", err)
	}
	return res.RowsAffected()
}

// ReclaimExpired returns claimed jobs whose deadline has passed to pending.
// Claim already redelivers expired jobs; this makes them visible as pending
// in listings and stats.
func (s *Store) ReclaimExpired(ctx context.Context) (int64, error) {
	now := s.now()
	res, err := s.execWithRetry(ctx,
		`UPDATE analysis_jobs
		SET status = ?, claim_token = NULL, claimed_by = NULL, visible_until = NULL, updated_at = ?
		WHERE status = ? AND visible_until <= ?`,
		StatusPending, formatTime(now), StatusClaimed, toMillis(now),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim expired claims: %w", err)
	}
	return res.RowsAffected()
}

func requireOne(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("job %d: %w", id, ErrClaimLost)
	}
	return nil
}
