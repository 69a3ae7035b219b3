package queue

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const jobColumns = `id, edit_map_id, raw_footage_id, storage_key, episode_id, status, attempts,
	claim_token, claimed_by, visible_until, last_error, created_at, updated_at`

func scanMessage(scanner interface{ Scan(dest ...any) error }) (*Message, error) {
	var (
		msg          Message
		rawFootageID sql.NullString
		episodeID    sql.NullString
		claimToken   sql.NullString
		claimedBy    sql.NullString
		visibleUntil sql.NullInt64
		lastError    sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&msg.ID,
		&msg.Job.EditMapID,
		&rawFootageID,
		&msg.Job.StorageKey,
		&episodeID,
		&msg.Status,
		&msg.Attempts,
		&claimToken,
		&claimedBy,
		&visibleUntil,
		&lastError,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	msg.Job.RawFootageID = rawFootageID.String
	msg.Job.EpisodeID = episodeID.String
	msg.ClaimToken = claimToken.String
	msg.ClaimedBy = claimedBy.String
	msg.LastError = lastError.String
	if visibleUntil.Valid {
		deadline := fromMillis(visibleUntil.Int64)
		msg.VisibleUntil = &deadline
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		msg.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		msg.UpdatedAt = updated
	}
	return &msg, nil
}

func scanMessages(rows *sql.Rows) ([]*Message, error) {
	defer rows.Close()
	var out []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = string(status)
	}
	return args
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
