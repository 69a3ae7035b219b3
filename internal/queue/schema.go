package queue

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in SQLite's user_version pragma. Bump it whenever
// schema.sql changes; there are no in-place migrations, so older databases
// must be recreated.
const schemaVersion = 1

// ErrSchemaMismatch reports a database created by a different schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// initSchema creates the tables in a fresh database and otherwise verifies
// the recorded version. A version of zero with existing job tables means the
// file was not created by this store.
func (s *Store) initSchema(ctx context.Context) error {
	version, err := s.userVersion(ctx)
	if err != nil {
		return err
	}
	switch version {
	case schemaVersion:
		return nil
	case 0:
		var tables int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'analysis_jobs'",
		).Scan(&tables); err != nil {
			return fmt.Errorf("inspect queue database: %w", err)
		}
		if tables > 0 {
			return fmt.Errorf("%w: %s has job tables but no schema version (delete it to recreate)", ErrSchemaMismatch, s.path)
		}
		return s.createSchema(ctx)
	default:
		return fmt.Errorf("%w: %s is at version %d, this build expects %d (delete it to recreate)",
			ErrSchemaMismatch, s.path, version, schemaVersion)
	}
}

func (s *Store) userVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
