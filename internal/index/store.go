package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"embyscan/internal/config"
)

const stateKeyLastTriggered = "last_triggered_at"

// Store manages file index persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the index database at the configured path.
// A missing parent directory or unwritable file is a hard error; the daemon
// must not run without durable state.
func Open(cfg *config.Config) (*Store, error) {
	dbPath := cfg.Paths.DBFile
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns the known modification time for every tracked file under
// root.
func (s *Store) Snapshot(ctx context.Context, root string) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, modified_at FROM files WHERE root = ?`, root)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	snapshot := make(map[string]time.Time)
	for rows.Next() {
		var path, modified string
		if err := rows.Scan(&path, &modified); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, modified)
		if err != nil {
			return nil, fmt.Errorf("parse modified_at for %q: %w", path, err)
		}
		snapshot[path] = ts
	}
	return snapshot, rows.Err()
}

// Lookup fetches a single file record, or nil when the path is untracked.
func (s *Store) Lookup(ctx context.Context, path string) (*FileRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT path, root, modified_at, updated_at FROM files WHERE path = ?`, path)

	var rec FileRecord
	var modified, updated string
	err := row.Scan(&rec.Path, &rec.Root, &modified, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup file: %w", err)
	}
	if rec.ModifiedAt, err = time.Parse(time.RFC3339Nano, modified); err != nil {
		return nil, fmt.Errorf("parse modified_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &rec, nil
}

// MarkPending records a change awaiting a trigger. A later change to the same
// path replaces the earlier kind; the most recent state is what Emby should
// hear about.
func (s *Store) MarkPending(ctx context.Context, path, kind string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending (path, kind, queued_at) VALUES (?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET kind = excluded.kind, queued_at = excluded.queued_at`,
		path, kind, now)
	if err != nil {
		return fmt.Errorf("mark pending: %w", err)
	}
	return nil
}

// DiscardPending drops a queued change that is no longer worth
// reporting, such as a never-indexed file deleted before its trigger
// went out.
func (s *Store) DiscardPending(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending WHERE path = ?`, path); err != nil {
		return fmt.Errorf("discard pending: %w", err)
	}
	return nil
}

// Pending returns all changes awaiting a trigger, ordered by queue time.
func (s *Store) Pending(ctx context.Context) ([]PendingChange, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, kind, queued_at FROM pending ORDER BY queued_at, path`)
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()

	var changes []PendingChange
	for rows.Next() {
		var change PendingChange
		var queued string
		if err := rows.Scan(&change.Path, &change.Kind, &queued); err != nil {
			return nil, fmt.Errorf("scan pending row: %w", err)
		}
		if change.QueuedAt, err = time.Parse(time.RFC3339Nano, queued); err != nil {
			return nil, fmt.Errorf("parse queued_at: %w", err)
		}
		changes = append(changes, change)
	}
	return changes, rows.Err()
}

// CommitTrigger atomically applies the outcome of a successful trigger: the
// file index absorbs the changes, their pending rows are removed, and the
// last-trigger timestamp advances. Deleted paths leave the index; created and
// modified paths are upserted with the modification time observed at trigger
// time.
func (s *Store) CommitTrigger(ctx context.Context, changes []PendingChange, modTimes map[string]time.Time, roots map[string]string) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin trigger tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	nowText := now.Format(time.RFC3339Nano)

	for _, change := range changes {
		switch change.Kind {
		case KindDeleted:
			if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, change.Path); err != nil {
				return fmt.Errorf("delete file row: %w", err)
			}
		default:
			modified := now
			if ts, ok := modTimes[change.Path]; ok {
				modified = ts
			}
			root := roots[change.Path]
			_, err := tx.ExecContext(ctx,
				`INSERT INTO files (path, root, modified_at, updated_at) VALUES (?, ?, ?, ?)
                 ON CONFLICT(path) DO UPDATE SET root = excluded.root,
                     modified_at = excluded.modified_at, updated_at = excluded.updated_at`,
				change.Path, root, modified.UTC().Format(time.RFC3339Nano), nowText)
			if err != nil {
				return fmt.Errorf("upsert file row: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending WHERE path = ?`, change.Path); err != nil {
			return fmt.Errorf("clear pending row: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO state (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		stateKeyLastTriggered, nowText)
	if err != nil {
		return fmt.Errorf("record trigger time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trigger: %w", err)
	}
	return nil
}

// SeedFiles bulk-inserts file records without touching pending state or the
// trigger timestamp. Used by the first sweep over an empty index so existing
// library content never produces a trigger.
func (s *Store) SeedFiles(ctx context.Context, root string, files map[string]time.Time) error {
	if len(files) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	nowText := time.Now().UTC().Format(time.RFC3339Nano)
	for path, modified := range files {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO files (path, root, modified_at, updated_at) VALUES (?, ?, ?, ?)
             ON CONFLICT(path) DO UPDATE SET root = excluded.root,
                 modified_at = excluded.modified_at, updated_at = excluded.updated_at`,
			path, root, modified.UTC().Format(time.RFC3339Nano), nowText)
		if err != nil {
			return fmt.Errorf("seed file row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

// HasFiles reports whether any file under root is tracked.
func (s *Store) HasFiles(ctx context.Context, root string) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM files WHERE root = ?`, root).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count files: %w", err)
	}
	return count > 0, nil
}

// LastTriggeredAt returns the time of the last successful trigger, or nil when
// no trigger has fired yet.
func (s *Store) LastTriggeredAt(ctx context.Context) (*time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM state WHERE key = ?`, stateKeyLastTriggered).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read last trigger time: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("parse last trigger time: %w", err)
	}
	return &ts, nil
}

// Stats returns aggregate index diagnostics.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM files`).Scan(&stats.Files); err != nil {
		return Stats{}, fmt.Errorf("count files: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM pending`).Scan(&stats.Pending); err != nil {
		return Stats{}, fmt.Errorf("count pending: %w", err)
	}
	last, err := s.LastTriggeredAt(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.LastTriggeredAt = last
	return stats, nil
}

// Clear removes every file, pending, and state row. Returns the number of
// removed file rows.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin clear tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM files`)
	if err != nil {
		return 0, fmt.Errorf("clear files: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pending`); err != nil {
		return 0, fmt.Errorf("clear pending: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM state`); err != nil {
		return 0, fmt.Errorf("clear state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit clear: %w", err)
	}
	return removed, nil
}

// CheckHealth returns detailed database diagnostics.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&health.SchemaVersion); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("read schema version: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&health.IntegrityCheck); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		health.Error = err.Error()
		return health, err
	}
	health.Files = stats.Files
	health.Pending = stats.Pending
	return health, nil
}
