package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"cubby/internal/config"
	"cubby/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users need to delete the database after a bump.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different cubby
// version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Status values recorded for a run row.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
	StatusFailed    = "failed"
)

// Record is one history row.
type Record struct {
	ID            string
	Source        string
	Destination   string
	DryRun        bool
	Status        string
	TotalFiles    int
	Organized     int
	Uncategorized int
	Categories    map[string]int
	ErrorMessage  string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Finished reports whether the run has reached a terminal status.
func (r Record) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
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

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
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
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// RecordStart inserts a row for a run entering the running state.
func (s *Store) RecordStart(ctx context.Context, id, source, destination string, dryRun bool, startedAt time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, source, destination, dry_run, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		source,
		destination,
		boolToInt(dryRun),
		StatusRunning,
		startedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordFinish updates the run's terminal status and totals.
func (s *Store) RecordFinish(ctx context.Context, id, status string, total, organized, uncategorized int, categories map[string]int, errMessage string, finishedAt time.Time) error {
	categoriesJSON, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, total_files = ?, organized = ?, uncategorized = ?,
             categories_json = ?, error_message = ?, finished_at = ?
         WHERE id = ?`,
		status,
		total,
		organized,
		uncategorized,
		string(categoriesJSON),
		nullableString(errMessage),
		finishedAt.UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, source, destination, dry_run, status, total_files, organized,
                uncategorized, categories_json, error_message, started_at, finished_at
         FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return records, nil
}

// Describe returns a single run by ID.
func (s *Store) Describe(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, source, destination, dry_run, status, total_files, organized,
                uncategorized, categories_json, error_message, started_at, finished_at
         FROM runs WHERE id = ?`,
		id,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "history", "describe run",
			fmt.Sprintf("no run with id %s", id), nil)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Prune deletes runs that started before the cutoff and returns how many rows
// were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		"DELETE FROM runs WHERE started_at < ?",
		before.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		record         Record
		dryRun         int
		categoriesJSON sql.NullString
		errorMessage   sql.NullString
		startedAt      string
		finishedAt     sql.NullString
	)
	err := row.Scan(
		&record.ID,
		&record.Source,
		&record.Destination,
		&dryRun,
		&record.Status,
		&record.TotalFiles,
		&record.Organized,
		&record.Uncategorized,
		&categoriesJSON,
		&errorMessage,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return Record{}, err
	}

	record.DryRun = dryRun != 0
	record.ErrorMessage = errorMessage.String
	record.Categories = map[string]int{}
	if categoriesJSON.Valid && categoriesJSON.String != "" {
		if err := json.Unmarshal([]byte(categoriesJSON.String), &record.Categories); err != nil {
			return Record{}, fmt.Errorf("unmarshal categories: %w", err)
		}
	}
	record.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse started_at: %w", err)
	}
	if finishedAt.Valid && finishedAt.String != "" {
		record.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return Record{}, fmt.Errorf("parse finished_at: %w", err)
		}
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
