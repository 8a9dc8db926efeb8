package library

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"riftcap/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped on schema changes; a mismatched database must be
// deleted and recreated.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible
// version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Outcome of a capture while recording is still active.
const OutcomeRecording = "recording"

// Capture is one recorded session.
type Capture struct {
	ID         string
	GameID     string
	QueueType  string
	Phase      string
	OutputPath string
	Outcome    string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Store manages capture persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the capture database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.LibraryDBPath()
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
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to recreate)",
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
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// BeginCapture inserts a new in-progress capture and returns its id.
func (s *Store) BeginCapture(ctx context.Context, phase, queueType string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO captures (id, phase, queue_type, outcome, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, phase, queueType, OutcomeRecording, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert capture: %w", err)
	}
	return id, nil
}

// FinishCapture records the final state of a capture.
func (s *Store) FinishCapture(ctx context.Context, id, gameID, outputPath, outcome string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE captures SET game_id = ?, output_path = ?, outcome = ?, finished_at = ? WHERE id = ?`,
		gameID, outputPath, outcome, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("finish capture: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish capture result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish capture: no capture with id %s", id)
	}
	return nil
}

// Recent returns the most recent captures, newest first. limit <= 0 returns
// every capture.
func (s *Store) Recent(ctx context.Context, limit int) ([]Capture, error) {
	query := `SELECT id, game_id, queue_type, phase, output_path, outcome, started_at, finished_at
		FROM captures ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	var captures []Capture
	for rows.Next() {
		capture, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		captures = append(captures, capture)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate captures: %w", err)
	}
	return captures, nil
}

func scanCapture(rows *sql.Rows) (Capture, error) {
	var (
		capture    Capture
		startedAt  string
		finishedAt sql.NullString
	)
	if err := rows.Scan(&capture.ID, &capture.GameID, &capture.QueueType, &capture.Phase,
		&capture.OutputPath, &capture.Outcome, &startedAt, &finishedAt); err != nil {
		return Capture{}, fmt.Errorf("scan capture: %w", err)
	}
	started, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return Capture{}, fmt.Errorf("parse started_at: %w", err)
	}
	capture.StartedAt = started
	if finishedAt.Valid && finishedAt.String != "" {
		finished, err := time.Parse(time.RFC3339, finishedAt.String)
		if err != nil {
			return Capture{}, fmt.Errorf("parse finished_at: %w", err)
		}
		capture.FinishedAt = &finished
	}
	return capture, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
