package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"registration-analytics/internal/model"
)

// ErrRunNotFound is returned when no run has the requested id
var ErrRunNotFound = errors.New("run not found")

// Store records registration loads in sqlite
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at dbPath
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	runTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		collection TEXT,
		status TEXT,
		loaded INTEGER DEFAULT 0,
		accepted INTEGER DEFAULT 0,
		rejected INTEGER DEFAULT 0,
		error TEXT DEFAULT '',
		started_at DATETIME,
		finished_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		record_index INTEGER,
		record_id TEXT,
		field TEXT,
		message TEXT,
		created_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_run_errors_run_id ON run_errors(run_id);
	`

	for _, stmt := range []string{runTable, errorTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a new run in the pending state
func (s *Store) SaveRun(ctx context.Context, runID, collection string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, collection, status, started_at) VALUES (?, ?, ?, ?)`,
		runID, collection, model.RunStatusPending, time.Now().UTC())
	return err
}

// UpdateRunStatus updates a run's status
func (s *Store) UpdateRunStatus(ctx context.Context, runID, status string) error {
	return s.exec(ctx, runID, `UPDATE runs SET status = ? WHERE id = ?`, status, runID)
}

// FinishRun stores a run's final status and counts. A non-nil runErr marks
// the run failed.
func (s *Store) FinishRun(ctx context.Context, runID string, loaded, accepted, rejected int, runErr error) error {
	status, message := model.RunStatusCompleted, ""
	if runErr != nil {
		status, message = model.RunStatusFailed, runErr.Error()
	}
	return s.exec(ctx, runID,
		`UPDATE runs SET status = ?, loaded = ?, accepted = ?, rejected = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, loaded, accepted, rejected, message, time.Now().UTC(), runID)
}

func (s *Store) exec(ctx context.Context, runID, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// SaveRunErrors records rejected records for a run in one transaction
func (s *Store) SaveRunErrors(ctx context.Context, runErrors []model.RunError) error {
	if len(runErrors) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_errors (run_id, record_index, record_id, field, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, e := range runErrors {
		if _, err := stmt.ExecContext(ctx, e.RunID, e.RecordIndex, e.RecordID, e.Field, e.Message, now); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ListRuns returns runs, newest first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, collection, status, loaded, accepted, rejected, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]model.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches one run
func (s *Store) GetRun(ctx context.Context, runID string) (model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, collection, status, loaded, accepted, rejected, error, started_at, finished_at
		 FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// GetRunErrors returns the records rejected in a run, in input order
func (s *Store) GetRunErrors(ctx context.Context, runID string) ([]model.RunError, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, record_index, record_id, field, message, created_at
		 FROM run_errors WHERE run_id = ? ORDER BY record_index, id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.RunError, 0)
	for rows.Next() {
		var e model.RunError
		if err := rows.Scan(&e.RunID, &e.RecordIndex, &e.RecordID, &e.Field, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (model.Run, error) {
	var run model.Run
	var finished sql.NullTime
	if err := row.Scan(&run.ID, &run.Collection, &run.Status, &run.Loaded, &run.Accepted,
		&run.Rejected, &run.Error, &run.StartedAt, &finished); err != nil {
		return model.Run{}, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}
