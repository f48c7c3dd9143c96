package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	StatusRunning = "running"
	StatusPassed  = "passed"
	StatusFailed  = "failed"
)

// Run is one job execution recorded in the history database.
type Run struct {
	ID         string
	Workflow   string
	Job        string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
	LogPath    string
}

// Store keeps run history in a sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the run history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		workflow    TEXT NOT NULL,
		job         TEXT NOT NULL,
		status      TEXT NOT NULL,
		started_at  TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		log_path    TEXT
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run in the running state.
func (s *Store) CreateRun(r *Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, workflow, job, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Workflow, r.Job, StatusRunning, r.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// FinishRun marks a run passed or failed and records where its last log went.
func (s *Store) FinishRun(id, status, logPath string, finishedAt time.Time) error {
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, finished_at = ?, log_path = ? WHERE id = ?`,
		status, finishedAt, logPath, id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("finish run: no run with id %s", id)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, workflow, job, status, started_at,
		        COALESCE(finished_at, started_at), COALESCE(log_path, '')
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Workflow, &r.Job, &r.Status,
			&r.StartedAt, &r.FinishedAt, &r.LogPath); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
