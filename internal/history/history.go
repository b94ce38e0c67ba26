// Package history records run outcomes in a local SQLite database.
package history

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"opendnsctl/internal/config"
)

// Store persists run outcomes.
type Store struct {
	db *sql.DB
}

// Run is one workflow run's outcome.
type Run struct {
	ID                int64
	Mode              string
	StartedAt         time.Time
	FinishedAt        time.Time
	Success           bool
	Error             string
	CategoriesChanged int
	Artifacts         []string
}

// DefaultPath returns the run-history database location.
func DefaultPath() (string, error) {
	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// New opens (and if needed creates) the history database.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mode TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		success BOOLEAN NOT NULL,
		error TEXT,
		categories_changed INTEGER,
		artifacts TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts a run outcome.
func (s *Store) Record(r Run) error {
	artifactsJSON, _ := json.Marshal(r.Artifacts)

	_, err := s.db.Exec(`
		INSERT INTO runs (mode, started_at, finished_at, success, error, categories_changed, artifacts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.Mode, r.StartedAt, r.FinishedAt, r.Success, r.Error, r.CategoriesChanged, string(artifactsJSON))

	return err
}

// Recent returns the newest runs, most recent first.
func (s *Store) Recent(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, mode, started_at, finished_at, success, error, categories_changed, artifacts
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var artifactsJSON string
		if err := rows.Scan(&r.ID, &r.Mode, &r.StartedAt, &r.FinishedAt,
			&r.Success, &r.Error, &r.CategoriesChanged, &artifactsJSON); err != nil {
			return nil, err
		}
		if artifactsJSON != "" {
			_ = json.Unmarshal([]byte(artifactsJSON), &r.Artifacts)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
