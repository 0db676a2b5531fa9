// Package history persists build outcomes in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
)

// TaskRecord is one named task outcome within a recorded build.
type TaskRecord struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

// Entry is one recorded build.
type Entry struct {
	ID             int64
	BuildID        string
	Project        string
	StartedAt      time.Time
	Duration       time.Duration
	UnbundledFiles int64
	BundledFiles   int64
	Status         string // "ok" or "failed"
	Error          string
	Tasks          []TaskRecord
}

// Store is a SQLite-backed build history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (and if necessary creates) the history database at path.
// Use ":memory:" for an ephemeral store.
func NewStore(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "create history directory").
					WithContext("path", dir).Build()
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "open history database").
			WithContext("path", path).Build()
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "initialize history schema").
			WithContext("path", path).Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		project TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		unbundled_files INTEGER NOT NULL,
		bundled_files INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		tasks TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_builds_build_id ON builds(build_id);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one build outcome.
func (s *Store) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasksJSON, err := json.Marshal(e.Tasks)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryHistory, "encode task records").Build()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, project, started_at, duration_ms, unbundled_files, bundled_files, status, error, tasks)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.BuildID, e.Project, e.StartedAt.Unix(), e.Duration.Milliseconds(),
		e.UnbundledFiles, e.BundledFiles, e.Status, e.Error, string(tasksJSON),
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryHistory, "insert build record").
			WithContext("build_id", e.BuildID).Build()
	}
	return nil
}

// List returns the most recent builds, newest first. limit <= 0 means a
// default of 20.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, project, started_at, duration_ms, unbundled_files, bundled_files, status, error, tasks
		 FROM builds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "query builds").Build()
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var startedUnix, durationMS int64
		var errText, tasksJSON sql.NullString

		if err := rows.Scan(&e.ID, &e.BuildID, &e.Project, &startedUnix, &durationMS,
			&e.UnbundledFiles, &e.BundledFiles, &e.Status, &errText, &tasksJSON); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "scan build record").Build()
		}

		e.StartedAt = time.Unix(startedUnix, 0)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Error = errText.String
		if tasksJSON.Valid && tasksJSON.String != "" {
			if err := json.Unmarshal([]byte(tasksJSON.String), &e.Tasks); err != nil {
				return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "decode task records").
					WithContext("build_id", e.BuildID).Build()
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "iterate build records").Build()
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
