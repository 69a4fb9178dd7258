// Package journal keeps an sqlite audit trail of projects and provider
// calls. Session state is never restored from it.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/manash/retouch/internal/session"
	"github.com/manash/retouch/pkg/models"
)

const FileName = "journal.db"

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS generations (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    provider TEXT NOT NULL,
    model TEXT,
    tier TEXT NOT NULL,
    prompt TEXT NOT NULL,
    has_base INTEGER NOT NULL DEFAULT 0,
    has_reference INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    error TEXT,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    output_bytes INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_generations_project_id ON generations(project_id);
CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at);
`

// Entry is one recorded provider call.
type Entry struct {
	ID           string
	ProjectID    string
	Provider     models.ProviderType
	Model        string
	Tier         models.ModelTier
	Prompt       string
	HasBase      bool
	HasReference bool
	Status       string
	Error        string
	Duration     time.Duration
	OutputBytes  int
	CreatedAt    time.Time
}

type Stats struct {
	Projects    int
	Generations int
	Failures    int
	OutputBytes int64
}

type Journal struct {
	db *sql.DB
}

var _ session.Recorder = (*Journal)(nil)

func Open(dbPath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &Journal{db: db}, nil
}

// OpenDir opens the journal file inside dir.
func OpenDir(dir string) (*Journal, error) {
	return Open(filepath.Join(dir, FileName))
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) StartProject(ctx context.Context, projectID string, at time.Time) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO projects (id, started_at) VALUES (?, ?)`,
		projectID, at)
	return err
}

func (j *Journal) RecordGeneration(ctx context.Context, rec *session.Record) error {
	status := StatusOK
	var errText sql.NullString
	if rec.Err != nil {
		status = StatusFailed
		errText = sql.NullString{String: rec.Err.Error(), Valid: true}
	}

	// Generations can be recorded for a project that was never announced.
	if err := j.StartProject(ctx, rec.ProjectID, rec.CreatedAt); err != nil {
		return err
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO generations (id, project_id, provider, model, tier, prompt, has_base, has_reference,
		     status, error, duration_ms, output_bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ProjectID, rec.Provider.String(), rec.Model, rec.Tier.String(), rec.Prompt,
		rec.HasBase, rec.HasReference, status, errText, rec.Duration.Milliseconds(), rec.OutputBytes, rec.CreatedAt)
	return err
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, project_id, provider, model, tier, prompt, has_base, has_reference,
		        status, error, duration_ms, output_bytes, created_at
		 FROM generations ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var provider, tier string
		var model, errText sql.NullString
		var durationMS int64
		if err := rows.Scan(&e.ID, &e.ProjectID, &provider, &model, &tier, &e.Prompt,
			&e.HasBase, &e.HasReference, &e.Status, &errText, &durationMS, &e.OutputBytes, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Provider = models.ProviderType(provider)
		e.Tier = models.ModelTier(tier)
		e.Model = model.String
		e.Error = errText.String
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (j *Journal) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&s.Projects); err != nil {
		return nil, err
	}
	row := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(output_bytes), 0)
		 FROM generations`, StatusFailed)
	if err := row.Scan(&s.Generations, &s.Failures, &s.OutputBytes); err != nil {
		return nil, err
	}
	return &s, nil
}
