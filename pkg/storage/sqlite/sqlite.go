// Package sqlite provides a SQLite-backed storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/replyscope/replyscope/pkg/storage"
)

// Driver implements storage.Driver using SQLite.
type Driver struct {
	db *sql.DB
}

var _ storage.Driver = (*Driver)(nil)

// NewDriver creates a new SQLite-backed driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	d := &Driver{db: db}
	if err := d.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return d, nil
}

// migrate creates the necessary tables if they don't exist.
func (d *Driver) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		video_title TEXT NOT NULL DEFAULT '',
		template_id TEXT NOT NULL,
		custom_prompt TEXT NOT NULL DEFAULT '',
		protocol TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_task_id ON analyses(task_id);

	CREATE TABLE IF NOT EXISTS task_snapshots (
		task_id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL DEFAULT '',
		video_title TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		comment_count INTEGER NOT NULL DEFAULT 0,
		start_time TEXT NOT NULL DEFAULT '',
		end_time TEXT NOT NULL DEFAULT '',
		synced_at DATETIME NOT NULL
	);
	`

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// SaveAnalysis stores an analysis. If the ID already exists, this is a no-op.
func (d *Driver) SaveAnalysis(ctx context.Context, rec *storage.AnalysisRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	query := `INSERT OR IGNORE INTO analyses
		(id, task_id, video_title, template_id, custom_prompt, protocol, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := d.db.ExecContext(ctx, query,
		rec.ID, rec.TaskID, rec.VideoTitle, rec.TemplateID,
		rec.CustomPrompt, rec.Protocol, rec.Content, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	return nil
}

// GetAnalysis retrieves an analysis by its ID.
func (d *Driver) GetAnalysis(ctx context.Context, id string) (*storage.AnalysisRecord, error) {
	query := `SELECT id, task_id, video_title, template_id, custom_prompt, protocol, content, created_at
		FROM analyses WHERE id = ?`

	rec, err := scanAnalysis(d.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}

	return rec, nil
}

// ListAnalyses returns analyses newest first, optionally for one task.
func (d *Driver) ListAnalyses(ctx context.Context, taskID string) ([]*storage.AnalysisRecord, error) {
	query := `SELECT id, task_id, video_title, template_id, custom_prompt, protocol, content, created_at
		FROM analyses`
	var args []any

	if taskID != "" {
		query += ` WHERE task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var out []*storage.AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}

// PutTask inserts or replaces a task snapshot.
func (d *Driver) PutTask(ctx context.Context, snap *storage.TaskSnapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	query := `INSERT OR REPLACE INTO task_snapshots
		(task_id, video_id, video_title, status, comment_count, start_time, end_time, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := d.db.ExecContext(ctx, query,
		snap.TaskID, snap.VideoID, snap.VideoTitle, snap.Status,
		snap.CommentCount, snap.StartTime, snap.EndTime, snap.SyncedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert task snapshot: %w", err)
	}

	return nil
}

// ListTasks returns every snapshot ordered by task ID.
func (d *Driver) ListTasks(ctx context.Context) ([]*storage.TaskSnapshot, error) {
	query := `SELECT task_id, video_id, video_title, status, comment_count, start_time, end_time, synced_at
		FROM task_snapshots ORDER BY task_id`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query task snapshots: %w", err)
	}
	defer rows.Close()

	var out []*storage.TaskSnapshot
	for rows.Next() {
		var snap storage.TaskSnapshot
		var syncedAt time.Time
		if err := rows.Scan(
			&snap.TaskID, &snap.VideoID, &snap.VideoTitle, &snap.Status,
			&snap.CommentCount, &snap.StartTime, &snap.EndTime, &syncedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task snapshot: %w", err)
		}
		snap.SyncedAt = syncedAt.UTC()
		out = append(out, &snap)
	}

	return out, rows.Err()
}

// Close closes the database connection.
func (d *Driver) Close() error {
	return d.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*storage.AnalysisRecord, error) {
	var rec storage.AnalysisRecord
	var createdAt time.Time

	if err := row.Scan(
		&rec.ID, &rec.TaskID, &rec.VideoTitle, &rec.TemplateID,
		&rec.CustomPrompt, &rec.Protocol, &rec.Content, &createdAt,
	); err != nil {
		return nil, err
	}

	rec.CreatedAt = createdAt.UTC()
	return &rec, nil
}
