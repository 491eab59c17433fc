package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slated-ai/slated/pkg/models"
)

// Tracker records and queries completed assist requests.
type Tracker interface {
	// Record stores one completed request.
	Record(ctx context.Context, rec models.RequestRecord) error
	// Summary returns aggregates per request kind.
	Summary(ctx context.Context) ([]models.RequestSummary, error)
	// Recent returns the newest records, most recent first.
	Recent(ctx context.Context, limit int) ([]models.RequestRecord, error)
	// Close releases resources.
	Close() error
}

// SQLiteTracker implements Tracker with a SQLite database.
type SQLiteTracker struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS assist_requests (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	target TEXT NOT NULL,
	prompt_chars INTEGER NOT NULL,
	response_chars INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	cached INTEGER NOT NULL DEFAULT 0,
	outcome TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_assist_kind_time ON assist_requests(kind, created_at);
`

// New creates a SQLiteTracker and runs auto-migration.
func New(dbPath string) (*SQLiteTracker, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open tracker db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate tracker db: %w", err)
	}

	return &SQLiteTracker{db: db}, nil
}

// Record stores one completed request.
func (t *SQLiteTracker) Record(ctx context.Context, rec models.RequestRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO assist_requests (id, kind, target, prompt_chars, response_chars, duration_ms, cached, outcome, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Kind, rec.Target, rec.PromptChars, rec.ResponseChars, rec.DurationMs, rec.Cached, rec.Outcome, rec.Error, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record request: %w", err)
	}
	return nil
}

// Summary returns aggregates per request kind.
func (t *SQLiteTracker) Summary(ctx context.Context) ([]models.RequestSummary, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT kind,
		        COUNT(*),
		        SUM(cached),
		        SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		        SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		        CAST(AVG(duration_ms) AS INTEGER)
		 FROM assist_requests GROUP BY kind ORDER BY kind`,
		models.OutcomeError, models.OutcomeTimeout,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize requests: %w", err)
	}
	defer rows.Close()

	var summaries []models.RequestSummary
	for rows.Next() {
		var s models.RequestSummary
		if err := rows.Scan(&s.Kind, &s.Requests, &s.CacheHits, &s.Errors, &s.Timeouts, &s.AvgDurationMs); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Recent returns the newest records, most recent first.
func (t *SQLiteTracker) Recent(ctx context.Context, limit int) ([]models.RequestRecord, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT id, kind, target, prompt_chars, response_chars, duration_ms, cached, outcome, error, created_at
		 FROM assist_requests ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent requests: %w", err)
	}
	defer rows.Close()

	var records []models.RequestRecord
	for rows.Next() {
		var r models.RequestRecord
		if err := rows.Scan(&r.ID, &r.Kind, &r.Target, &r.PromptChars, &r.ResponseChars, &r.DurationMs, &r.Cached, &r.Outcome, &r.Error, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan request record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the database connection.
func (t *SQLiteTracker) Close() error {
	return t.db.Close()
}
