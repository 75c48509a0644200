package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores runs in a local database file.
type SQLite struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS digest_runs (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	window_start    TEXT NOT NULL,
	window_end      TEXT NOT NULL,
	language        TEXT NOT NULL DEFAULT '',
	video_count     INTEGER NOT NULL DEFAULT 0,
	document_path   TEXT NOT NULL DEFAULT '',
	notion_page_url TEXT NOT NULL DEFAULT '',
	notion_error    TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS digest_runs_created_at_idx ON digest_runs (created_at);
CREATE TABLE IF NOT EXISTS video_summaries (
	video_id      TEXT NOT NULL,
	language      TEXT NOT NULL,
	title         TEXT NOT NULL,
	channel_title TEXT NOT NULL DEFAULT '',
	url           TEXT NOT NULL,
	published_at  TEXT NOT NULL DEFAULT '',
	summary       TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	PRIMARY KEY (video_id, language)
);`

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SaveRun inserts or replaces a run.
func (s *SQLite) SaveRun(ctx context.Context, r Run) error {
	r, err := prepareRun(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO digest_runs
		(id, title, window_start, window_end, language, video_count, document_path, notion_page_url, notion_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, formatTime(r.WindowStart), formatTime(r.WindowEnd), r.Language,
		r.VideoCount, r.DocumentPath, r.NotionPageURL, r.NotionError, formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("store: save run: %w", err)
	}
	return nil
}

// ListRuns returns the newest runs first.
func (s *SQLite) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, window_start, window_end, language,
		video_count, document_path, notion_page_url, notion_error, created_at
		FROM digest_runs ORDER BY created_at DESC LIMIT ?`, normLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var start, end, created string
		if err := rows.Scan(&r.ID, &r.Title, &start, &end, &r.Language,
			&r.VideoCount, &r.DocumentPath, &r.NotionPageURL, &r.NotionError, &created); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.WindowStart, r.WindowEnd, r.CreatedAt = parseTime(start), parseTime(end), parseTime(created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SaveSummary upserts the summary for (video, language).
func (s *SQLite) SaveSummary(ctx context.Context, sum Summary) error {
	sum, err := prepareSummary(sum)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO video_summaries
		(video_id, language, title, channel_title, url, published_at, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (video_id, language) DO UPDATE SET
			title = excluded.title,
			channel_title = excluded.channel_title,
			url = excluded.url,
			published_at = excluded.published_at,
			summary = excluded.summary,
			created_at = excluded.created_at`,
		sum.VideoID, sum.Language, sum.Title, sum.ChannelTitle, sum.URL,
		formatTime(sum.PublishedAt), sum.Summary, formatTime(sum.CreatedAt))
	if err != nil {
		return fmt.Errorf("store: save summary: %w", err)
	}
	return nil
}

// GetSummary loads the summary for (video, language).
func (s *SQLite) GetSummary(ctx context.Context, videoID, language string) (Summary, error) {
	var sum Summary
	var published, created string
	err := s.db.QueryRowContext(ctx, `SELECT video_id, language, title, channel_title, url,
		published_at, summary, created_at
		FROM video_summaries WHERE video_id = ? AND language = ?`, videoID, language).
		Scan(&sum.VideoID, &sum.Language, &sum.Title, &sum.ChannelTitle, &sum.URL,
			&published, &sum.Summary, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, ErrNotFound
	}
	if err != nil {
		return Summary{}, fmt.Errorf("store: get summary: %w", err)
	}
	sum.PublishedAt, sum.CreatedAt = parseTime(published), parseTime(created)
	return sum, nil
}
