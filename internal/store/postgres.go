package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// pgxPool is the subset of *pgxpool.Pool the store uses.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Postgres stores runs in PostgreSQL.
type Postgres struct {
	pool pgxPool
}

// OpenPostgres creates a pgx pool and runs schema migrations.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 5
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := &Postgres{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("store: postgres connected", slog.String("addr", config.ConnConfig.Host))
	return db, nil
}

func (db *Postgres) Close() error {
	db.pool.Close()
	return nil
}

func (db *Postgres) migrate(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := db.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply %s: %w", entry.Name(), err)
		}
		slog.Debug("store: migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

// SaveRun inserts or replaces a run.
func (db *Postgres) SaveRun(ctx context.Context, r Run) error {
	r, err := prepareRun(r)
	if err != nil {
		return err
	}
	_, err = db.pool.Exec(ctx, `INSERT INTO digest_runs
		(id, title, window_start, window_end, language, video_count, document_path, notion_page_url, notion_error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			video_count = EXCLUDED.video_count,
			document_path = EXCLUDED.document_path,
			notion_page_url = EXCLUDED.notion_page_url,
			notion_error = EXCLUDED.notion_error`,
		r.ID, r.Title, r.WindowStart, r.WindowEnd, r.Language,
		r.VideoCount, r.DocumentPath, r.NotionPageURL, r.NotionError, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: save run: %w", err)
	}
	return nil
}

// ListRuns returns the newest runs first.
func (db *Postgres) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, title, window_start, window_end, language,
		video_count, document_path, notion_page_url, notion_error, created_at
		FROM digest_runs ORDER BY created_at DESC LIMIT $1`, normLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Title, &r.WindowStart, &r.WindowEnd, &r.Language,
			&r.VideoCount, &r.DocumentPath, &r.NotionPageURL, &r.NotionError, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SaveSummary upserts the summary for (video, language).
func (db *Postgres) SaveSummary(ctx context.Context, s Summary) error {
	s, err := prepareSummary(s)
	if err != nil {
		return err
	}
	var published *time.Time
	if !s.PublishedAt.IsZero() {
		published = &s.PublishedAt
	}
	_, err = db.pool.Exec(ctx, `INSERT INTO video_summaries
		(video_id, language, title, channel_title, url, published_at, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (video_id, language) DO UPDATE SET
			title = EXCLUDED.title,
			channel_title = EXCLUDED.channel_title,
			url = EXCLUDED.url,
			published_at = EXCLUDED.published_at,
			summary = EXCLUDED.summary,
			created_at = EXCLUDED.created_at`,
		s.VideoID, s.Language, s.Title, s.ChannelTitle, s.URL, published, s.Summary, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: save summary: %w", err)
	}
	return nil
}

// GetSummary loads the summary for (video, language).
func (db *Postgres) GetSummary(ctx context.Context, videoID, language string) (Summary, error) {
	var s Summary
	var published *time.Time
	err := db.pool.QueryRow(ctx, `SELECT video_id, language, title, channel_title, url,
		published_at, summary, created_at
		FROM video_summaries WHERE video_id = $1 AND language = $2`, videoID, language).
		Scan(&s.VideoID, &s.Language, &s.Title, &s.ChannelTitle, &s.URL, &published, &s.Summary, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Summary{}, ErrNotFound
	}
	if err != nil {
		return Summary{}, fmt.Errorf("store: get summary: %w", err)
	}
	if published != nil {
		s.PublishedAt = *published
	}
	return s, nil
}
