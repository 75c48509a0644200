// Package store persists digest runs and generated video summaries.
//
// Two backends share the Store interface: PostgreSQL (pgx pool) when
// DATABASE_URL is set, otherwise a local SQLite file.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("store: not found")

// Run is one completed digest pipeline execution.
type Run struct {
	ID            string    `json:"run_id"`
	Title         string    `json:"title"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	Language      string    `json:"language,omitempty"`
	VideoCount    int       `json:"video_count"`
	DocumentPath  string    `json:"document_path,omitempty"`
	NotionPageURL string    `json:"notion_page_url,omitempty"`
	NotionError   string    `json:"notion_error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Summary is a stored LLM summary, keyed by video and language.
type Summary struct {
	VideoID      string    `json:"video_id"`
	Language     string    `json:"language"`
	Title        string    `json:"title"`
	ChannelTitle string    `json:"channel_title,omitempty"`
	URL          string    `json:"url"`
	PublishedAt  time.Time `json:"published_at"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is the persistence contract shared by both backends.
type Store interface {
	SaveRun(ctx context.Context, r Run) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	SaveSummary(ctx context.Context, s Summary) error
	// GetSummary returns ErrNotFound when no summary exists for the pair.
	GetSummary(ctx context.Context, videoID, language string) (Summary, error)
	Close() error
}

// DefaultListLimit caps ListRuns when the caller passes 0.
const DefaultListLimit = 20

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// DefaultSQLitePath is ~/.go_ytdigest/digest.db.
func DefaultSQLitePath() string {
	return filepath.Join(os.Getenv("HOME"), ".go_ytdigest", "digest.db")
}

// Open picks PostgreSQL when databaseURL is set and SQLite at sqlitePath otherwise.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if databaseURL != "" {
		return OpenPostgres(ctx, databaseURL)
	}
	if sqlitePath == "" {
		sqlitePath = DefaultSQLitePath()
	}
	return OpenSQLite(sqlitePath)
}

func normLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func prepareRun(r Run) (Run, error) {
	if r.ID == "" {
		return r, errors.New("store: run id is required")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.WindowStart = r.WindowStart.UTC()
	r.WindowEnd = r.WindowEnd.UTC()
	return r, nil
}

func prepareSummary(s Summary) (Summary, error) {
	if s.VideoID == "" {
		return s, fmt.Errorf("store: video id is required")
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.PublishedAt = s.PublishedAt.UTC()
	return s, nil
}
