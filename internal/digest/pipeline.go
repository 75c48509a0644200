// Package digest runs the subscription digest: discover videos in a time
// window, summarise them, write a Markdown document and publish it to Notion.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go_ytdigest/internal/engine"
	"github.com/anatolykoptev/go_ytdigest/internal/engine/sources"
	"github.com/anatolykoptev/go_ytdigest/internal/notion"
	"github.com/anatolykoptev/go_ytdigest/internal/store"
)

const (
	DefaultLanguage   = "zh-CN"
	DefaultOutputPath = "subscription_summaries.md"
)

// ErrInvalidWindow is returned when the window ends before it starts.
var ErrInvalidWindow = errors.New("digest: end time must be after start time")

// VideoSource discovers subscribed channels and their uploads.
type VideoSource interface {
	ListSubscriptionChannelIDs(ctx context.Context) ([]string, error)
	FetchVideosForChannels(ctx context.Context, channelIDs []string, q sources.VideoQuery) ([]engine.Video, error)
}

// TranscriptFetcher returns a timestamped transcript for one video.
type TranscriptFetcher func(ctx context.Context, videoID, videoURL string, langs []string) (string, error)

// Summarizer turns one video (with optional transcript) into summary text.
type Summarizer func(ctx context.Context, v engine.Video, language string) (string, error)

// Options are the per-run knobs. Empty Start/End fall back to the default window.
type Options struct {
	Start         string `json:"start,omitempty" jsonschema:"Window start, ISO 8601. Default: previous day 07:00 in DIGEST_TIMEZONE"`
	End           string `json:"end,omitempty" jsonschema:"Window end, ISO 8601. Default: now"`
	Language      string `json:"language,omitempty" jsonschema:"Summary language code (default zh-CN)"`
	MaxPerChannel int    `json:"max_per_channel,omitempty" jsonschema:"Max videos per channel, 0 = unlimited"`
	OutputPath    string `json:"output_path,omitempty" jsonschema:"Markdown output file (default subscription_summaries.md)"`
	Title         string `json:"title,omitempty" jsonschema:"Document and Notion page title. Default: window start date"`
	SkipLLM       bool   `json:"skip_llm,omitempty" jsonschema:"Only collect video metadata, no transcripts or summaries"`
	SkipNotion    bool   `json:"skip_notion,omitempty" jsonschema:"Do not upload the digest to Notion"`
}

// Result is what a run reports back.
type Result struct {
	RunID         string                `json:"run_id"`
	Title         string                `json:"title"`
	VideoCount    int                   `json:"video_count"`
	DocumentPath  string                `json:"document_path"`
	NotionPageURL string                `json:"notion_page_url,omitempty"`
	NotionError   string                `json:"notion_error,omitempty"`
	Summaries     []engine.VideoSummary `json:"-"`
}

// Runner wires the pipeline stages. Nil Publisher means Notion is not
// configured; nil Store disables run history and summary reuse.
type Runner struct {
	Videos      VideoSource
	Transcripts TranscriptFetcher
	Summarize   Summarizer
	Publisher   *notion.Publisher
	Store       store.Store
	Location    *time.Location
	Language    string // used when Options.Language is empty
	OutputPath  string // used when Options.OutputPath is empty
	Now         func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.UTC
}

// Run executes one digest.
func (r *Runner) Run(ctx context.Context, opts Options) (res Result, err error) {
	_ = engine.TrackOperation(ctx, "digest:run", func(ctx context.Context) error {
		res, err = r.run(ctx, opts)
		return err
	})
	return
}

func (r *Runner) run(ctx context.Context, opts Options) (Result, error) {
	loc := r.location()
	start, end, err := resolveWindow(opts.Start, opts.End, r.now(), loc)
	if err != nil {
		return Result{}, err
	}
	if r.Videos == nil {
		return Result{}, sources.ErrYouTubeNotConfigured
	}
	opts.Language = firstNonEmpty(opts.Language, r.Language, DefaultLanguage)
	opts.OutputPath = firstNonEmpty(opts.OutputPath, r.OutputPath, DefaultOutputPath)
	title := opts.Title
	if title == "" {
		title = DefaultTitle(start, loc)
	}

	res := Result{RunID: store.NewRunID(), Title: title}
	engine.IncrDigestRuns()
	slog.Info("digest: run started",
		slog.String("run_id", res.RunID),
		slog.Time("start", start),
		slog.Time("end", end),
		slog.String("language", opts.Language),
	)

	channels, err := r.Videos.ListSubscriptionChannelIDs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("digest: list subscriptions: %w", err)
	}
	slog.Info("digest: subscriptions found", slog.Int("channels", len(channels)))

	videos, err := r.Videos.FetchVideosForChannels(ctx, channels, sources.VideoQuery{
		Start:         start,
		End:           end,
		MaxPerChannel: opts.MaxPerChannel,
	})
	if err != nil {
		return Result{}, fmt.Errorf("digest: fetch videos: %w", err)
	}
	for _, v := range videos {
		slog.Info("digest: video queued",
			slog.String("video_id", v.ID),
			slog.String("title", v.Title),
			slog.Time("published", v.PublishedAt),
		)
	}
	res.VideoCount = len(videos)
	engine.IncrDigestVideos(len(videos))

	var summaries []engine.VideoSummary
	if opts.SkipLLM || r.Summarize == nil {
		slog.Info("digest: skipping summarisation", slog.Int("videos", len(videos)))
		summaries = skippedSummaries(videos)
	} else {
		langs := sources.TranscriptLanguages(append([]string{opts.Language}, engine.Cfg.TranscriptLanguages...)...)
		summaries = r.summarize(ctx, videos, opts.Language, langs)
	}
	res.Summaries = summaries

	doc := BuildMarkdown(title, summaries, start, end)
	if res.DocumentPath, err = writeDocument(opts.OutputPath, doc); err != nil {
		return Result{}, err
	}
	slog.Info("digest: document saved", slog.String("path", res.DocumentPath))

	r.publish(ctx, title, summaries, opts.SkipNotion, &res)
	r.recordRun(ctx, res, start, end, opts.Language)

	slog.Info("digest: run finished",
		slog.String("run_id", res.RunID),
		slog.Int("videos", res.VideoCount),
		slog.String("document", res.DocumentPath),
		slog.String("notion_url", res.NotionPageURL),
	)
	return res, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func writeDocument(path, body string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("digest: resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("digest: create output dir: %w", err)
	}
	if err := os.WriteFile(abs, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("digest: write document: %w", err)
	}
	return abs, nil
}

func (r *Runner) publish(ctx context.Context, title string, summaries []engine.VideoSummary, skip bool, res *Result) {
	switch {
	case skip:
		slog.Info("digest: skipping notion upload by request")
		return
	case r.Publisher == nil:
		slog.Warn("digest: notion configuration incomplete, skipping upload")
		return
	}

	blocks := notion.BuildBlocks(SummaryEntries(summaries))
	pr := r.Publisher.Publish(ctx, title, blocks)
	res.NotionPageURL = pr.PageURL
	if !pr.Success {
		res.NotionError = pr.Error
		slog.Error("digest: notion upload failed", slog.String("error", pr.Error))
		return
	}
	slog.Info("digest: notion page created", slog.String("url", pr.PageURL))
}

func (r *Runner) recordRun(ctx context.Context, res Result, start, end time.Time, language string) {
	if r.Store == nil {
		return
	}
	err := r.Store.SaveRun(ctx, store.Run{
		ID:            res.RunID,
		Title:         res.Title,
		WindowStart:   start,
		WindowEnd:     end,
		Language:      language,
		VideoCount:    res.VideoCount,
		DocumentPath:  res.DocumentPath,
		NotionPageURL: res.NotionPageURL,
		NotionError:   res.NotionError,
	})
	if err != nil {
		slog.Warn("digest: run not recorded", slog.String("run_id", res.RunID), slog.Any("error", err))
	}
}
