package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	DigestRuns                atomic.Int64
	DigestVideos              atomic.Int64
	LLMCalls                  atomic.Int64
	LLMErrors                 atomic.Int64
	YouTubeAPIRequests        atomic.Int64
	YouTubeSearchRequests     atomic.Int64
	YouTubeTranscriptRequests atomic.Int64
	NotionPageCreates         atomic.Int64
	NotionAppends             atomic.Int64
	NotionErrors              atomic.Int64
}

var metricKeys = []string{
	"digest_runs", "digest_videos",
	"llm_calls", "llm_errors",
	"youtube_api_requests", "youtube_search_requests", "youtube_transcript_requests",
	"notion_page_creates", "notion_appends", "notion_errors",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"digest_runs":                 metrics.DigestRuns.Load(),
		"digest_videos":               metrics.DigestVideos.Load(),
		"llm_calls":                   metrics.LLMCalls.Load(),
		"llm_errors":                  metrics.LLMErrors.Load(),
		"youtube_api_requests":        metrics.YouTubeAPIRequests.Load(),
		"youtube_search_requests":     metrics.YouTubeSearchRequests.Load(),
		"youtube_transcript_requests": metrics.YouTubeTranscriptRequests.Load(),
		"notion_page_creates":         metrics.NotionPageCreates.Load(),
		"notion_appends":              metrics.NotionAppends.Load(),
		"notion_errors":               metrics.NotionErrors.Load(),
		"cache_hits":                  hits,
		"cache_misses":                misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for digest/ sub-package.
func IncrDigestRuns() { metrics.DigestRuns.Add(1) }
func IncrDigestVideos(n int) { metrics.DigestVideos.Add(int64(n)) }

// Incrementors for sources/ sub-package.
func IncrYouTubeAPI() { metrics.YouTubeAPIRequests.Add(1) }
func IncrYouTubeSearch() { metrics.YouTubeSearchRequests.Add(1) }
func IncrYouTubeTranscript() { metrics.YouTubeTranscriptRequests.Add(1) }

// Incrementors for notion/ package.
func IncrNotionPageCreates() { metrics.NotionPageCreates.Add(1) }
func IncrNotionAppends() { metrics.NotionAppends.Add(1) }
func IncrNotionErrors() { metrics.NotionErrors.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
