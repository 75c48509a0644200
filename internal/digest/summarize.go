package digest

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/anatolykoptev/go_ytdigest/internal/engine"
	"github.com/anatolykoptev/go_ytdigest/internal/store"
)

const (
	skippedSummary      = "LLM summarisation was skipped. Please provide your own notes for this video."
	failedSummaryPrefix = "Failed to summarise via LLM: "
	transcriptWorkers   = 4
)

var (
	htmlTagRe = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(\s[^<>]*)?/?>`)

	// htmlDocRe matches summaries that are HTML documents rather than Markdown.
	htmlDocRe = regexp.MustCompile(`(?i)^<(html|body|div|p|ul|ol|li|h[1-6]|table|blockquote|pre|section|article)[\s>/]`)

	// inlineElementRe matches one unnested inline element with its text content.
	inlineElementRe = regexp.MustCompile(`(?i)<(?:b|strong|i|em|u|s|del|code|mark|span|a)(?:\s[^<>]*)?>[^<]*</(?:b|strong|i|em|u|s|del|code|mark|span|a)>`)

	brRe = regexp.MustCompile(`(?i)<br\s*/?>`)

	// markdownEscapeRe matches the backslash escapes html-to-markdown adds to text.
	markdownEscapeRe = regexp.MustCompile(`\\([\\` + "`" + `*_{}\[\]()#+\-.!|<>~])`)
)

// cleanSummary converts stray HTML in LLM output to Markdown. Whole HTML
// documents are converted in one go; otherwise only the inline elements are
// rewritten so the Markdown lines around them survive.
func cleanSummary(s string) string {
	s = strings.TrimSpace(s)
	if !htmlTagRe.MatchString(s) {
		return s
	}
	if htmlDocRe.MatchString(s) {
		md, err := htmltomarkdown.ConvertString(s)
		if err != nil || strings.TrimSpace(md) == "" {
			return s
		}
		return strings.TrimSpace(md)
	}

	s = brRe.ReplaceAllString(s, "\n")
	s = inlineElementRe.ReplaceAllStringFunc(s, convertInline)
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

// convertInline renders a single inline element as Markdown on one line.
func convertInline(fragment string) string {
	md, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return fragment
	}
	md = strings.Join(strings.Fields(md), " ")
	return markdownEscapeRe.ReplaceAllString(md, "$1")
}

func skippedSummaries(videos []engine.Video) []engine.VideoSummary {
	out := make([]engine.VideoSummary, len(videos))
	for i, v := range videos {
		out[i] = engine.VideoSummary{Video: v, Summary: skippedSummary}
	}
	return out
}

// cachedSummaries returns stored summaries keyed by video ID.
func (r *Runner) cachedSummaries(ctx context.Context, videos []engine.Video, language string) map[string]string {
	cached := make(map[string]string)
	if r.Store == nil {
		return cached
	}
	for _, v := range videos {
		s, err := r.Store.GetSummary(ctx, v.ID, language)
		switch {
		case err == nil && s.Summary != "":
			cached[v.ID] = s.Summary
		case err != nil && !errors.Is(err, store.ErrNotFound):
			slog.Warn("digest: summary lookup failed", slog.String("video_id", v.ID), slog.Any("error", err))
		}
	}
	return cached
}

// fetchTranscripts fills Transcript for videos that still need a summary.
func (r *Runner) fetchTranscripts(ctx context.Context, videos []engine.Video, skip map[string]string, langs []string) {
	if r.Transcripts == nil {
		return
	}
	sem := make(chan struct{}, transcriptWorkers)
	var wg sync.WaitGroup
	for i := range videos {
		if _, ok := skip[videos[i].ID]; ok {
			continue
		}
		wg.Add(1)
		go func(v *engine.Video) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			slog.Info("digest: fetching transcript", slog.String("video_id", v.ID), slog.String("title", v.Title))
			text, err := r.Transcripts(ctx, v.ID, v.URL, langs)
			if err != nil {
				slog.Warn("digest: transcript unavailable", slog.String("video_id", v.ID), slog.Any("error", err))
				return
			}
			v.Transcript = text
			slog.Info("digest: transcript retrieved", slog.String("video_id", v.ID), slog.Int("chars", len(text)))
		}(&videos[i])
	}
	wg.Wait()
}

// summarize produces one summary per video, in input order. Failures become
// placeholder text so the digest still lists every video.
func (r *Runner) summarize(ctx context.Context, videos []engine.Video, language string, langs []string) []engine.VideoSummary {
	cached := r.cachedSummaries(ctx, videos, language)
	r.fetchTranscripts(ctx, videos, cached, langs)

	out := make([]engine.VideoSummary, 0, len(videos))
	for _, v := range videos {
		if s, ok := cached[v.ID]; ok {
			slog.Debug("digest: stored summary reused", slog.String("video_id", v.ID))
			out = append(out, engine.VideoSummary{Video: v, Summary: s})
			continue
		}

		slog.Info("digest: summarising", slog.String("video_id", v.ID))
		text, err := r.Summarize(ctx, v, language)
		if err != nil {
			slog.Error("digest: summary failed", slog.String("video_id", v.ID), slog.Any("error", err))
			out = append(out, engine.VideoSummary{Video: v, Summary: failedSummaryPrefix + err.Error(), Failed: true})
			continue
		}

		text = cleanSummary(text)
		out = append(out, engine.VideoSummary{Video: v, Summary: text})
		r.saveSummary(ctx, v, language, text)
	}
	return out
}

func (r *Runner) saveSummary(ctx context.Context, v engine.Video, language, text string) {
	if r.Store == nil {
		return
	}
	err := r.Store.SaveSummary(ctx, store.Summary{
		VideoID:      v.ID,
		Language:     language,
		Title:        v.Title,
		ChannelTitle: v.ChannelTitle,
		URL:          v.URL,
		PublishedAt:  v.PublishedAt,
		Summary:      text,
	})
	if err != nil {
		slog.Warn("digest: summary not stored", slog.String("video_id", v.ID), slog.Any("error", err))
	}
}
