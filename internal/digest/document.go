package digest

import (
	"strings"
	"time"

	"github.com/anatolykoptev/go_ytdigest/internal/engine"
	"github.com/anatolykoptev/go_ytdigest/internal/notion"
)

// BuildMarkdown renders the digest document. A zero end renders an open window.
func BuildMarkdown(title string, summaries []engine.VideoSummary, start, end time.Time) string {
	var b strings.Builder
	b.WriteString("# " + title + "\n\n")
	if end.IsZero() {
		b.WriteString("Time window starting from " + start.Format(time.RFC3339) + "\n\n")
	} else {
		b.WriteString("Time window: " + start.Format(time.RFC3339) + " - " + end.Format(time.RFC3339) + "\n\n")
	}

	for _, s := range summaries {
		v := s.Video
		b.WriteString("## " + v.Title + "\n")
		b.WriteString("*Channel:* " + v.ChannelTitle + "\n")
		b.WriteString("*Published:* " + v.PublishedAt.Format(time.RFC3339) + "\n")
		b.WriteString("*Link:* " + v.URL + "\n\n")
		b.WriteString(s.Summary + "\n\n")
	}
	return strings.TrimSpace(b.String()) + "\n"
}

// SummaryEntries converts pipeline output into Notion summary entries.
func SummaryEntries(summaries []engine.VideoSummary) []notion.SummaryEntry {
	entries := make([]notion.SummaryEntry, 0, len(summaries))
	for _, s := range summaries {
		entries = append(entries, notion.SummaryEntry{
			VideoTitle:   s.Video.Title,
			VideoURL:     s.Video.URL,
			ChannelTitle: s.Video.ChannelTitle,
			SummaryText:  s.Summary,
		})
	}
	return entries
}
