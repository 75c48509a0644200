package engine

import "time"

// --- Core digest types ---

// Video is one upload discovered in a subscribed channel.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ChannelID    string    `json:"channel_id,omitempty"`
	ChannelTitle string    `json:"channel_title"`
	PublishedAt  time.Time `json:"published_at"`
	URL          string    `json:"url"`
	Transcript   string    `json:"-"`
}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// VideoSummary pairs a video with the text produced for it.
type VideoSummary struct {
	Video   Video  `json:"video"`
	Summary string `json:"summary"`
	Failed  bool   `json:"failed,omitempty"`
}
