// Package sources talks to YouTube.
//
// The implementation is split across three files by responsibility:
//
//	youtube_data.go       - Data API v3: subscriptions and per-channel uploads (OAuth)
//	youtube_innertube.go  - Innertube API types, endpoints, and low-level HTTP primitives
//	youtube_transcript.go - timestamped transcript fetching (watch page, engagement
//	                        panel, ANDROID player fallbacks)
package sources
