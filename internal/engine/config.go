package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	"golang.org/x/time/rate"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	LLMClient      *llm.Client // nil = summarisation disabled
	LLMModel       string
	LLMMinInterval time.Duration // spacing between LLM calls; 0 = unthrottled

	YouTubeAPIKey             string
	YouTubeAPIBase            string // Data API v3 root; overridden in tests
	YouTubeClientID           string
	YouTubeClientSecret       string
	YouTubeRefreshToken       string
	YouTubeTranscriptsEnabled bool
	TranscriptLanguages       []string

	FetchTimeout  time.Duration
	HTTPClient    *http.Client
	BrowserClient *BrowserClient // nil = plain HTTP for transcript scraping
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, digest).
// Always points to the current cfg value.
var Cfg = &cfg

// llmLimiter spaces LLM calls; nil when LLMMinInterval is zero.
var llmLimiter *rate.Limiter

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.YouTubeAPIBase == "" {
		c.YouTubeAPIBase = DefaultYouTubeAPIBase
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	cfg = c
	Cfg = &cfg

	llmLimiter = nil
	if c.LLMMinInterval > 0 {
		llmLimiter = rate.NewLimiter(rate.Every(c.LLMMinInterval), 1)
	}
}

// DefaultYouTubeAPIBase is the YouTube Data API v3 root.
const DefaultYouTubeAPIBase = "https://www.googleapis.com/youtube/v3"
