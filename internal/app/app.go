// Package app assembles go_ytdigest from environment configuration. It is
// shared by the MCP server and the ytdigest CLI.
package app

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
	"github.com/joho/godotenv"

	"github.com/anatolykoptev/go_ytdigest/internal/digest"
	"github.com/anatolykoptev/go_ytdigest/internal/engine"
	"github.com/anatolykoptev/go_ytdigest/internal/engine/sources"
	"github.com/anatolykoptev/go_ytdigest/internal/notion"
	"github.com/anatolykoptev/go_ytdigest/internal/store"
)

// Config is everything read from the environment.
type Config struct {
	MCPPort  string
	HTTPAddr string
	LogLevel string

	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int
	LLMMinInterval     time.Duration

	YouTubeAPIKey             string
	YouTubeAPIBase            string
	YouTubeClientID           string
	YouTubeClientSecret       string
	YouTubeRefreshToken       string
	YouTubeTranscriptsEnabled bool
	TranscriptLanguages       []string
	WebshareAPIKey            string

	Notion notion.Config

	Timezone   string
	Language   string
	OutputPath string

	DatabaseURL string
	DBPath      string

	RedisURL        string
	CacheTTL        time.Duration
	CacheMaxEntries int
	FetchTimeout    time.Duration
}

// LoadConfig reads .env (when present) and then the process environment.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("app: .env not loaded", slog.Any("error", err))
	}
	return Config{
		MCPPort:  env.Str("MCP_PORT", "8893"),
		HTTPAddr: env.Str("HTTP_ADDR", ":8000"),
		LogLevel: env.Str("LOG_LEVEL", "info"),

		LLMAPIKey:          env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks: env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:         env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:           env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:     env.Float("LLM_TEMPERATURE", 0.3),
		LLMMaxTokens:       env.Int("LLM_MAX_TOKENS", 4096),
		LLMMinInterval:     env.Duration("LLM_MIN_INTERVAL", 3*time.Second),

		YouTubeAPIKey:             env.Str("YOUTUBE_API_KEY", ""),
		YouTubeAPIBase:            env.Str("YOUTUBE_API_BASE", engine.DefaultYouTubeAPIBase),
		YouTubeClientID:           env.Str("YOUTUBE_CLIENT_ID", ""),
		YouTubeClientSecret:       env.Str("YOUTUBE_CLIENT_SECRET", ""),
		YouTubeRefreshToken:       env.Str("YOUTUBE_REFRESH_TOKEN", ""),
		YouTubeTranscriptsEnabled: envBool("YOUTUBE_TRANSCRIPTS_ENABLED", true),
		TranscriptLanguages:       env.List("TRANSCRIPT_LANGUAGES", ""),
		WebshareAPIKey:            env.Str("WEBSHARE_API_KEY", ""),

		Notion: notion.Config{
			APIKey:       env.Str("NOTION_API_KEY", ""),
			DatabaseID:   env.Str("NOTION_DATABASE_ID", ""),
			ParentPageID: env.Str("NOTION_PARENT_PAGE_ID", ""),
			BaseURL:      env.Str("NOTION_API_BASE", notion.DefaultBaseURL),
			Timeout:      env.Duration("NOTION_TIMEOUT", notion.DefaultTimeout),
		},

		Timezone:   env.Str("DIGEST_TIMEZONE", digest.DefaultTimezone),
		Language:   env.Str("DIGEST_LANGUAGE", digest.DefaultLanguage),
		OutputPath: env.Str("DIGEST_OUTPUT", digest.DefaultOutputPath),

		DatabaseURL: env.Str("DATABASE_URL", ""),
		DBPath:      env.Str("DIGEST_DB_PATH", store.DefaultSQLitePath()),

		RedisURL:        env.Str("REDIS_URL", ""),
		CacheTTL:        env.Duration("CACHE_TTL", 24*time.Hour),
		CacheMaxEntries: env.Int("CACHE_MAX_ENTRIES", 1000),
		FetchTimeout:    env.Duration("FETCH_TIMEOUT", 15*time.Second),
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(env.Str(key, ""))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("app: invalid boolean, using default", slog.String("key", key), slog.String("value", v))
		return def
	}
	return b
}

// ParseLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// App holds the wired components.
type App struct {
	Config    Config
	Runner    *digest.Runner
	Publisher *notion.Publisher
	Store     store.Store
}

// New initialises the engine and cache, wires the digest runner and opens the
// store last. Missing optional integrations are logged and left nil.
func New(ctx context.Context, c Config) (*App, error) {
	initEngine(c)
	engine.InitCache(c.RedisURL, c.CacheTTL, c.CacheMaxEntries)

	a := &App{Config: c}

	if c.Notion.Configured() {
		client, err := notion.NewClient(c.Notion)
		if err != nil {
			return nil, err
		}
		a.Publisher = notion.NewPublisher(client)
	} else {
		slog.Info("app: notion not configured, publishing disabled")
	}

	a.Runner = &digest.Runner{
		Publisher:  a.Publisher,
		Location:   digest.LoadLocation(c.Timezone),
		Language:   c.Language,
		OutputPath: c.OutputPath,
	}
	if engine.Cfg.LLMClient != nil {
		a.Runner.Summarize = engine.SummarizeVideo
	}
	if c.YouTubeTranscriptsEnabled {
		a.Runner.Transcripts = sources.FetchYouTubeTranscript
	}

	// The token source outlives ctx, so it gets its own background context.
	yt, err := sources.NewSubscriptionClient(context.Background(), sources.SubscriptionConfigFromEngine())
	switch {
	case err == nil:
		a.Runner.Videos = yt
	case errors.Is(err, sources.ErrYouTubeNotConfigured):
		slog.Warn("app: youtube credentials missing, youtube_digest will fail until configured")
	default:
		return nil, err
	}

	st, err := store.Open(ctx, c.DatabaseURL, c.DBPath)
	if err != nil {
		slog.Warn("app: run store unavailable, history disabled", slog.Any("error", err))
	} else {
		a.Store = st
		a.Runner.Store = st
	}
	return a, nil
}

// Close releases the store.
func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			slog.Warn("app: store close failed", slog.Any("error", err))
		}
	}
}

func initEngine(c Config) {
	ec := engine.Config{
		LLMModel:                  c.LLMModel,
		LLMMinInterval:            c.LLMMinInterval,
		YouTubeAPIKey:             c.YouTubeAPIKey,
		YouTubeAPIBase:            c.YouTubeAPIBase,
		YouTubeClientID:           c.YouTubeClientID,
		YouTubeClientSecret:       c.YouTubeClientSecret,
		YouTubeRefreshToken:       c.YouTubeRefreshToken,
		YouTubeTranscriptsEnabled: c.YouTubeTranscriptsEnabled,
		TranscriptLanguages:       c.TranscriptLanguages,
		FetchTimeout:              c.FetchTimeout,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	var opts []stealth.ClientOption
	opts = append(opts, stealth.WithTimeout(15))
	if c.WebshareAPIKey != "" {
		pool, err := proxypool.NewWebshare(c.WebshareAPIKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}
	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Error("stealth client init failed", slog.Any("error", err))
	} else {
		ec.BrowserClient = bc
		slog.Info("stealth browser client initialized")
	}

	if c.LLMAPIKey != "" {
		ec.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
			llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
			llm.WithMaxTokens(c.LLMMaxTokens),
			llm.WithTemperature(c.LLMTemperature),
			llm.WithHTTPClient(&http.Client{Timeout: 90 * time.Second}),
		)
	} else {
		slog.Warn("LLM_API_KEY not set, summaries will be skipped")
	}

	engine.Init(ec)
}
