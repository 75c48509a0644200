package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// ErrLLMDisabled is returned when no LLM client is configured.
var ErrLLMDisabled = errors.New("llm: client not configured")

const (
	maxTranscriptRunes  = 8000 // transcript budget inside the summary prompt
	maxDescriptionRunes = 1500
)

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```markdown")
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// waitLLM blocks until the rate limiter admits another call.
func waitLLM(ctx context.Context) error {
	if llmLimiter == nil {
		return nil
	}
	return llmLimiter.Wait(ctx)
}

// CallLLM sends a prompt using the configured temperature and max_tokens.
func CallLLM(ctx context.Context, prompt string) (string, error) {
	if cfg.LLMClient == nil {
		return "", ErrLLMDisabled
	}
	if err := waitLLM(ctx); err != nil {
		return "", err
	}
	metrics.LLMCalls.Add(1)
	resp, err := cfg.LLMClient.Complete(ctx, "", prompt)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", err
	}
	return stripFences(resp), nil
}

// SummarizeVideo asks the LLM for a bullet summary of v written in language.
// Results are cached per video, language and transcript availability.
func SummarizeVideo(ctx context.Context, v Video, language string) (string, error) {
	if cfg.LLMClient == nil {
		return "", ErrLLMDisabled
	}

	key := CacheKey("summary", v.ID, language, fmt.Sprint(v.Transcript != ""))
	if cached, ok := CacheLoadJSON[string](ctx, key); ok {
		slog.Debug("llm: summary cache hit", slog.String("video_id", v.ID))
		return cached, nil
	}

	if err := waitLLM(ctx); err != nil {
		return "", err
	}
	metrics.LLMCalls.Add(1)
	start := time.Now()
	raw, err := cfg.LLMClient.Complete(ctx, "", buildSummaryPrompt(v, language),
		llm.WithChatTemperature(0.3),
		llm.WithChatMaxTokens(1024),
	)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", fmt.Errorf("summarize %s: %w", v.ID, err)
	}

	summary := stripFences(raw)
	if summary == "" {
		metrics.LLMErrors.Add(1)
		return "", fmt.Errorf("summarize %s: empty response", v.ID)
	}
	slog.Debug("llm: summary generated",
		slog.String("video_id", v.ID),
		slog.Int("chars", len(summary)),
		slog.Duration("elapsed", time.Since(start)),
	)

	CacheStoreJSON(ctx, key, summary)
	return summary, nil
}

func buildSummaryPrompt(v Video, language string) string {
	desc := strings.TrimSpace(v.Description)
	if desc == "" {
		desc = noDescription
	}
	desc = TruncateAtWord(desc, maxDescriptionRunes)

	transcript := ""
	if t := strings.TrimSpace(v.Transcript); t != "" {
		transcript = fmt.Sprintf(transcriptSection, TruncateRunes(t, maxTranscriptRunes, "\n..."))
	}

	lang := ""
	if language != "" {
		lang = " Provide the response in " + language + "."
	}

	published := ""
	if !v.PublishedAt.IsZero() {
		published = v.PublishedAt.UTC().Format(time.RFC3339)
	}

	return fmt.Sprintf(videoSummaryPrompt, v.Title, v.ChannelTitle, published, desc, v.URL, transcript, lang)
}
