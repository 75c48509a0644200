// Package toolutil provides shared helper functions for go_ytdigest MCP tools.
package toolutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/anatolykoptev/go_ytdigest/internal/engine"
)

// NormLang normalises a language field: empty string → def.
func NormLang(lang, def string) string {
	if lang == "" {
		return def
	}
	return lang
}

// NormLimit clamps a list limit into [1, maxLimit], with def for non-positive input.
func NormLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}

// InputKey returns a cache key for an arbitrary JSON-encodable tool input.
func InputKey(tool string, input any) string {
	data, err := json.Marshal(input)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return engine.CacheKey(tool, hex.EncodeToString(sum[:12]))
}

// Cached returns the cached value for key or computes, stores and returns it.
// An empty key bypasses the cache.
func Cached[T any](ctx context.Context, key string, compute func() (T, error)) (T, error) {
	if key != "" {
		if out, ok := engine.CacheLoadJSON[T](ctx, key); ok {
			return out, nil
		}
	}
	out, err := compute()
	if err != nil {
		return out, err
	}
	if key != "" {
		engine.CacheStoreJSON(ctx, key, out)
	}
	return out, nil
}
