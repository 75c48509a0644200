package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"

	stealth "github.com/anatolykoptev/go-stealth"
)

// Re-export stealth types and functions for engine consumers.
type BrowserClient = stealth.BrowserClient

func ChromeHeaders() map[string]string { return stealth.ChromeHeaders() }
func RandomUserAgent() string          { return stealth.RandomUserAgent() }

// maxPageBytes caps scraped page bodies (YouTube watch pages run 1-2 MB).
const maxPageBytes = 6 * 1024 * 1024

// FetchPage GETs targetURL with browser-like headers. The stealth client is
// preferred because YouTube serves consent walls to non-browser TLS
// fingerprints; without one it falls back to Cfg.HTTPClient.
func FetchPage(ctx context.Context, targetURL string, extra map[string]string) ([]byte, error) {
	timeout := cfg.FetchTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	headers := ChromeHeaders()
	for k, v := range extra {
		headers[k] = v
	}

	if bc := cfg.BrowserClient; bc != nil {
		return RetryDo(ctx, DefaultRetryConfig, func() ([]byte, error) {
			data, _, status, err := bc.Do(http.MethodGet, targetURL, headers, nil)
			if err != nil {
				return nil, err
			}
			if status != http.StatusOK {
				return nil, &StatusError{StatusCode: status}
			}
			return data, nil
		})
	}

	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", targetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}
