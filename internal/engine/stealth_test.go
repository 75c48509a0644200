package engine

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestChromeHeaders(t *testing.T) {
	h := ChromeHeaders()
	for _, key := range []string{"accept", "accept-language", "user-agent"} {
		if _, ok := h[key]; !ok {
			t.Errorf("ChromeHeaders() missing key %q", key)
		}
	}
	if ua := h["user-agent"]; len(ua) < 20 {
		t.Errorf("user-agent too short: %q", ua)
	}
}

func TestFetchPagePlainHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("user-agent") == "" {
			t.Error("missing user-agent")
		}
		if got := r.Header.Get("Accept-Language"); got != "zh-CN" {
			t.Errorf("Accept-Language = %q", got)
		}
		_, _ = io.WriteString(w, "<html>watch</html>")
	}))
	defer srv.Close()

	Init(Config{HTTPClient: srv.Client(), FetchTimeout: 5 * time.Second})
	data, err := FetchPage(context.Background(), srv.URL, map[string]string{"accept-language": "zh-CN"})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if !strings.Contains(string(data), "watch") {
		t.Errorf("unexpected body %q", data)
	}
}

func TestFetchPageStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "consent required")
	}))
	defer srv.Close()

	Init(Config{HTTPClient: srv.Client()})
	_, err := FetchPage(context.Background(), srv.URL, nil)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusForbidden || se.Body != "consent required" {
		t.Errorf("StatusError = %+v", se)
	}
}
