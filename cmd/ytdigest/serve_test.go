package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_ytdigest/internal/digest"
)

func TestServeRoutes(t *testing.T) {
	e := newServer(&triggerHandler{run: func(context.Context, digest.Options) (digest.Result, error) {
		return digest.Result{}, nil
	}})

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, `"message"`},
		{"/v1/ping", http.StatusOK, "ok"},
		{"/missing", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestSummaryTrigger(t *testing.T) {
	var mu sync.Mutex
	var got digest.Options
	h := &triggerHandler{run: func(_ context.Context, opts digest.Options) (digest.Result, error) {
		mu.Lock()
		got = opts
		mu.Unlock()
		return digest.Result{RunID: "r1"}, nil
	}}
	e := newServer(h)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/youtube_summary_handle?start=2026-10-17T00:00:00Z&language=en&max_per_channel=2&skip_gemini=true&skip_notion=1&title=Daily", nil)
	e.ServeHTTP(rec, req)
	h.wait()

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"accepted"}`, rec.Body.String())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "2026-10-17T00:00:00Z", got.Start)
	assert.Equal(t, "en", got.Language)
	assert.Equal(t, 2, got.MaxPerChannel)
	assert.Equal(t, "Daily", got.Title)
	assert.True(t, got.SkipLLM, "skip_gemini maps to SkipLLM")
	assert.True(t, got.SkipNotion)
}

func TestSummaryTriggerBadParam(t *testing.T) {
	called := false
	h := &triggerHandler{run: func(context.Context, digest.Options) (digest.Result, error) {
		called = true
		return digest.Result{}, nil
	}}
	e := newServer(h)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/youtube_summary_handle?max_per_channel=lots", nil))
	h.wait()

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

func TestSummaryTriggerRunErrorStillAccepted(t *testing.T) {
	h := &triggerHandler{run: func(context.Context, digest.Options) (digest.Result, error) {
		return digest.Result{}, errors.New("youtube down")
	}}
	e := newServer(h)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/youtube_summary_handle", nil))
	h.wait()

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "accepted"))
}
