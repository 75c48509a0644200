package toolutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anatolykoptev/go_ytdigest/internal/engine"
)

func TestNormLang(t *testing.T) {
	if got := NormLang("", "zh-CN"); got != "zh-CN" {
		t.Errorf("NormLang(\"\") = %q", got)
	}
	if got := NormLang("en", "zh-CN"); got != "en" {
		t.Errorf("NormLang(en) = %q", got)
	}
}

func TestNormLimit(t *testing.T) {
	tests := []struct{ in, want int }{{0, 20}, {-3, 20}, {5, 5}, {500, 200}}
	for _, tt := range tests {
		if got := NormLimit(tt.in, 20, 200); got != tt.want {
			t.Errorf("NormLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestInputKey(t *testing.T) {
	type in struct{ A string }
	if InputKey("t", in{"x"}) != InputKey("t", in{"x"}) {
		t.Error("key must be deterministic")
	}
	if InputKey("t", in{"x"}) == InputKey("t", in{"y"}) {
		t.Error("different inputs must not collide")
	}
	if InputKey("t", func() {}) != "" {
		t.Error("unencodable input must yield empty key")
	}
}

func TestCached(t *testing.T) {
	engine.InitCache("", time.Minute, 10)
	ctx := context.Background()
	key := InputKey("cached_test", time.Now().UnixNano())

	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}
	for range 2 {
		v, err := Cached(ctx, key, compute)
		if err != nil || v != 42 {
			t.Fatalf("Cached() = %d, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}

	boom := errors.New("boom")
	if _, err := Cached(ctx, key+"x", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Errorf("error not propagated: %v", err)
	}
	if _, err := Cached(ctx, "", compute); err != nil || calls != 2 {
		t.Errorf("empty key must bypass cache, calls = %d", calls)
	}
}
