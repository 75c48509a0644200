package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/anatolykoptev/go_ytdigest/internal/engine"
)

func TestTimestampURL(t *testing.T) {
	tests := []struct {
		name    string
		id, url string
		secs    int
		want    string
	}{
		{"canonical", "abc", "", 83, "https://www.youtube.com/watch?v=abc&t=83s"},
		{"short link", "abc", "https://youtu.be/abc", 5, "https://youtu.be/abc?t=5s"},
		{"negative clamps", "abc", "", -4, "https://www.youtube.com/watch?v=abc&t=0s"},
		{"whitespace url", "abc", "  ", 1, "https://www.youtube.com/watch?v=abc&t=1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimestampURL(tt.id, tt.url, tt.secs); got != tt.want {
				t.Errorf("TimestampURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatTranscript(t *testing.T) {
	lines := []timedLine{
		{Seconds: 0, Text: "hello"},
		{Seconds: 12, Text: "   "},
		{Seconds: 83, Text: " world "},
	}
	want := "[0s](https://www.youtube.com/watch?v=abc&t=0s) hello\n" +
		"[83s](https://www.youtube.com/watch?v=abc&t=83s) world"
	if got := formatTranscript(lines, "abc", ""); got != want {
		t.Errorf("formatTranscript() =\n%s\nwant\n%s", got, want)
	}
	if got := formatTranscript(nil, "abc", ""); got != "" {
		t.Errorf("formatTranscript(nil) = %q", got)
	}
}

func TestParseTimedText(t *testing.T) {
	body := `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
		`<text start="0.5" dur="1">Hello &amp;#39;world&amp;#39;</text>` +
		`<text start="3" dur="2">   </text>` +
		`<text start="90.99">line&#10;two</text>` +
		`<text start="bad">x</text>` +
		`</transcript>`
	got, err := parseTimedText([]byte(body))
	if err != nil {
		t.Fatalf("parseTimedText() error = %v", err)
	}
	want := []timedLine{{0, "Hello 'world'"}, {90, "line two"}, {0, "x"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseTimedText() = %+v, want %+v", got, want)
	}

	if _, err := parseTimedText([]byte("<transcript><text>")); err == nil {
		t.Error("expected error for truncated XML")
	}
}

func TestParseTranscriptSegments(t *testing.T) {
	raw := `{"actions":[{"updateEngagementPanelAction":{"content":{"transcriptRenderer":{"content":{"transcriptSearchPanelRenderer":{"body":{"transcriptSegmentListRenderer":{"initialSegments":[
		{"transcriptSegmentRenderer":{"startMs":"1500","snippet":{"runs":[{"text":"first"},{"text":"cue"}]}}},
		{"transcriptSectionHeaderRenderer":{}},
		{"transcriptSegmentRenderer":{"startMs":"83000","snippet":{"runs":[{"text":""}]}}},
		{"transcriptSegmentRenderer":{"startMs":"84250","snippet":{"runs":[{"text":"second"}]}}}
	]}}}}}}}}]}`
	var resp ytGetTranscriptResp
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := parseTranscriptSegments(resp)
	want := []timedLine{{1, "first cue"}, {84, "second"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseTranscriptSegments() = %+v, want %+v", got, want)
	}
}

func TestExtractTranscriptToken(t *testing.T) {
	tok, err := extractTranscriptToken([]byte(`..."getTranscriptEndpoint":{"params":"Cgs%3D"}...`))
	if err != nil || tok != "Cgs=" {
		t.Errorf("extractTranscriptToken() = %q, %v", tok, err)
	}
	if _, err := extractTranscriptToken([]byte(`{}`)); err == nil {
		t.Error("expected error when endpoint is missing")
	}
}

func TestTranscriptLanguages(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, []string{"zh-Hans", "zh-Hant", "zh-CN", "zh", "en"}},
		{[]string{"en"}, []string{"en", "zh-Hans", "zh-Hant", "zh-CN", "zh"}},
		{[]string{"zh-CN", ""}, []string{"zh-CN", "zh-Hans", "zh-Hant", "zh", "en"}},
		{[]string{"ja"}, []string{"ja", "zh-Hans", "zh-Hant", "zh-CN", "zh", "en"}},
	}
	for _, tt := range tests {
		if got := TranscriptLanguages(tt.in...); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("TranscriptLanguages(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPickBestTrack(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "u1&exp=xpe", LanguageCode: "zh-CN"},
		{BaseURL: "u2", LanguageCode: "en", Kind: "asr"},
		{BaseURL: "u3", LanguageCode: "en"},
		{BaseURL: "u4", LanguageCode: "de"},
	}
	tests := []struct {
		name  string
		langs []string
		want  string
	}{
		{"manual preferred over asr", []string{"en"}, "u3"},
		{"po token track skipped", []string{"zh-CN"}, "u2"},
		{"exact language", []string{"de"}, "u4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickBestTrack(tracks, tt.langs)
			if !ok || got.BaseURL != tt.want {
				t.Errorf("pickBestTrack() = %q, %v, want %q", got.BaseURL, ok, tt.want)
			}
		})
	}

	if _, ok := pickBestTrack([]captionTrack{{BaseURL: "x&exp=xpe"}}, nil); ok {
		t.Error("expected no usable track")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":{"b":"}"}};var x = 1;`, `{"a":{"b":"}"}}`},
		{`{"q":"say \"hi\" {"}rest`, `{"q":"say \"hi\" {"}`},
		{`{"p":"c:\\"}tail`, `{"p":"c:\\"}`},
		{`{"open":`, ``},
		{`[1]`, ``},
	}
	for _, tt := range tests {
		if got := string(extractJSON([]byte(tt.in))); got != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFetchYouTubeTranscriptFromWatchPage(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			if r.URL.Query().Get("v") != "vid00000001" {
				t.Errorf("unexpected video id %q", r.URL.Query().Get("v"))
			}
			fmt.Fprintf(w, `<html><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[`+
				`{"baseUrl":"%s/timedtext?lang=de","languageCode":"de"},`+
				`{"baseUrl":"%s/timedtext?lang=en","languageCode":"en"}]}}};</script></html>`, srv.URL, srv.URL)
		case "/timedtext":
			if r.URL.Query().Get("lang") != "en" {
				t.Errorf("picked wrong track %q", r.URL.Query().Get("lang"))
			}
			_, _ = io.WriteString(w, `<transcript><text start="0">Hello</text><text start="12.4">World</text></transcript>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	prev := ytWatchURL
	ytWatchURL = srv.URL + "/watch?v="
	t.Cleanup(func() { ytWatchURL = prev })
	engine.Init(engine.Config{HTTPClient: srv.Client()})

	got, err := FetchYouTubeTranscript(context.Background(), "vid00000001", "", []string{"en"})
	if err != nil {
		t.Fatalf("FetchYouTubeTranscript() error = %v", err)
	}
	want := "[0s](https://www.youtube.com/watch?v=vid00000001&t=0s) Hello\n" +
		"[12s](https://www.youtube.com/watch?v=vid00000001&t=12s) World"
	if got != want {
		t.Errorf("FetchYouTubeTranscript() =\n%s\nwant\n%s", got, want)
	}
}

func TestCaptionsFromPlayerNoTracks(t *testing.T) {
	var resp innertubePlayerResp
	_ = json.Unmarshal([]byte(`{"playabilityStatus":{"status":"LOGIN_REQUIRED","reason":"Sign in"}}`), &resp)
	_, err := captionsFromPlayer(context.Background(), resp, nil)
	if err == nil || err.Error() != "transcript unavailable: Sign in" {
		t.Errorf("captionsFromPlayer() error = %v", err)
	}
}
