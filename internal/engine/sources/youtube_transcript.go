package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_ytdigest/internal/engine"
	"golang.org/x/net/html"
)

// YouTube transcript fetching.
// Primary:  watch page ytInitialPlayerResponse → caption XML (works from any IP)
// Fallback: /next → engagement panel → /get_transcript  (works from datacenter IPs)
// Fallback: ANDROID Innertube /player → captionTracks   (works from non-blocked IPs)
//
// Every path yields timed lines, rendered as "[Ns](url&t=Ns) text" so the
// summariser can cite positions in the video.

// DefaultTranscriptLanguages are tried after the caller's preferred languages.
var DefaultTranscriptLanguages = []string{"zh-Hans", "zh-Hant", "zh-CN", "zh", "en"}

// ErrNoTranscript reports a video without any usable caption track.
var ErrNoTranscript = errors.New("transcript unavailable")

// timedLine is one caption cue.
type timedLine struct {
	Seconds int
	Text    string
}

// TranscriptLanguages returns preferred followed by the defaults, deduplicated.
func TranscriptLanguages(preferred ...string) []string {
	return engine.UniqueStrings(append(append([]string{}, preferred...), DefaultTranscriptLanguages...))
}

// TimestampURL returns a link that starts playback at seconds. videoURL falls
// back to the canonical watch URL when empty.
func TimestampURL(videoID, videoURL string, seconds int) string {
	base := strings.TrimSpace(videoURL)
	if base == "" {
		base = engine.WatchURL(videoID)
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%st=%ds", base, sep, max(seconds, 0))
}

// formatTranscript renders cues one per line with a leading timestamp link.
func formatTranscript(lines []timedLine, videoID, videoURL string) string {
	var sb strings.Builder
	for _, l := range lines {
		text := strings.TrimSpace(l.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		secs := max(l.Seconds, 0)
		fmt.Fprintf(&sb, "[%ds](%s) %s", secs, TimestampURL(videoID, videoURL, secs), text)
	}
	return sb.String()
}

// parseSeconds truncates a fractional seconds string; bad input is 0.
func parseSeconds(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}

// getTranscriptRE extracts the continuation token from a raw /next JSON response.
var getTranscriptRE = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

func extractTranscriptToken(data []byte) (string, error) {
	if m := getTranscriptRE.FindSubmatch(data); len(m) >= 2 {
		// The params value in the /next JSON response is URL-encoded.
		// /get_transcript expects the decoded (raw base64) form.
		decoded, err := url.QueryUnescape(string(m[1]))
		if err != nil {
			return string(m[1]), nil
		}
		return decoded, nil
	}
	return "", errors.New("getTranscriptEndpoint not found in engagement panels")
}

// parseTranscriptSegments extracts timed cues from a /get_transcript JSON response.
func parseTranscriptSegments(resp ytGetTranscriptResp) []timedLine {
	var lines []timedLine
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		segs := action.UpdateEngagementPanelAction.Content.
			TranscriptRenderer.Content.
			TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, seg := range segs {
			r := seg.TranscriptSegmentRenderer
			if r == nil {
				continue
			}
			var parts []string
			for _, run := range r.Snippet.Runs {
				if run.Text != "" {
					parts = append(parts, run.Text)
				}
			}
			if len(parts) == 0 {
				continue
			}
			ms, _ := strconv.Atoi(r.StartMs)
			lines = append(lines, timedLine{Seconds: ms / 1000, Text: strings.Join(parts, " ")})
		}
	}
	return lines
}

// parseTimedText decodes a timedtext XML document. Cue text arrives with
// HTML entities escaped a second time ("&amp;#39;"), so it is unescaped after
// the XML decode.
func parseTimedText(body []byte) ([]timedLine, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}
	lines := make([]timedLine, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := engine.CleanHTML(html.UnescapeString(line.Text))
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			continue
		}
		lines = append(lines, timedLine{Seconds: parseSeconds(line.Start), Text: text})
	}
	return lines, nil
}

// fetchTranscriptViaEngagementPanel fetches a transcript via:
//  1. POST /next → get engagementPanels containing transcript continuation token
//  2. POST /get_transcript with the token → JSON segments
//
// This approach works from datacenter IPs where /player returns LOGIN_REQUIRED.
func fetchTranscriptViaEngagementPanel(ctx context.Context, videoID string) ([]timedLine, error) {
	visitorData := generateVisitorData()
	headers := webHeaders(visitorData)

	nextData, err := postInnerTube(ctx, ytNextURL, map[string]any{
		"videoId": videoID,
		"context": ytWebContext(visitorData),
	}, headers)
	if err != nil {
		return nil, fmt.Errorf("/next: %w", err)
	}

	token, err := extractTranscriptToken(nextData)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}

	transcriptData, err := postInnerTube(ctx, ytGetTranscriptURL, map[string]any{
		"params":  token,
		"context": map[string]any{"client": ytWebClient(visitorData)},
	}, headers)
	if err != nil {
		return nil, fmt.Errorf("/get_transcript: %w", err)
	}

	var transcriptResp ytGetTranscriptResp
	if err := json.Unmarshal(transcriptData, &transcriptResp); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	lines := parseTranscriptSegments(transcriptResp)
	if len(lines) == 0 {
		return nil, errors.New("empty transcript segments")
	}
	return lines, nil
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the given language preferences.
// Skips tracks that require PoToken: those only work in a browser.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	// 1. Manual track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	// 2. Auto-generated track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	// 3. Any English track
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// fetchTimedText fetches and parses a YouTube timedtext XML caption URL.
func fetchTimedText(ctx context.Context, baseURL string) ([]timedLine, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &engine.StatusError{StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}
	return parseTimedText(body)
}

// captionsFromPlayer picks a track from a player response and fetches it.
func captionsFromPlayer(ctx context.Context, playerResp innertubePlayerResp, langs []string) ([]timedLine, error) {
	tracks := playerResp.tracks()
	if len(tracks) == 0 {
		if ps := playerResp.PlayabilityStatus; ps != nil && ps.Reason != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoTranscript, ps.Reason)
		}
		return nil, fmt.Errorf("%w: no caption tracks", ErrNoTranscript)
	}
	track, ok := pickBestTrack(tracks, langs)
	if !ok {
		return nil, errors.New("all caption tracks require PoToken")
	}
	return fetchTimedText(ctx, track.BaseURL)
}

// fetchTranscriptViaPlayer uses the ANDROID Innertube /player endpoint.
// Works from non-blocked (residential/cloud) IP addresses.
func fetchTranscriptViaPlayer(ctx context.Context, videoID string, langs []string) ([]timedLine, error) {
	data, err := postInnerTube(ctx, ytInnertubeURL, innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	}, androidHeaders())
	if err != nil {
		return nil, fmt.Errorf("android innertube: %w", err)
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(data, &playerResp); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return captionsFromPlayer(ctx, playerResp, langs)
}

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// fetchTranscriptViaPageScrape scrapes the YouTube watch page HTML and extracts
// the caption track XML URL from ytInitialPlayerResponse. Works from any IP.
func fetchTranscriptViaPageScrape(ctx context.Context, videoID string, langs []string) ([]timedLine, error) {
	body, err := engine.FetchPage(ctx, ytWatchURL+url.QueryEscape(videoID), map[string]string{
		"accept-language": "en-US,en;q=0.9",
	})
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}

	idx := strings.Index(string(body), ytInitialPlayerResponseMarker)
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return captionsFromPlayer(ctx, playerResp, langs)
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// FetchYouTubeTranscript fetches the transcript for a YouTube video and renders
// it as timestamped lines linking back into videoURL. It tries the watch page
// first, then the engagement panel, then the ANDROID player.
func FetchYouTubeTranscript(ctx context.Context, videoID, videoURL string, langs []string) (string, error) {
	engine.IncrYouTubeTranscript()
	if len(langs) == 0 {
		langs = DefaultTranscriptLanguages
	}

	lines, err := fetchTranscriptViaPageScrape(ctx, videoID, langs)
	if err != nil {
		slog.Warn("youtube: page scrape failed, trying engagement panel",
			slog.String("id", videoID), slog.Any("err", err))
		lines, err = fetchTranscriptViaEngagementPanel(ctx, videoID)
	}
	if err != nil {
		slog.Warn("youtube: engagement panel failed, trying player",
			slog.String("id", videoID), slog.Any("err", err))
		lines, err = fetchTranscriptViaPlayer(ctx, videoID, langs)
	}
	if err != nil {
		return "", err
	}

	text := formatTranscript(lines, videoID, videoURL)
	if text == "" {
		return "", ErrNoTranscript
	}
	return text, nil
}
