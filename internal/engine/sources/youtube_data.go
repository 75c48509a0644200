package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_ytdigest/internal/engine"
	"golang.org/x/oauth2"
)

// YouTube Data API v3: subscription listing and per-channel upload search.
// subscriptions.list?mine=true needs a user token, so the client is built from
// an OAuth refresh token rather than an API key.

const (
	ytPageSize      = 50
	ytReadonlyScope = "https://www.googleapis.com/auth/youtube.readonly"
)

// googleEndpoint is Google's OAuth 2.0 endpoint.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// ErrYouTubeNotConfigured is returned when OAuth credentials are missing.
var ErrYouTubeNotConfigured = errors.New("youtube: YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET and YOUTUBE_REFRESH_TOKEN are required")

// SubscriptionConfig holds what SubscriptionClient needs to reach the Data API.
type SubscriptionConfig struct {
	APIBase      string
	APIKey       string // optional, sent as the key query parameter
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string       // empty = Google
	HTTPClient   *http.Client // base transport for token and API calls
}

// SubscriptionConfigFromEngine reads the YouTube settings from engine.Cfg.
func SubscriptionConfigFromEngine() SubscriptionConfig {
	return SubscriptionConfig{
		APIBase:      engine.Cfg.YouTubeAPIBase,
		APIKey:       engine.Cfg.YouTubeAPIKey,
		ClientID:     engine.Cfg.YouTubeClientID,
		ClientSecret: engine.Cfg.YouTubeClientSecret,
		RefreshToken: engine.Cfg.YouTubeRefreshToken,
		HTTPClient:   engine.Cfg.HTTPClient,
	}
}

// SubscriptionClient lists the authorised user's subscriptions and their uploads.
type SubscriptionClient struct {
	http   *http.Client
	base   string
	apiKey string
}

// NewSubscriptionClient builds a client whose requests carry an access token
// refreshed from c.RefreshToken.
func NewSubscriptionClient(ctx context.Context, c SubscriptionConfig) (*SubscriptionClient, error) {
	if c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "" {
		return nil, ErrYouTubeNotConfigured
	}
	endpoint := googleEndpoint
	if c.TokenURL != "" {
		endpoint.TokenURL = c.TokenURL
	}
	conf := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       []string{ytReadonlyScope},
	}
	if c.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
	}
	base := c.APIBase
	if base == "" {
		base = engine.DefaultYouTubeAPIBase
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("youtube: invalid api base: %w", err)
	}
	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken})
	return &SubscriptionClient{
		http:   oauth2.NewClient(ctx, ts),
		base:   strings.TrimRight(base, "/"),
		apiKey: c.APIKey,
	}, nil
}

// --- Data API response types ---

type ytPage struct {
	NextPageToken string `json:"nextPageToken"`
}

type ytSubscriptionsResp struct {
	ytPage
	Items []struct {
		Snippet struct {
			ResourceID struct {
				ChannelID string `json:"channelId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

type ytSearchResp struct {
	ytPage
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			PublishedAt  string `json:"publishedAt"`
			ChannelID    string `json:"channelId"`
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

func (c *SubscriptionClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	engine.IncrYouTubeAPI()
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	apiURL := c.base + path + "?" + params.Encode()

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	})
	if err != nil {
		return fmt.Errorf("youtube %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("youtube %s: %w", path, &engine.StatusError{StatusCode: resp.StatusCode, Body: string(body)})
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode youtube %s: %w", path, err)
	}
	return nil
}

// ListSubscriptionChannelIDs returns the channel IDs the user subscribes to,
// in alphabetical order of channel title.
func (c *SubscriptionClient) ListSubscriptionChannelIDs(ctx context.Context) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("mine", "true")
		params.Set("maxResults", strconv.Itoa(ytPageSize))
		params.Set("order", "alphabetical")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page ytSubscriptionsResp
		if err := c.getJSON(ctx, "/subscriptions", params, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if id := item.Snippet.ResourceID.ChannelID; id != "" {
				ids = append(ids, id)
			}
		}
		if page.NextPageToken == "" {
			return ids, nil
		}
		pageToken = page.NextPageToken
	}
}

// VideoQuery bounds a FetchVideosForChannels call. A zero End leaves the
// window open; MaxPerChannel <= 0 means no cap.
type VideoQuery struct {
	Start         time.Time
	End           time.Time
	MaxPerChannel int
}

// FetchVideosForChannels returns uploads of channelIDs published inside the
// query window, oldest first. A channel whose search fails is logged and skipped.
func (c *SubscriptionClient) FetchVideosForChannels(ctx context.Context, channelIDs []string, q VideoQuery) ([]engine.Video, error) {
	var videos []engine.Video
	for _, channelID := range channelIDs {
		found, err := c.fetchChannelVideos(ctx, channelID, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("youtube: channel search failed",
				slog.String("channel_id", channelID), slog.Any("error", err))
			continue
		}
		videos = append(videos, found...)
	}
	slices.SortStableFunc(videos, func(a, b engine.Video) int {
		return a.PublishedAt.Compare(b.PublishedAt)
	})
	return videos, nil
}

func (c *SubscriptionClient) fetchChannelVideos(ctx context.Context, channelID string, q VideoQuery) ([]engine.Video, error) {
	engine.IncrYouTubeSearch()
	var videos []engine.Video
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("channelId", channelID)
		params.Set("type", "video")
		params.Set("order", "date")
		params.Set("maxResults", strconv.Itoa(ytPageSize))
		params.Set("publishedAfter", q.Start.UTC().Format(time.RFC3339))
		if !q.End.IsZero() {
			params.Set("publishedBefore", q.End.UTC().Format(time.RFC3339))
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page ytSearchResp
		if err := c.getJSON(ctx, "/search", params, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			published, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
			if err != nil || item.ID.VideoID == "" {
				continue
			}
			if published.Before(q.Start) || (!q.End.IsZero() && published.After(q.End)) {
				continue
			}
			videos = append(videos, engine.Video{
				ID:           item.ID.VideoID,
				Title:        item.Snippet.Title,
				Description:  item.Snippet.Description,
				ChannelID:    item.Snippet.ChannelID,
				ChannelTitle: item.Snippet.ChannelTitle,
				PublishedAt:  published.UTC(),
				URL:          engine.WatchURL(item.ID.VideoID),
			})
			if q.MaxPerChannel > 0 && len(videos) >= q.MaxPerChannel {
				return videos, nil
			}
		}
		if page.NextPageToken == "" {
			return videos, nil
		}
		pageToken = page.NextPageToken
	}
}
