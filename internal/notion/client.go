package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anatolykoptev/go_ytdigest/internal/engine"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	APIVersion     = "2022-06-28"
	DefaultTimeout = 60 * time.Second
)

// Config holds the Notion integration settings.
type Config struct {
	APIKey       string
	DatabaseID   string // preferred parent when set
	ParentPageID string
	BaseURL      string
	Timeout      time.Duration
}

// Configured reports whether cfg has a token and a parent to write under.
func (c Config) Configured() bool {
	return c.APIKey != "" && (c.DatabaseID != "" || c.ParentPageID != "")
}

// Page identifies a created Notion page.
type Page struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// APIError is a non-2xx answer from the Notion API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: status %d: %s", e.Status, e.Body)
}

// Client talks to the Notion REST API.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Notion client. It rejects configs without a token or parent.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("notion: NOTION_API_KEY is required")
	}
	if cfg.DatabaseID == "" && cfg.ParentPageID == "" {
		return nil, errors.New("notion: NOTION_DATABASE_ID or NOTION_PARENT_PAGE_ID is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type richTextTitle struct {
	Title []WireRichText `json:"title"`
}

type createPageReq struct {
	Properties map[string]richTextTitle `json:"properties"`
	Parent     map[string]string        `json:"parent"`
	Children   []WireBlock              `json:"children"`
}

type appendChildrenReq struct {
	Children []WireBlock `json:"children"`
}

// CreatePage creates a page titled title under the configured parent with the
// given first batch of children.
func (c *Client) CreatePage(ctx context.Context, title string, children []Block) (Page, error) {
	engine.IncrNotionPageCreates()

	parent := map[string]string{"page_id": c.cfg.ParentPageID}
	if c.cfg.DatabaseID != "" {
		parent = map[string]string{"database_id": c.cfg.DatabaseID}
	}
	body := createPageReq{
		Properties: map[string]richTextTitle{
			"title": {Title: []WireRichText{Plain(title).Wire()}},
		},
		Parent:   parent,
		Children: WireBlocks(children),
	}

	data, err := c.do(ctx, http.MethodPost, "/pages", body)
	if err != nil {
		return Page{}, fmt.Errorf("notion create page: %w", err)
	}
	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return Page{}, fmt.Errorf("notion create page: decode: %w", err)
	}
	return page, nil
}

// AppendChildren appends blocks to the children of blockID.
func (c *Client) AppendChildren(ctx context.Context, blockID string, children []Block) error {
	engine.IncrNotionAppends()

	path := "/blocks/" + url.PathEscape(blockID) + "/children"
	if _, err := c.do(ctx, http.MethodPatch, path, appendChildrenReq{Children: WireBlocks(children)}); err != nil {
		return fmt.Errorf("notion append children: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", APIVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		engine.IncrNotionErrors()
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		engine.IncrNotionErrors()
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		engine.IncrNotionErrors()
		return nil, &APIError{Status: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
