package digestserver

import (
	"context"
	"errors"
	"strings"

	"github.com/anatolykoptev/go_ytdigest/internal/notion"
	"github.com/anatolykoptev/go_ytdigest/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NotionPublishInput is the notion_publish tool input.
type NotionPublishInput struct {
	Title   string                `json:"title" jsonschema:"Notion page title"`
	Entries []notion.SummaryEntry `json:"entries" jsonschema:"Video summaries to render, in page order"`
}

// NotionPreviewInput is the notion_preview tool input.
type NotionPreviewInput struct {
	Entries []notion.SummaryEntry `json:"entries" jsonschema:"Video summaries to render"`
}

// NotionPreviewOutput is the block list a publish would send.
type NotionPreviewOutput struct {
	BlockCount int                `json:"block_count"`
	Requests   int                `json:"requests"`
	Blocks     []notion.WireBlock `json:"blocks"`
}

func registerNotionPublish(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "notion_publish",
		Description: "Publish video summaries as a new Notion page. Each entry becomes a linked heading plus paragraph and bullet blocks; bare and timestamp links are normalised. Requires NOTION_API_KEY and a database or parent page. Returns success, page_id, page_url and the API error body on failure.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input NotionPublishInput) (*mcp.CallToolResult, notion.PublishResult, error) {
		res, err := publishEntries(ctx, d.Publisher, input)
		return nil, res, err
	})
}

func publishEntries(ctx context.Context, p *notion.Publisher, input NotionPublishInput) (notion.PublishResult, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return notion.PublishResult{}, errors.New("title is required")
	}
	if p == nil {
		return notion.PublishResult{}, errors.New("notion is not configured: set NOTION_API_KEY and NOTION_DATABASE_ID or NOTION_PARENT_PAGE_ID")
	}
	return p.Publish(ctx, title, notion.BuildBlocks(input.Entries)), nil
}

func registerNotionPreview(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "notion_preview",
		Description: "Render video summaries into Notion blocks without calling Notion. Shows exactly what notion_publish would send, including how many API requests it needs.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input NotionPreviewInput) (*mcp.CallToolResult, NotionPreviewOutput, error) {
		out, err := previewEntries(ctx, input)
		return nil, out, err
	})
}

func previewEntries(ctx context.Context, input NotionPreviewInput) (NotionPreviewOutput, error) {
	return toolutil.Cached(ctx, toolutil.InputKey("notion_preview", input), func() (NotionPreviewOutput, error) {
		blocks := notion.BuildBlocks(input.Entries)
		return NotionPreviewOutput{
			BlockCount: len(blocks),
			Requests:   max(1, (len(blocks)+notion.MaxChildrenPerRequest-1)/notion.MaxChildrenPerRequest),
			Blocks:     notion.WireBlocks(blocks),
		}, nil
	})
}
