package digestserver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anatolykoptev/go_ytdigest/internal/digest"
	"github.com/anatolykoptev/go_ytdigest/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerYouTubeDigest(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_digest",
		Description: "Build a digest of new videos from the authenticated user's YouTube subscriptions: discovers uploads in a time window, summarises each from its transcript with timestamp links, writes a Markdown document and publishes it as a Notion page. Returns run_id, video_count, document_path and the Notion page URL or error.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input digest.Options) (*mcp.CallToolResult, digest.Result, error) {
		res, err := runDigest(ctx, d, input)
		return nil, res, err
	})
}

func runDigest(ctx context.Context, d Deps, input digest.Options) (digest.Result, error) {
	if d.Runner == nil {
		return digest.Result{}, errors.New("digest pipeline is not configured")
	}
	input.Language = toolutil.NormLang(input.Language, d.Runner.Language)
	res, err := d.Runner.Run(ctx, input)
	if err != nil {
		slog.Warn("youtube_digest: run failed", slog.Any("error", err))
		return digest.Result{}, err
	}
	return res, nil
}
