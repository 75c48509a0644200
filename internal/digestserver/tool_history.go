package digestserver

import (
	"context"
	"errors"

	"github.com/anatolykoptev/go_ytdigest/internal/store"
	"github.com/anatolykoptev/go_ytdigest/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const maxHistoryLimit = 200

// DigestHistoryInput is the digest_history tool input.
type DigestHistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Number of runs to return, newest first (default 20, max 200)"`
}

// DigestHistoryOutput lists past digest runs.
type DigestHistoryOutput struct {
	Runs  []store.Run `json:"runs"`
	Total int         `json:"total"`
}

func registerDigestHistory(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "digest_history",
		Description: "List previous youtube_digest runs, newest first: window, video count, document path and Notion page URL or error.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input DigestHistoryInput) (*mcp.CallToolResult, DigestHistoryOutput, error) {
		out, err := listHistory(ctx, d.Store, input)
		return nil, out, err
	})
}

func listHistory(ctx context.Context, st store.Store, input DigestHistoryInput) (DigestHistoryOutput, error) {
	if st == nil {
		return DigestHistoryOutput{}, errors.New("run store is not configured")
	}
	runs, err := st.ListRuns(ctx, toolutil.NormLimit(input.Limit, store.DefaultListLimit, maxHistoryLimit))
	if err != nil {
		return DigestHistoryOutput{}, err
	}
	if runs == nil {
		runs = []store.Run{}
	}
	return DigestHistoryOutput{Runs: runs, Total: len(runs)}, nil
}
