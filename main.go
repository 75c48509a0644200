// Command go_ytdigest is the YouTube subscription digest MCP server.
//
// Exposes four MCP tools: youtube_digest, notion_publish, notion_preview,
// digest_history. Runs as HTTP MCP server or stdio transport.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_ytdigest/internal/app"
	"github.com/anatolykoptev/go_ytdigest/internal/digestserver"
	"github.com/anatolykoptev/go_ytdigest/internal/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var version = "dev"

func main() {
	cfg := app.LoadConfig()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: app.ParseLevel(cfg.LogLevel)})))

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer a.Close()

	slog.Info("starting go_ytdigest",
		slog.String("port", cfg.MCPPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_ytdigest",
		Version: version,
	}, nil)

	digestserver.RegisterTools(server, digestserver.Deps{
		Runner:    a.Runner,
		Publisher: a.Publisher,
		Store:     a.Store,
	})
	slog.Info("tools registered", slog.Int("count", digestserver.ToolCount))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_ytdigest",
		Version:      version,
		Port:         cfg.MCPPort,
		WriteTimeout: 1800 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}
