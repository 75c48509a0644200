// Package digestserver exposes the digest pipeline and the Notion transpiler as MCP tools.
package digestserver

import (
	"github.com/anatolykoptev/go_ytdigest/internal/digest"
	"github.com/anatolykoptev/go_ytdigest/internal/notion"
	"github.com/anatolykoptev/go_ytdigest/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolCount is the number of tools RegisterTools adds.
const ToolCount = 4

// Deps are the wired components the tools call into. Publisher and Store may
// be nil when Notion or persistence is not configured.
type Deps struct {
	Runner    *digest.Runner
	Publisher *notion.Publisher
	Store     store.Store
}

// RegisterTools registers youtube_digest, notion_publish, notion_preview and
// digest_history on the given MCP server.
func RegisterTools(server *mcp.Server, d Deps) {
	registerYouTubeDigest(server, d)
	registerNotionPublish(server, d)
	registerNotionPreview(server)
	registerDigestHistory(server, d)
}
