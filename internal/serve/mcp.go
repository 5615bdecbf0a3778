package serve

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentic-research/sitemap/internal/graph"
	"github.com/agentic-research/sitemap/internal/sitemap"
)

// NewMCPServer exposes sm as MCP tools.
func NewMCPServer(sm *sitemap.Provider, version string) *server.MCPServer {
	s := server.NewMCPServer("sitemap", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	t := &tools{sm: sm}

	s.AddTool(mcp.NewTool("sitemap_tree",
		mcp.WithDescription("Return the whole site map tree as JSON."),
	), t.tree)
	s.AddTool(mcp.NewTool("sitemap_node",
		mcp.WithDescription("Return one node by key, with its parent key, resolved URL and children."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Node key")),
	), t.node)
	s.AddTool(mcp.NewTool("sitemap_role",
		mcp.WithDescription("List the visible nodes granted to a role. Nodes granted to \"*\" are always included."),
		mcp.WithString("role", mcp.Required(), mcp.Description("Role name")),
	), t.role)
	s.AddTool(mcp.NewTool("sitemap_invalidate",
		mcp.WithDescription("Drop the cached tree. The next request rebuilds it from the sources."),
	), t.invalidate)
	return s
}

type tools struct {
	sm *sitemap.Provider
}

func (t *tools) tree(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tr, err := t.sm.Tree(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toJSON(graph.Export(tr.Root()))), nil
}

func (t *tools) node(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tr, err := t.sm.Tree(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := tr.FindByKey(key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toJSON(detail(ctx, t.sm, n))), nil
}

func (t *tools) role(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	role, err := req.RequireString("role")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tr, err := t.sm.Tree(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toJSON(inRole(ctx, t.sm, tr, role))), nil
}

func (t *tools) invalidate(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.sm.Invalidate(ctx)
	return mcp.NewToolResultText("invalidated " + t.sm.Name()), nil
}
