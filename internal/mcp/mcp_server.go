// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/oedokumaci/catalogsync/internal/contract"
)

// NewMCPServer initializes and configures the catalogsync MCP server without starting it.
// src may be nil, in which case refresh_catalog reports a tool error.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager, src contract.CatalogSource, logger *slog.Logger) *server.MCPServer {
	s, _ := newServer(baseCfg, mgr, src, logger)
	return s
}

func newServer(baseCfg *contract.Config, mgr contract.CacheManager, src contract.CatalogSource, logger *slog.Logger) (*server.MCPServer, *toolHandler) {
	s := server.NewMCPServer(
		"Catalog Sync Server",
		"1.0.0",
		server.WithLogging(),
	)

	if logger == nil {
		logger = contract.DiscardLogger()
	}
	h := newToolHandler(baseCfg, mgr, src, logger)

	// --- 1. Tool: list_entries ---
	s.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List catalog entries below a key prefix from the current snapshot."),
		mcp.WithString("prefix", mcp.Description("Slash-separated key prefix (e.g. 'raw/events'). Empty lists from the root.")),
		mcp.WithString("view", mcp.Description("Listing view. Defaults to the configured view."), mcp.Enum("flat", "directory")),
	), h.handleListEntries)

	// --- 2. Tool: group_entries ---
	s.AddTool(mcp.NewTool("group_entries",
		mcp.WithDescription("Group catalog entries below a key prefix into child namespaces with entry counts."),
		mcp.WithString("prefix", mcp.Description("Slash-separated key prefix. Empty groups from the root.")),
	), h.handleGroupEntries)

	// --- 3. Tool: refresh_catalog ---
	s.AddTool(mcp.NewTool("refresh_catalog",
		mcp.WithDescription("Fetch the catalog from the configured source once and update the cached snapshot. Fails if a refresh is already running."),
	), h.handleRefreshCatalog)

	// --- 4. Tool: cache_status ---
	s.AddTool(mcp.NewTool("cache_status",
		mcp.WithDescription("Report the snapshot cache backend, the stored snapshot version and the sync run history."),
	), h.handleCacheStatus)

	return s, h
}

// StartMCPServer starts the catalogsync MCP server over stdio.
// The refresh controller is stopped once the server returns.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager, src contract.CatalogSource, logger *slog.Logger) error {
	s, h := newServer(baseCfg, mgr, src, logger)
	defer h.close()
	return server.ServeStdio(s)
}
