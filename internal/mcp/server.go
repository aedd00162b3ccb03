package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/Kylob/Sitemap/internal/config"
	"github.com/Kylob/Sitemap/internal/searcher"
	"github.com/Kylob/Sitemap/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "sitemap-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	store    *storage.Store
	searcher *searcher.Searcher
	cfg      *config.Config
}

// NewServer creates a new MCP server instance over an open store.
func NewServer(store *storage.Store, cfg *config.Config) (*Server, error) {
	srch, err := searcher.New(store, cfg.BaseURL, cfg.Suffix, cfg.Search.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize searcher: %w", err)
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		store:    store,
		searcher: srch,
		cfg:      cfg,
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchPagesTool(), s.handleSearchPages)
	s.mcp.AddTool(countPagesTool(), s.handleCountPages)
	s.mcp.AddTool(matchedWordsTool(), s.handleMatchedWords)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
