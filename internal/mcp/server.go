// ABOUTME: MCP server setup for the sentinel monitoring suite.
// ABOUTME: Exposes local logs, the fleet inbox, and the archive to assistants.
package mcp

import (
	"context"

	"github.com/harperreed/sentinel/internal/config"
	"github.com/harperreed/sentinel/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with sentinel's config and archive.
type Server struct {
	mcpServer *mcp.Server
	cfg       *config.Config
	archive   *storage.Archive
}

// NewServer creates a new MCP server. The archive may be nil when the
// host has never archived anything; archive tools then return errors.
func NewServer(cfg *config.Config, archive *storage.Archive) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "sentinel",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		cfg:       cfg,
		archive:   archive,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
