// ABOUTME: CLI command for running the MCP server over stdio.
// ABOUTME: Exposes logs, fleet health, and the archive to AI assistants.
package main

import (
	"fmt"

	"github.com/harperreed/sentinel/internal/mcp"
	"github.com/harperreed/sentinel/internal/storage"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server using stdio transport.

Exposes tools for fleet health, log queries, event logging, and the
archive of pruned entries. Add to your assistant's MCP config:

  {
    "mcpServers": {
      "sentinel": { "command": "sentinel", "args": ["mcp"] }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := storage.Open(storage.DefaultPath(cfg.GetDataDir()))
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer archive.Close()

		server, err := mcp.NewServer(cfg, archive)
		if err != nil {
			return fmt.Errorf("failed to create MCP server: %w", err)
		}
		return server.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
