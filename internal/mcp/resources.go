// ABOUTME: MCP resource implementations for the monitoring suite.
// ABOUTME: Provides sentinel://fleet, a snapshot of every shipped log.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harperreed/sentinel/internal/logstore"
	"github.com/harperreed/sentinel/internal/ship"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	// sentinel://fleet - latest entry of every shipped log in the inbox
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "sentinel://fleet",
		Name:        "Fleet Snapshot",
		Description: "Latest entry from every shipped log in the inbox",
		MIMEType:    "application/json",
	}, s.handleFleetResource)
}

type fleetFile struct {
	Host       string         `json:"host"`
	Convention string         `json:"convention"`
	UpdatedAt  string         `json:"updated_at"`
	Latest     map[string]any `json:"latest,omitempty"`
}

func (s *Server) handleFleetResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if s.cfg.InboxDir == "" {
		return nil, fmt.Errorf("no inbox directory configured (BOT_DIRECTORY)")
	}

	entries, err := os.ReadDir(s.cfg.InboxDir)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}

	var files []fleetFile
	for _, e := range entries {
		convention := ship.ConventionFor(e.Name())
		if e.IsDir() || convention == "" {
			continue
		}

		f := fleetFile{
			Host:       ship.HostFor(e.Name()),
			Convention: convention,
		}
		if info, err := e.Info(); err == nil {
			f.UpdatedAt = info.ModTime().Format(time.RFC3339)
		}
		if log, err := logstore.Load(filepath.Join(s.cfg.InboxDir, e.Name())); err == nil {
			if latest, ok := log.Latest(); ok {
				f.Latest = latest.Fields
			}
		}
		files = append(files, f)
	}

	data, err := json.MarshalIndent(map[string]any{"files": files}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      "sentinel://fleet",
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
