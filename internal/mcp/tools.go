// ABOUTME: MCP tool implementations for sentinel logs and the archive.
// ABOUTME: Covers fleet health, log queries, event logging, and archive search.
package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harperreed/sentinel/internal/logstore"
	"github.com/harperreed/sentinel/internal/monitor"
	"github.com/harperreed/sentinel/internal/ship"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// latest_health
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "latest_health",
		Description: "Latest health sample for every host that ships logs here",
	}, s.handleLatestHealth)

	// query_log
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "query_log",
		Description: "Recent entries from this host's security or general log",
	}, s.handleQueryLog)

	// log_event
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_event",
		Description: "Append a report to this host's general log",
	}, s.handleLogEvent)

	// query_archive
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "query_archive",
		Description: "Search archived log entries that were pruned from live logs",
	}, s.handleQueryArchive)

	// recent_alerts
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "recent_alerts",
		Description: "Archived alarm entries (alert/error fields), newest first",
	}, s.handleRecentAlerts)
}

// Tool input/output types

type latestHealthInput struct {
	Host string `json:"host,omitempty" jsonschema:"Only report this host"`
}

type hostHealth struct {
	Host       string         `json:"host"`
	RecordedAt string         `json:"recorded_at"`
	Fields     map[string]any `json:"fields"`
}

type latestHealthOutput struct {
	Hosts []hostHealth `json:"hosts"`
}

type queryLogInput struct {
	Log   string `json:"log" jsonschema:"Which log to read: security or general"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max entries (default 20)"`
}

type logEntryOutput struct {
	RecordedAt string         `json:"recorded_at"`
	Fields     map[string]any `json:"fields"`
}

type queryLogOutput struct {
	Entries []logEntryOutput `json:"entries"`
}

type logEventInput struct {
	Report string `json:"report" jsonschema:"JSON object or plain message to log"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

type queryArchiveInput struct {
	Log   string `json:"log,omitempty" jsonschema:"Filter by log name: health_logs or general_logs"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max records (default 50)"`
}

type archiveRecordOutput struct {
	Host       string   `json:"host"`
	LogName    string   `json:"log_name"`
	RecordedAt string   `json:"recorded_at"`
	Field      string   `json:"field"`
	ValueNum   *float64 `json:"value_num,omitempty"`
	ValueText  *string  `json:"value_text,omitempty"`
}

type queryArchiveOutput struct {
	Records []archiveRecordOutput `json:"records"`
}

type recentAlertsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max alerts (default 20)"`
}

type recentAlertsOutput struct {
	Alerts []archiveRecordOutput `json:"alerts"`
}

// Tool handlers

func (s *Server) handleLatestHealth(ctx context.Context, req *mcp.CallToolRequest, input latestHealthInput) (*mcp.CallToolResult, latestHealthOutput, error) {
	if s.cfg.InboxDir == "" {
		return nil, latestHealthOutput{}, fmt.Errorf("no inbox directory configured (BOT_DIRECTORY)")
	}

	entries, err := os.ReadDir(s.cfg.InboxDir)
	if err != nil {
		return nil, latestHealthOutput{}, fmt.Errorf("read inbox: %w", err)
	}

	var out latestHealthOutput
	for _, e := range entries {
		if e.IsDir() || ship.ConventionFor(e.Name()) != ship.HealthConvention {
			continue
		}
		host := ship.HostFor(e.Name())
		if input.Host != "" && host != input.Host {
			continue
		}
		log, err := logstore.Load(filepath.Join(s.cfg.InboxDir, e.Name()))
		if err != nil {
			continue
		}
		latest, ok := log.Latest()
		if !ok {
			continue
		}
		out.Hosts = append(out.Hosts, hostHealth{
			Host:       host,
			RecordedAt: latest.At.Format(time.RFC3339),
			Fields:     latest.Fields,
		})
	}
	return nil, out, nil
}

func (s *Server) handleQueryLog(ctx context.Context, req *mcp.CallToolRequest, input queryLogInput) (*mcp.CallToolResult, queryLogOutput, error) {
	var path string
	switch input.Log {
	case "security":
		path = s.cfg.SecurityLog
	case "general":
		path = s.cfg.GeneralLog
	default:
		return nil, queryLogOutput{}, fmt.Errorf("unknown log: %s (use security or general)", input.Log)
	}
	if path == "" {
		return nil, queryLogOutput{}, fmt.Errorf("log path not configured for %s", input.Log)
	}

	log, err := logstore.Load(path)
	if err != nil {
		return nil, queryLogOutput{}, fmt.Errorf("load log: %w", err)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	entries := log.Entries
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	var out queryLogOutput
	for _, e := range entries {
		out.Entries = append(out.Entries, logEntryOutput{
			RecordedAt: e.At.Format(time.RFC3339),
			Fields:     e.Fields,
		})
	}
	return nil, out, nil
}

func (s *Server) handleLogEvent(ctx context.Context, req *mcp.CallToolRequest, input logEventInput) (*mcp.CallToolResult, simpleOutput, error) {
	if s.cfg.GeneralLog == "" {
		return nil, simpleOutput{}, fmt.Errorf("general log not configured (GENERAL_LOGFILE)")
	}

	fields, err := logstore.ParseReport(input.Report)
	if err != nil {
		return nil, simpleOutput{}, err
	}
	if err := logstore.AppendReport(s.cfg.GeneralLog, fields); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("append report: %w", err)
	}
	return nil, simpleOutput{Message: "logged"}, nil
}

func (s *Server) handleQueryArchive(ctx context.Context, req *mcp.CallToolRequest, input queryArchiveInput) (*mcp.CallToolResult, queryArchiveOutput, error) {
	if s.archive == nil {
		return nil, queryArchiveOutput{}, fmt.Errorf("archive not available")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	records, err := s.archive.ListRecords(input.Log, limit)
	if err != nil {
		return nil, queryArchiveOutput{}, fmt.Errorf("list archive: %w", err)
	}

	var out queryArchiveOutput
	for _, r := range records {
		out.Records = append(out.Records, archiveRecordOutput{
			Host:       r.Host,
			LogName:    r.LogName,
			RecordedAt: r.RecordedAt.Format(time.RFC3339),
			Field:      r.Field,
			ValueNum:   r.ValueNum,
			ValueText:  r.ValueText,
		})
	}
	return nil, out, nil
}

func (s *Server) handleRecentAlerts(ctx context.Context, req *mcp.CallToolRequest, input recentAlertsInput) (*mcp.CallToolResult, recentAlertsOutput, error) {
	if s.archive == nil {
		return nil, recentAlertsOutput{}, fmt.Errorf("archive not available")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	records, err := s.archive.ListAlerts(monitor.DefaultAlarmWords, limit)
	if err != nil {
		return nil, recentAlertsOutput{}, fmt.Errorf("list alerts: %w", err)
	}

	var out recentAlertsOutput
	for _, r := range records {
		out.Alerts = append(out.Alerts, archiveRecordOutput{
			Host:       r.Host,
			LogName:    r.LogName,
			RecordedAt: r.RecordedAt.Format(time.RFC3339),
			Field:      r.Field,
			ValueNum:   r.ValueNum,
			ValueText:  r.ValueText,
		})
	}
	return nil, out, nil
}
