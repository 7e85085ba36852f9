// ABOUTME: Tests for MCP server tool handlers.
// ABOUTME: Covers fleet health, log queries, event logging, archive search.
package mcp

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/sentinel/internal/config"
	"github.com/harperreed/sentinel/internal/logstore"
	"github.com/harperreed/sentinel/internal/storage"
)

func setupTestServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		SecurityLog: filepath.Join(dir, "health.json"),
		GeneralLog:  filepath.Join(dir, "general.json"),
		InboxDir:    filepath.Join(dir, "inbox"),
	}

	archive, err := storage.Open(filepath.Join(dir, "archive.db"))
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	t.Cleanup(func() { archive.Close() })

	srv, err := NewServer(cfg, archive)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return srv, cfg
}

func TestNewServer(t *testing.T) {
	srv, _ := setupTestServer(t)
	if srv.mcpServer == nil {
		t.Error("expected non-nil mcpServer")
	}
}

func TestHandleLatestHealth(t *testing.T) {
	srv, cfg := setupTestServer(t)

	log := &logstore.Log{}
	log.Append(time.Now().Add(-time.Minute), map[string]any{"disk_usage": 55.5})
	if err := logstore.Save(log, filepath.Join(cfg.InboxDir, "health_logs.web1.json")); err != nil {
		t.Fatal(err)
	}

	_, out, err := srv.handleLatestHealth(context.Background(), nil, latestHealthInput{})
	if err != nil {
		t.Fatalf("handleLatestHealth failed: %v", err)
	}
	if len(out.Hosts) != 1 {
		t.Fatalf("expected 1 host, got %d", len(out.Hosts))
	}
	if out.Hosts[0].Host != "web1" {
		t.Errorf("host = %q", out.Hosts[0].Host)
	}
	if out.Hosts[0].Fields["disk_usage"] != 55.5 {
		t.Errorf("fields = %v", out.Hosts[0].Fields)
	}
}

func TestHandleLatestHealthHostFilter(t *testing.T) {
	srv, cfg := setupTestServer(t)

	for _, host := range []string{"web1", "web2"} {
		log := &logstore.Log{}
		log.Append(time.Now(), map[string]any{"disk_usage": 10.0})
		if err := logstore.Save(log, filepath.Join(cfg.InboxDir, "health_logs."+host+".json")); err != nil {
			t.Fatal(err)
		}
	}

	_, out, err := srv.handleLatestHealth(context.Background(), nil, latestHealthInput{Host: "web2"})
	if err != nil {
		t.Fatalf("handleLatestHealth failed: %v", err)
	}
	if len(out.Hosts) != 1 || out.Hosts[0].Host != "web2" {
		t.Errorf("hosts = %v", out.Hosts)
	}
}

func TestHandleQueryLog(t *testing.T) {
	srv, cfg := setupTestServer(t)

	for i := 0; i < 3; i++ {
		if err := logstore.AppendReport(cfg.GeneralLog, map[string]any{"general": "event"}); err != nil {
			t.Fatal(err)
		}
	}

	_, out, err := srv.handleQueryLog(context.Background(), nil, queryLogInput{Log: "general", Limit: 2})
	if err != nil {
		t.Fatalf("handleQueryLog failed: %v", err)
	}
	if len(out.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(out.Entries))
	}
}

func TestHandleQueryLogUnknown(t *testing.T) {
	srv, _ := setupTestServer(t)
	_, _, err := srv.handleQueryLog(context.Background(), nil, queryLogInput{Log: "bogus"})
	if err == nil {
		t.Error("expected error for unknown log name")
	}
}

func TestHandleLogEvent(t *testing.T) {
	srv, cfg := setupTestServer(t)

	_, out, err := srv.handleLogEvent(context.Background(), nil, logEventInput{Report: `{"fetch": "done"}`})
	if err != nil {
		t.Fatalf("handleLogEvent failed: %v", err)
	}
	if out.Message != "logged" {
		t.Errorf("message = %q", out.Message)
	}

	log, err := logstore.Load(cfg.GeneralLog)
	if err != nil {
		t.Fatal(err)
	}
	if len(log.Entries) != 1 || log.Entries[0].Fields["fetch"] != "done" {
		t.Errorf("general log = %+v", log.Entries)
	}
}

func TestHandleQueryArchive(t *testing.T) {
	srv, _ := setupTestServer(t)

	entries := []logstore.Entry{
		{At: time.Now().Add(-time.Hour), Fields: map[string]any{"disk_usage": 90.0}},
	}
	if err := srv.archive.ArchiveEntries("health_logs", "web1", entries); err != nil {
		t.Fatal(err)
	}

	_, out, err := srv.handleQueryArchive(context.Background(), nil, queryArchiveInput{Log: "health_logs"})
	if err != nil {
		t.Fatalf("handleQueryArchive failed: %v", err)
	}
	if len(out.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(out.Records))
	}
	if out.Records[0].Field != "disk_usage" || out.Records[0].ValueNum == nil {
		t.Errorf("record = %+v", out.Records[0])
	}
}

func TestHandleRecentAlerts(t *testing.T) {
	srv, _ := setupTestServer(t)

	entries := []logstore.Entry{
		{At: time.Now().Add(-2 * time.Hour), Fields: map[string]any{"general": "quiet"}},
		{At: time.Now().Add(-time.Hour), Fields: map[string]any{"error": "backup failed"}},
	}
	if err := srv.archive.ArchiveEntries("general_logs", "web1", entries); err != nil {
		t.Fatal(err)
	}

	_, out, err := srv.handleRecentAlerts(context.Background(), nil, recentAlertsInput{})
	if err != nil {
		t.Fatalf("handleRecentAlerts failed: %v", err)
	}
	if len(out.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1 (general fields must not count)", len(out.Alerts))
	}
	if out.Alerts[0].Field != "error" || out.Alerts[0].ValueText == nil {
		t.Errorf("alert = %+v", out.Alerts[0])
	}
}

func TestHandleRecentAlertsNilArchive(t *testing.T) {
	cfg := &config.Config{}
	srv, err := NewServer(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := srv.handleRecentAlerts(context.Background(), nil, recentAlertsInput{}); err == nil {
		t.Error("expected error when archive is unavailable")
	}
}

func TestHandleQueryArchiveNilArchive(t *testing.T) {
	cfg := &config.Config{}
	srv, err := NewServer(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := srv.handleQueryArchive(context.Background(), nil, queryArchiveInput{}); err == nil {
		t.Error("expected error when archive is unavailable")
	}
}
