// ABOUTME: Tests for inbox scanning: thresholds, staleness, alarm words.
// ABOUTME: Builds shipped-log fixtures in temp inbox directories.
package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/sentinel/internal/logstore"
)

func writeInboxLog(t *testing.T, inbox, name string, log *logstore.Log) string {
	t.Helper()
	path := filepath.Join(inbox, name)
	if err := logstore.Save(log, path); err != nil {
		t.Fatalf("write inbox log: %v", err)
	}
	return path
}

func TestScanHealthEmptyInbox(t *testing.T) {
	res, err := ScanHealth(t.TempDir(), map[string]float64{"disk_usage": 95}, time.Time{}, time.Now())
	if err != nil {
		t.Fatalf("ScanHealth failed: %v", err)
	}
	if !strings.Contains(res.Heartbeat, "no health_logs logs found") {
		t.Errorf("heartbeat = %q", res.Heartbeat)
	}
}

func TestScanHealthThresholdBreach(t *testing.T) {
	inbox := t.TempDir()
	now := time.Now()

	log := &logstore.Log{}
	log.Append(now.Add(-10*time.Minute), map[string]any{"disk_usage": 96.5})
	writeInboxLog(t, inbox, "health_logs.web1.json", log)

	res, err := ScanHealth(inbox, map[string]float64{"disk_usage": 95}, time.Time{}, now)
	if err != nil {
		t.Fatalf("ScanHealth failed: %v", err)
	}
	if !strings.Contains(res.Alerts, "web1 ==>  disk_usage (96.5) exceeds threshold (95)") {
		t.Errorf("alerts = %q", res.Alerts)
	}
	if !strings.Contains(res.Heartbeat, "web1 ==>") || !strings.Contains(res.Heartbeat, "disk_usage: 96.5") {
		t.Errorf("heartbeat = %q", res.Heartbeat)
	}
	if !res.NewCursor.After(time.Time{}) {
		t.Error("cursor did not advance")
	}
}

func TestScanHealthBelowThreshold(t *testing.T) {
	inbox := t.TempDir()
	now := time.Now()

	log := &logstore.Log{}
	log.Append(now.Add(-10*time.Minute), map[string]any{"disk_usage": 40.0})
	writeInboxLog(t, inbox, "health_logs.web1.json", log)

	res, err := ScanHealth(inbox, map[string]float64{"disk_usage": 95}, time.Time{}, now)
	if err != nil {
		t.Fatalf("ScanHealth failed: %v", err)
	}
	if res.Alerts != "" {
		t.Errorf("expected no alerts, got %q", res.Alerts)
	}
	if !strings.Contains(res.Heartbeat, "disk_usage: 40") {
		t.Errorf("heartbeat = %q", res.Heartbeat)
	}
}

func TestScanHealthCursorSkipsInspected(t *testing.T) {
	inbox := t.TempDir()
	now := time.Now()

	log := &logstore.Log{}
	log.Append(now.Add(-2*time.Hour), map[string]any{"disk_usage": 99.0})
	path := writeInboxLog(t, inbox, "health_logs.web1.json", log)
	// Keep the file fresh so staleness does not fire.
	if err := os.Chtimes(path, now, now); err != nil {
		t.Fatal(err)
	}

	cursor := now.Add(-time.Hour)
	res, err := ScanHealth(inbox, map[string]float64{"disk_usage": 95}, cursor, now)
	if err != nil {
		t.Fatalf("ScanHealth failed: %v", err)
	}
	if strings.Contains(res.Alerts, "exceeds threshold") {
		t.Errorf("breach behind cursor should not alert: %q", res.Alerts)
	}
}

func TestScanHealthStaleFile(t *testing.T) {
	inbox := t.TempDir()
	now := time.Now()

	log := &logstore.Log{}
	log.Append(now.Add(-3*time.Hour), map[string]any{"disk_usage": 10.0})
	path := writeInboxLog(t, inbox, "health_logs.web1.json", log)

	old := now.Add(-3 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	res, err := ScanHealth(inbox, map[string]float64{"disk_usage": 95}, time.Time{}, now)
	if err != nil {
		t.Fatalf("ScanHealth failed: %v", err)
	}
	if !strings.Contains(res.Alerts, "health_logs.web1.json has not been updated in 3 hours.") {
		t.Errorf("alerts = %q", res.Alerts)
	}
}

func TestScanHealthMissingTrackedField(t *testing.T) {
	inbox := t.TempDir()
	now := time.Now()

	log := &logstore.Log{}
	log.Append(now.Add(-time.Minute), map[string]any{"load_1m": 0.5})
	writeInboxLog(t, inbox, "health_logs.web1.json", log)

	res, err := ScanHealth(inbox, map[string]float64{"disk_usage": 95}, time.Time{}, now)
	if err != nil {
		t.Fatalf("ScanHealth failed: %v", err)
	}
	if !strings.Contains(res.Alerts, "health_logs.web1.json: disk_usage not found.") {
		t.Errorf("alerts = %q", res.Alerts)
	}
}

func TestScanHealthUnreadableFile(t *testing.T) {
	inbox := t.TempDir()
	path := filepath.Join(inbox, "health_logs.web1.json")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}

	res, err := ScanHealth(inbox, map[string]float64{"disk_usage": 95}, time.Time{}, time.Now())
	if err != nil {
		t.Fatalf("ScanHealth failed: %v", err)
	}
	if !strings.Contains(res.Alerts, "Error with health_logs.web1.json") {
		t.Errorf("alerts = %q", res.Alerts)
	}
}

func TestScanGeneralSplitsAlarmWords(t *testing.T) {
	inbox := t.TempDir()
	now := time.Now()

	log := &logstore.Log{}
	log.Append(now.Add(-time.Minute), map[string]any{
		"general": "nightly fetch finished",
		"error":   "database copy failed",
	})
	writeInboxLog(t, inbox, "general_logs.web1.json", log)

	res, err := ScanGeneral(inbox, DefaultAlarmWords, time.Time{})
	if err != nil {
		t.Fatalf("ScanGeneral failed: %v", err)
	}
	if !strings.Contains(res.Alerts, "error: database copy failed") {
		t.Errorf("alerts = %q", res.Alerts)
	}
	if strings.Contains(res.Alerts, "nightly fetch finished") {
		t.Errorf("non-alarm field leaked into alerts: %q", res.Alerts)
	}
	if !strings.Contains(res.Heartbeat, "general: nightly fetch finished") {
		t.Errorf("heartbeat = %q", res.Heartbeat)
	}
	if strings.Contains(res.Heartbeat, "database copy failed") {
		t.Errorf("alarm field leaked into heartbeat: %q", res.Heartbeat)
	}
}

func TestScanGeneralCursorAdvance(t *testing.T) {
	inbox := t.TempDir()
	now := time.Now()

	log := &logstore.Log{}
	log.Append(now.Add(-2*time.Hour), map[string]any{"general": "old"})
	log.Append(now.Add(-time.Minute), map[string]any{"general": "new"})
	writeInboxLog(t, inbox, "general_logs.web1.json", log)

	cursor := now.Add(-time.Hour)
	res, err := ScanGeneral(inbox, DefaultAlarmWords, cursor)
	if err != nil {
		t.Fatalf("ScanGeneral failed: %v", err)
	}
	if strings.Contains(res.Heartbeat, "old") {
		t.Errorf("entry behind cursor reported: %q", res.Heartbeat)
	}
	if !strings.Contains(res.Heartbeat, "new") {
		t.Errorf("entry past cursor missing: %q", res.Heartbeat)
	}
	if !res.NewCursor.After(cursor) {
		t.Error("cursor did not advance")
	}

	// A second scan from the new cursor sees nothing.
	res2, err := ScanGeneral(inbox, DefaultAlarmWords, res.NewCursor)
	if err != nil {
		t.Fatalf("ScanGeneral failed: %v", err)
	}
	if res2.Heartbeat != "" || res2.Alerts != "" {
		t.Errorf("rescan reported entries again: hb=%q alerts=%q", res2.Heartbeat, res2.Alerts)
	}
}

func TestScanGeneralIgnoresForeignFiles(t *testing.T) {
	inbox := t.TempDir()
	if err := os.WriteFile(filepath.Join(inbox, "notes.txt"), []byte("hi"), 0600); err != nil {
		t.Fatal(err)
	}

	res, err := ScanGeneral(inbox, DefaultAlarmWords, time.Time{})
	if err != nil {
		t.Fatalf("ScanGeneral failed: %v", err)
	}
	if !strings.Contains(res.Heartbeat, "no general_logs logs found") {
		t.Errorf("heartbeat = %q", res.Heartbeat)
	}
}
