// ABOUTME: Scans the inbox of shipped fleet logs for alerts and summaries.
// ABOUTME: Health scans check thresholds and staleness; general scans watch keywords.
package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/sentinel/internal/logstore"
	"github.com/harperreed/sentinel/internal/ship"
)

// DefaultAlarmWords are the general-log field names that escalate an
// entry to the alert channel.
var DefaultAlarmWords = []string{"alert", "error"}

// healthStaleAfter is how old a health file's mtime may be before the
// producing host is considered silent.
const healthStaleAfter = time.Hour

// ScanResult carries what a scan wants said, split by channel, plus
// the cursor position after the scan.
type ScanResult struct {
	Heartbeat string
	Alerts    string
	NewCursor time.Time
}

// inboxFiles lists inbox files following the given naming convention.
func inboxFiles(inbox, convention string) ([]string, error) {
	entries, err := os.ReadDir(inbox)
	if err != nil {
		return nil, fmt.Errorf("read inbox %s: %w", inbox, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ship.ConventionFor(e.Name()) == convention {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// ScanHealth inspects every health_logs file in the inbox. Threshold
// breaches on entries newer than the cursor and stale files become
// alerts; each host's latest sampled values become heartbeat text.
func ScanHealth(inbox string, thresholds map[string]float64, cursor, now time.Time) (ScanResult, error) {
	res := ScanResult{NewCursor: cursor}

	files, err := inboxFiles(inbox, ship.HealthConvention)
	if err != nil {
		return res, err
	}
	if len(files) == 0 {
		res.Heartbeat = "no health_logs logs found\n"
		return res, nil
	}

	var alerts, heartbeats strings.Builder
	for _, name := range files {
		path := filepath.Join(inbox, name)
		host := ship.HostFor(name)

		if info, err := os.Stat(path); err == nil {
			if age := now.Sub(info.ModTime()); age > healthStaleAfter {
				fmt.Fprintf(&alerts, "%s has not been updated in %d hours.\n", name, int(age.Hours()))
			}
		}

		log, err := logstore.Load(path)
		if err != nil {
			fmt.Fprintf(&alerts, "Error with %s: %v\n", name, err)
			continue
		}

		// Threshold checks on entries not yet inspected; keep only the
		// newest breach per field.
		breaches := make(map[string]logstore.Entry)
		for _, e := range log.Since(cursor) {
			if e.At.After(res.NewCursor) {
				res.NewCursor = e.At
			}
			for field, ceiling := range thresholds {
				v, ok := e.Fields[field].(float64)
				if !ok {
					continue
				}
				if v > ceiling {
					if prev, seen := breaches[field]; !seen || e.At.After(prev.At) {
						breaches[field] = e
					}
				}
			}
		}
		fields := make([]string, 0, len(breaches))
		for field := range breaches {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			e := breaches[field]
			fmt.Fprintf(&alerts, "%s ==>  %s (%v) exceeds threshold (%v)\n",
				host, field, e.Fields[field], thresholds[field])
		}

		// Latest values summary for the heartbeat channel.
		latest, ok := log.Latest()
		if !ok {
			continue
		}
		var lines []string
		tracked := make([]string, 0, len(thresholds))
		for field := range thresholds {
			tracked = append(tracked, field)
		}
		sort.Strings(tracked)
		for _, field := range tracked {
			if v, present := latest.Fields[field]; present {
				lines = append(lines, fmt.Sprintf("%s: %v", field, v))
			} else {
				fmt.Fprintf(&alerts, "%s: %s not found.\n", name, field)
			}
		}
		if len(lines) > 0 {
			fmt.Fprintf(&heartbeats, "%s ==>\n    %s\n", host, strings.Join(lines, "\n    "))
		}
	}

	res.Alerts = alerts.String()
	res.Heartbeat = heartbeats.String()
	return res, nil
}

// ScanGeneral inspects every general_logs file in the inbox. Entries
// newer than the cursor are split field by field: alarm-word keys go to
// the alert channel, the rest to the heartbeat summary.
func ScanGeneral(inbox string, alarmWords []string, cursor time.Time) (ScanResult, error) {
	res := ScanResult{NewCursor: cursor}

	files, err := inboxFiles(inbox, ship.GeneralConvention)
	if err != nil {
		return res, err
	}
	if len(files) == 0 {
		res.Heartbeat = "no general_logs logs found\n"
		return res, nil
	}

	alarm := make(map[string]bool, len(alarmWords))
	for _, w := range alarmWords {
		alarm[w] = true
	}

	var alerts, heartbeats strings.Builder
	for _, name := range files {
		host := ship.HostFor(name)
		log, err := logstore.Load(filepath.Join(inbox, name))
		if err != nil {
			fmt.Fprintf(&alerts, "Error with %s: %v\n", name, err)
			continue
		}

		var hostBeats, hostAlerts strings.Builder
		for _, e := range log.Since(cursor) {
			if e.At.After(res.NewCursor) {
				res.NewCursor = e.At
			}

			beatLines := formatFields(e.Fields, alarm, false)
			if beatLines != "" {
				fmt.Fprintf(&hostBeats, "  %s:\n%s\n", e.At.Format("2006-01-02 15:04:05"), beatLines)
			}
			alertLines := formatFields(e.Fields, alarm, true)
			if alertLines != "" {
				fmt.Fprintf(&hostAlerts, "  %s:\n%s\n", e.At.Format("2006-01-02 15:04:05"), alertLines)
			}
		}

		if hostBeats.Len() > 0 {
			fmt.Fprintf(&heartbeats, "%s:\n%s\n\n", host, hostBeats.String())
		}
		if hostAlerts.Len() > 0 {
			fmt.Fprintf(&alerts, "%s:\n%s\n\n", host, hostAlerts.String())
		}
	}

	res.Alerts = alerts.String()
	res.Heartbeat = heartbeats.String()
	return res, nil
}

// formatFields renders the fields whose alarm membership matches
// wantAlarm, one indented line per field, in sorted key order.
func formatFields(fields map[string]any, alarm map[string]bool, wantAlarm bool) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if alarm[k] == wantAlarm {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("    %s: %v", k, fields[k]))
	}
	return strings.Join(lines, "\n")
}
