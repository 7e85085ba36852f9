// ABOUTME: Shared helpers for sentinel commands.
// ABOUTME: General-log error reporting and prune-with-archive.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/harperreed/sentinel/internal/logstore"
	"github.com/harperreed/sentinel/internal/storage"
)

// appendGeneral records a report in the general log. Failures here are
// swallowed; most callers are already on an error path.
func appendGeneral(fields map[string]any) {
	if cfg == nil || cfg.GeneralLog == "" {
		return
	}
	_ = logstore.AppendReport(cfg.GeneralLog, fields)
}

// logError records an error message in the general log under the alarm
// key so the monitor escalates it.
func logError(message string) {
	appendGeneral(map[string]any{"error": message})
}

// pruneAndArchive prunes a log to the configured retention, stowing
// the removed entries in the local archive first.
func pruneAndArchive(logName, path string) error {
	_, err := pruneAndArchiveDays(logName, path, cfg.GetLogLife())
	return err
}

// pruneAndArchiveDays prunes in memory, archives the removed entries,
// and only then writes the pruned log back. An archive failure leaves
// the log on disk untouched so nothing is lost.
func pruneAndArchiveDays(logName, path string, days int) (int, error) {
	log, err := logstore.Load(path)
	if err != nil {
		return 0, fmt.Errorf("prune %s: %w", path, err)
	}

	removed := log.Prune(days, time.Now())
	if len(removed) == 0 {
		return 0, nil
	}

	if err := archiveRemoved(logName, removed); err != nil {
		return 0, err
	}
	if err := logstore.Save(log, path); err != nil {
		return 0, fmt.Errorf("prune %s: %w", path, err)
	}
	return len(removed), nil
}

// archiveRemoved stows pruned entries in the local archive under this
// host's name.
func archiveRemoved(logName string, removed []logstore.Entry) error {
	if len(removed) == 0 {
		return nil
	}

	host, _ := os.Hostname()
	archive, err := storage.Open(storage.DefaultPath(cfg.GetDataDir()))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	if err := archive.ArchiveEntries(logName, host, removed); err != nil {
		return fmt.Errorf("archive pruned entries: %w", err)
	}
	return nil
}
