// ABOUTME: CLI command for listing log entries and archived records.
// ABOUTME: Shows recent entries from the security or general log.
package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/sentinel/internal/logstore"
	"github.com/harperreed/sentinel/internal/storage"
	"github.com/spf13/cobra"
)

var (
	listLog     string
	listLimit   int
	listArchive bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List recent log entries",
	Long: `List recent entries from this host's logs, newest last.

Use --log to pick the log (security or general) and --archive to read
the local archive of pruned entries instead of the live log.

Examples:
  sentinel list                      # last 20 general-log entries
  sentinel list --log security       # health samples
  sentinel list --archive -n 50      # archived entries across both logs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listArchive {
			return listArchiveRecords()
		}

		var path string
		switch listLog {
		case "security":
			path = cfg.SecurityLog
		case "general":
			path = cfg.GeneralLog
		default:
			return fmt.Errorf("unknown log: %s (use security or general)", listLog)
		}
		if path == "" {
			return fmt.Errorf("log path not configured for %s", listLog)
		}

		log, err := logstore.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load log: %w", err)
		}

		entries := log.Entries
		if listLimit > 0 && len(entries) > listLimit {
			entries = entries[len(entries)-listLimit:]
		}
		if len(entries) == 0 {
			fmt.Println("No entries found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, e := range entries {
			fmt.Printf("%s %s\n",
				faint.Sprint(e.At.Format("2006-01-02 15:04:05")),
				formatReport(e.Fields))
		}
		return nil
	},
}

func listArchiveRecords() error {
	archive, err := storage.Open(storage.DefaultPath(cfg.GetDataDir()))
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	logName := ""
	switch listLog {
	case "security":
		logName = "health_logs"
	case "general":
		logName = "general_logs"
	}

	records, err := archive.ListRecords(logName, listLimit)
	if err != nil {
		return fmt.Errorf("failed to list archive: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No archived records found.")
		return nil
	}

	faint := color.New(color.Faint)
	for _, r := range records {
		value := ""
		if r.ValueNum != nil {
			value = fmt.Sprintf("%v", *r.ValueNum)
		} else if r.ValueText != nil {
			value = *r.ValueText
		}
		fmt.Printf("%s %s %s %s=%s\n",
			faint.Sprint(r.RecordedAt.Format("2006-01-02 15:04:05")),
			faint.Sprint(r.Host),
			r.LogName,
			r.Field,
			value)
	}
	return nil
}

func formatReport(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

func init() {
	listCmd.Flags().StringVarP(&listLog, "log", "t", "general", "which log to list: security or general")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "max number of entries")
	listCmd.Flags().BoolVar(&listArchive, "archive", false, "list archived (pruned) records instead")
	rootCmd.AddCommand(listCmd)
}
