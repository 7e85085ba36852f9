// ABOUTME: CLI command for pruning logs past their retention window.
// ABOUTME: Archives removed entries; --days 0 clears a log entirely.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/sentinel/internal/ship"
	"github.com/spf13/cobra"
)

var pruneDays int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune old entries from both logs",
	Long: `Drop log entries older than the retention window from the health and
general logs. Removed entries are stowed in the local archive first.

--days overrides the configured retention; --days 0 clears the logs.

Examples:
  sentinel prune
  sentinel prune --days 0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		days := pruneDays
		if days < 0 {
			days = cfg.GetLogLife()
		}

		logs := map[string]string{
			ship.HealthConvention:  cfg.SecurityLog,
			ship.GeneralConvention: cfg.GeneralLog,
		}

		total := 0
		for logName, path := range logs {
			if path == "" {
				continue
			}
			removed, err := pruneAndArchiveDays(logName, path, days)
			if err != nil {
				return fmt.Errorf("failed to prune %s: %w", path, err)
			}
			total += removed
		}

		color.Green("✓ Pruned %d entries", total)
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneDays, "days", -1, "retention in days (0 clears the logs)")
	rootCmd.AddCommand(pruneCmd)
}
