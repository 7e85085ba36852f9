// ABOUTME: CLI command for recording events in the general log.
// ABOUTME: Accepts a JSON object or a plain message, then prunes.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/sentinel/internal/logstore"
	"github.com/harperreed/sentinel/internal/ship"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log <report>",
	Short: "Record an event in the general log",
	Long: `Append a report to the general log. A JSON object is stored as-is;
anything else becomes {"general": <message>}.

Reports under the "alert" or "error" keys are escalated by the monitor.

Examples:
  sentinel log '{"fetch": "complete", "rows": 1532}'
  sentinel log '{"error": "database copy failed"}'
  sentinel log "nightly job finished"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.GeneralLog == "" {
			return fmt.Errorf("missing environment variables: GENERAL_LOGFILE")
		}

		fields, err := logstore.ParseReport(args[0])
		if err != nil {
			return err
		}
		if err := logstore.AppendReport(cfg.GeneralLog, fields); err != nil {
			return fmt.Errorf("failed to record report: %w", err)
		}
		if err := pruneAndArchive(ship.GeneralConvention, cfg.GeneralLog); err != nil {
			return err
		}

		color.Green("✓ Logged")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
}
