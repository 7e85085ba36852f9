// ABOUTME: CLI command for sampling host health into the health log.
// ABOUTME: Records disk, load, and memory, then prunes old entries.
package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/harperreed/sentinel/internal/health"
	"github.com/harperreed/sentinel/internal/logstore"
	"github.com/harperreed/sentinel/internal/ship"
	"github.com/spf13/cobra"
)

var checkDiskPath string

var checkCmd = &cobra.Command{
	Use:     "check",
	Aliases: []string{"health-check"},
	Short:   "Sample host health into the health log",
	Long: `Sample disk usage, load average, and memory usage, append the report
to the health log, and prune entries past their retention.

Examples:
  sentinel check
  sentinel check --path /srv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := runCheck()
		if err != nil {
			return err
		}

		color.Green("✓ Health sample recorded")
		keys := make([]string, 0, len(report))
		for k := range report {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		faint := color.New(color.Faint)
		for _, k := range keys {
			fmt.Printf("  %s %v\n", faint.Sprint(k), report[k])
		}
		return nil
	},
}

// runCheck is the in-process health-check task, shared with dispatch.
func runCheck() (map[string]any, error) {
	if cfg.SecurityLog == "" {
		return nil, fmt.Errorf("missing environment variables: SECURITY_LOGFILE")
	}

	report := health.Report(checkDiskPath)
	if err := logstore.AppendReport(cfg.SecurityLog, report); err != nil {
		return nil, fmt.Errorf("failed to record health sample: %w", err)
	}

	if err := pruneAndArchive(ship.HealthConvention, cfg.SecurityLog); err != nil {
		return nil, err
	}
	return report, nil
}

func init() {
	checkCmd.Flags().StringVar(&checkDiskPath, "path", "/", "filesystem path to sample disk usage for")
	rootCmd.AddCommand(checkCmd)
}
