// ABOUTME: Root Cobra command for the sentinel CLI.
// ABOUTME: Loads configuration once in PersistentPreRunE.
package main

import (
	"fmt"

	"github.com/harperreed/sentinel/internal/config"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Fleet log monitoring and dispatch",
	Long: `Sentinel keeps a small fleet honest: every host samples its own health
into a JSON timeseries log, ships its logs to a monitor host, and the
monitor host turns what arrives into Telegram alerts and heartbeats.

PRODUCER HOSTS (run from cron):

  $ sentinel dispatch               # every 15 minutes: check, then push
  $ sentinel check                  # sample disk/load/memory into the health log
  $ sentinel push                   # ship logs to the monitor host
  $ sentinel log '{"fetch": "ok"}'  # record an event in the general log

  Logs prune themselves after LOG_LIFE days (default 3); pruned entries
  are kept in a local SQLite archive.

MONITOR HOST:

  $ sentinel watch                  # daemon: scans shipped logs, alerts on
                                    # thresholds, staleness, and alarm words
  $ sentinel pull                   # fetch shipped logs from Charm Cloud
                                    # (when the fleet ships over charm)
  $ sentinel state reset            # replay all log history on next scan
  $ sentinel state end              # skip everything already on disk

CONFIGURATION:

  JSON config at ~/.config/sentinel/config.json, overridden by the
  environment: SECURITY_LOGFILE, GENERAL_LOGFILE, LOG_LIFE, RSA_ID_PATH,
  REMOTE_PATH, BOT_DIRECTORY, LOG_BOT_KEY, CHAT_ID, HEARTBEAT_CHAT_ID.

MCP INTEGRATION:

  Run 'sentinel mcp' to expose fleet health, log queries, and the
  archive to MCP-compatible AI assistants:

  {
    "mcpServers": {
      "sentinel": { "command": "sentinel", "args": ["mcp"] }
    }
  }`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
