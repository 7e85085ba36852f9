// ABOUTME: CLI command for the monitor daemon.
// ABOUTME: Scans shipped logs and notifies Telegram until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/harperreed/sentinel/internal/monitor"
	"github.com/harperreed/sentinel/internal/notify"
	"github.com/spf13/cobra"
)

var watchDryRun bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the monitor daemon",
	Long: `Watch the inbox of shipped fleet logs and notify Telegram.

WHAT IT CHECKS:

  every hour    > host health: thresholds (disk_usage > 95 by default)
                  and staleness (health logs quiet for over an hour)
  every minute  > general logs: new entries; "alert" and "error" keys
                  escalate to the alert chat
  every 5 min   > configured URLs respond with HTTP 200

Heartbeat summaries go to the heartbeat chat, at most once per wait
period per check type (default 24h). Alerts are never held back.

New files landing in the inbox trigger a scan immediately.

With --dry-run, notifications print to stdout instead of Telegram and
no chat configuration is required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var notifier notify.Notifier
		if watchDryRun {
			notifier = &notify.Console{Out: os.Stdout}
			if cfg.InboxDir == "" {
				return fmt.Errorf("missing environment variables: BOT_DIRECTORY")
			}
		} else {
			if err := cfg.RequireMonitor(); err != nil {
				return err
			}
			notifier = &notify.Telegram{
				Token:           cfg.TelegramToken,
				AlertChatID:     cfg.AlertChatID,
				HeartbeatChatID: cfg.HeartbeatChatID,
			}
		}

		state, err := monitor.OpenState(filepath.Join(cfg.GetDataDir(), "state"))
		if err != nil {
			return err
		}
		defer state.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		color.Green("✓ Watching %s", cfg.InboxDir)

		m := monitor.New(cfg, state, notifier)
		err = m.Run(ctx, func(err error) {
			fmt.Fprintf(os.Stderr, "scan error: %v\n", err)
		})
		if err == context.Canceled {
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchDryRun, "dry-run", false, "print notifications instead of sending to Telegram")
	rootCmd.AddCommand(watchCmd)
}
