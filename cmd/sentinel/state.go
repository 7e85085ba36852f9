// ABOUTME: CLI commands for adjusting the monitor's scan cursors.
// ABOUTME: reset replays all history; end skips everything on disk.
package main

import (
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/sentinel/internal/monitor"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Adjust the monitor's scan cursors",
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Move scan cursors back to zero",
	Long:  `Reset the monitor's scan cursors so the next scan replays all log history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withState(func(s *monitor.State) error {
			if err := s.ResetCursors(); err != nil {
				return err
			}
			color.Green("✓ Cursors reset to zero")
			return nil
		})
	},
}

var stateEndCmd = &cobra.Command{
	Use:   "end",
	Short: "Move scan cursors to now",
	Long:  `Advance the monitor's scan cursors to now, skipping every log entry already on disk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withState(func(s *monitor.State) error {
			if err := s.MoveCursorsToEnd(time.Now()); err != nil {
				return err
			}
			color.Green("✓ Cursors moved to end")
			return nil
		})
	},
}

func withState(fn func(s *monitor.State) error) error {
	state, err := monitor.OpenState(filepath.Join(cfg.GetDataDir(), "state"))
	if err != nil {
		return err
	}
	defer state.Close()
	return fn(state)
}

func init() {
	stateCmd.AddCommand(stateResetCmd)
	stateCmd.AddCommand(stateEndCmd)
	rootCmd.AddCommand(stateCmd)
}
