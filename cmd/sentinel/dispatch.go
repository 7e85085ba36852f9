// ABOUTME: CLI command for the periodic cron entry point.
// ABOUTME: Runs health check then log push, in order, no short-circuit.
package main

import (
	"fmt"

	"github.com/harperreed/sentinel/internal/dispatch"
	"github.com/spf13/cobra"
)

var dispatchDir string

var dispatchCmd = &cobra.Command{
	Use:   "dispatch [task...]",
	Short: "Run the periodic maintenance sequence",
	Long: `The cron entry point: run the health-check task, then the log-shipping
task, strictly in order. A failure in an earlier task is recorded in the
general log and does not stop later tasks; the exit status is the last
task's exit status.

With no arguments, the built-in check and push run in-process. With
arguments, each named task is executed as a sibling of the sentinel
binary itself, with no arguments of its own, matching the classic layout:

  sentinel dispatch health_check push_logs_for_bot

Intended to be scheduled every 15 minutes; the cadence lives in cron,
not here. No locking, retries, or timeouts are applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runBuiltinSequence(cmd)
		}

		dir := dispatchDir
		if dir == "" {
			var err error
			dir, err = dispatch.SelfDir()
			if err != nil {
				return err
			}
		}

		runner := &dispatch.Runner{
			Dir: dir,
			OnError: func(task string, err error) {
				logError(fmt.Sprintf("while trying to run task %s, an error occurred: %v", task, err))
			},
		}
		return runner.Run(cmd.Context(), args)
	},
}

// runBuiltinSequence runs check then push in-process with the same
// no-short-circuit contract as the external runner.
func runBuiltinSequence(cmd *cobra.Command) error {
	if _, err := runCheck(); err != nil {
		logError(fmt.Sprintf("while trying to run task health_check, an error occurred: %v", err))
	}

	if _, err := runPush(cmd); err != nil {
		return &dispatch.ExitError{Task: "push_logs_for_bot", Code: 1, Err: err}
	}
	return nil
}

func init() {
	dispatchCmd.Flags().StringVar(&dispatchDir, "dir", "", "directory to resolve task executables from (default: the sentinel binary's own directory)")
	rootCmd.AddCommand(dispatchCmd)
}
