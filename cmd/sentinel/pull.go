// ABOUTME: CLI command for materializing charm-shipped logs into the inbox.
// ABOUTME: The monitor-host counterpart of pushing over the charm transport.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/harperreed/sentinel/internal/charmkv"
	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch charm-shipped logs into the inbox",
	Long: `Fetch every log file the fleet has shipped into Charm Cloud and write
it to the inbox directory, where the watch daemon picks it up.

Only useful when producer hosts push with the charm transport.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.InboxDir == "" {
			return fmt.Errorf("missing environment variables: BOT_DIRECTORY")
		}
		if err := os.MkdirAll(cfg.InboxDir, 0750); err != nil {
			return fmt.Errorf("create inbox directory: %w", err)
		}

		client, err := charmkv.InitClient()
		if err != nil {
			return fmt.Errorf("failed to initialize charm client: %w", err)
		}

		names, err := client.ListLogs()
		if err != nil {
			return fmt.Errorf("failed to list shipped logs: %w", err)
		}
		if len(names) == 0 {
			fmt.Println("No shipped logs found.")
			return nil
		}

		pulled := 0
		for _, name := range names {
			data, err := client.GetLog(name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "pull %s: %v\n", name, err)
				continue
			}
			if err := os.WriteFile(filepath.Join(cfg.InboxDir, name), data, 0600); err != nil {
				fmt.Fprintf(os.Stderr, "write %s: %v\n", name, err)
				continue
			}
			pulled++
		}

		color.Green("✓ Pulled %d log(s)", pulled)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)
}
