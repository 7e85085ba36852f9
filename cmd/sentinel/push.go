// ABOUTME: CLI command for shipping local logs to the monitor host.
// ABOUTME: Selects the transport, ships both logs, archives, and prunes.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harperreed/sentinel/internal/charmkv"
	"github.com/harperreed/sentinel/internal/ship"
	"github.com/spf13/cobra"
)

var pushHostname string

var pushCmd = &cobra.Command{
	Use:     "push",
	Aliases: []string{"push-logs"},
	Short:   "Ship logs to the monitor host",
	Long: `Ship the health log as health_logs.<hostname>.json and the general log
as general_logs.<hostname>.json to the configured destination.

Transport is rsync over ssh by default; scp and charm (Charm Cloud KV)
are also available via SENTINEL_TRANSPORT or the config file. A failed
ship is recorded in the general log and does not stop the other log.

After shipping, each log is pruned to its retention; pruned entries go
to the local archive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		shipped, err := runPush(cmd)
		if err != nil {
			return err
		}
		color.Green("✓ Shipped %d log(s)", shipped)
		return nil
	},
}

// runPush is the in-process log-shipping task, shared with dispatch.
func runPush(cmd *cobra.Command) (int, error) {
	if err := cfg.RequireShipping(); err != nil {
		logError(err.Error())
		return 0, err
	}

	transport, err := buildTransport()
	if err != nil {
		return 0, err
	}

	shipper := &ship.Shipper{
		Transport: transport,
		Hostname:  pushHostname,
		OnError: func(name string, err error) {
			logError(fmt.Sprintf("while shipping %s, an error occurred: %v", name, err))
			fmt.Fprintf(os.Stderr, "ship %s: %v\n", name, err)
		},
		OnShipped: func(localPath, name string) {
			if err := pruneAndArchive(ship.ConventionFor(name), localPath); err != nil {
				logError(err.Error())
			}
		},
	}

	shipped := shipper.Push(cmd.Context(), map[string]string{
		ship.HealthConvention:  cfg.SecurityLog,
		ship.GeneralConvention: cfg.GeneralLog,
	})
	return shipped, nil
}

func buildTransport() (ship.Transport, error) {
	switch cfg.GetTransport() {
	case "rsync":
		return &ship.RsyncTransport{KeyPath: cfg.RSAKeyPath, RemotePath: cfg.RemotePath}, nil
	case "scp":
		return &ship.ScpTransport{KeyPath: cfg.RSAKeyPath, RemotePath: cfg.RemotePath}, nil
	case "charm":
		client, err := charmkv.InitClient()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize charm client: %w", err)
		}
		return &ship.CharmTransport{Client: client}, nil
	default:
		return nil, fmt.Errorf("unknown transport: %q", cfg.GetTransport())
	}
}

func init() {
	pushCmd.Flags().StringVar(&pushHostname, "hostname", "", "override the hostname in shipped file names")
	rootCmd.AddCommand(pushCmd)
}
