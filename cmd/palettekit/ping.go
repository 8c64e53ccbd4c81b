package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the daemon is responding",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		data, err := client.Ping(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(data)
		}
		uptime := (time.Duration(data.UptimeMs) * time.Millisecond).Round(time.Second)
		printSuccess(fmt.Sprintf("pong (uptime %s, %d windows)", uptime, data.Windows))
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask the daemon to reload its configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		if err := client.Reload(ctx); err != nil {
			return err
		}
		printSuccess("configuration reloaded")
		return nil
	},
}
