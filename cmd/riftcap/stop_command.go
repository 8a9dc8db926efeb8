package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"riftcap/internal/ipc"
)

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the riftcap daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return fmt.Errorf("stop daemon: %w", err)
				}
				if resp.Stopped {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped.")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon was not running.")
				}
				return nil
			})
		},
	}
}
