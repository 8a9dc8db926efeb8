package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"riftcap/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return fmt.Errorf("test notification: %w", err)
				}
				if !resp.Sent {
					if resp.Message != "" {
						return errors.New(resp.Message)
					}
					return errors.New("test notification was not sent")
				}
				if resp.Message != "" {
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent.")
				}
				return nil
			})
		},
	}
}
