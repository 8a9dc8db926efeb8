package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"riftcap/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and recording status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return fmt.Errorf("query status: %w", err)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				fmt.Fprintln(out, "Riftcap daemon")
				runningKind := statusWarn
				runningText := "no"
				if status.Running {
					runningKind = statusOK
					runningText = fmt.Sprintf("yes (pid %d, since %s)", status.PID, status.StartedAt.Format("2006-01-02 15:04:05"))
				}
				fmt.Fprintln(out, renderStatusLine("Running", runningKind, runningText, colorize))
				fmt.Fprintln(out, renderStatusLine("Topic", statusInfo, status.Topic, colorize))
				fmt.Fprintln(out, renderStatusLine("Lock", statusInfo, status.LockPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Library", statusInfo, status.LibraryDBPath, colorize))

				fmt.Fprintln(out, "Gameflow")
				fmt.Fprintln(out, renderStatusLine("Phase", statusInfo, orDash(status.Phase), colorize))
				fmt.Fprintln(out, renderStatusLine("Queue", statusInfo, orDash(status.QueueType), colorize))
				fmt.Fprintln(out, renderStatusLine("In game", statusInfo, yesNo(status.InGame), colorize))
				recordingKind := statusInfo
				if status.Recording {
					recordingKind = statusOK
				}
				fmt.Fprintln(out, renderStatusLine("Recording", recordingKind, yesNo(status.Recording), colorize))
				return nil
			})
		},
	}
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
