package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"riftcap/internal/ipc"
)

func newRecordingsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "List recent captures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Recordings(limit)
				if err != nil {
					return fmt.Errorf("list recordings: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(resp.Recordings) == 0 {
					fmt.Fprintln(out, "No recordings yet.")
					return nil
				}

				rows := make([][]string, 0, len(resp.Recordings))
				for _, rec := range resp.Recordings {
					rows = append(rows, []string{
						rec.StartedAt.Format("2006-01-02 15:04"),
						orDash(rec.QueueType),
						orDash(rec.GameID),
						rec.Outcome,
						orDash(filepath.Base(rec.OutputPath)),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Started", "Queue", "Game", "Outcome", "File"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of recordings to show")
	return cmd
}
