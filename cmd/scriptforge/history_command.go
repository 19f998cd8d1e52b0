package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.store(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if refresh {
				res, err := store.Refresh(cmd.Context(), ctx.client())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Checked %d pending, %d updated, %d unreachable\n", res.Checked, res.Updated, res.Failed)
			}

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No submissions found.")
				return nil
			}
			fmt.Fprintln(out, renderHistory(entries, time.Now(), shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-check pending submissions first")
	return cmd
}
