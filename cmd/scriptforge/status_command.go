package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the current status of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := recordStatus(cmd, ctx, args[0], status); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job:    %s\n", status.JobID)
			fmt.Fprintf(out, "Status: %s\n", renderStatus(status.Status, shouldColorize(out)))
			if status.ScriptID != nil {
				fmt.Fprintf(out, "Script: %s\n", *status.ScriptID)
			}
			return nil
		},
	}
}
