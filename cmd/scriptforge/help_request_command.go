package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ifuryst/scriptforge/internal/apiclient"
)

func newHelpRequestCommand(ctx *commandContext) *cobra.Command {
	var req apiclient.HelpRequest

	cmd := &cobra.Command{
		Use:   "help-request",
		Short: "Send a message to the ScriptForge team",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().Help(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Message sent. We'll get back to you soon.")
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Your name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Reply address")
	cmd.Flags().StringVar(&req.Message, "message", "", "Message")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
