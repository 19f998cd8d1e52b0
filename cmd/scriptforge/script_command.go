package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScriptCommand(ctx *commandContext) *cobra.Command {
	var (
		copyText bool
		emailTo  string
	)

	cmd := &cobra.Command{
		Use:   "script <script-id>",
		Short: "Print a generated script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.client().Script(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case emailTo != "":
				fmt.Fprintln(out, mailtoURL(emailTo, s))
			case copyText:
				fmt.Fprintln(out, s.CopyText())
			default:
				fmt.Fprint(out, renderScript(s, shouldColorize(out)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&copyText, "copy", false, "Print the plain copy-all text")
	cmd.Flags().StringVar(&emailTo, "email", "", "Print a mailto link sending the script to this address")
	return cmd
}
