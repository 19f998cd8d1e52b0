package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	version   = "0.1.0"
	gitCommit = "unknown"
	buildTime = "unknown"
)

const defaultAPIURL = "http://localhost:5334/api"

func newRootCommand() (*cobra.Command, *commandContext) {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "scriptforge",
		Short:         "Submit content sources and collect generated scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	apiURL := os.Getenv("SCRIPTFORGE_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	rootCmd.PersistentFlags().StringVar(&ctx.apiURL, "api", apiURL, "ScriptForge API base URL")
	rootCmd.PersistentFlags().StringVar(&ctx.historyPath, "history-db", os.Getenv("SCRIPTFORGE_HISTORY_DB"), "Local history database path")
	rootCmd.PersistentFlags().DurationVar(&ctx.timeout, "request-timeout", 15*time.Second, "Timeout for a single API request")

	rootCmd.AddCommand(newSubmitCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newScriptCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newHelpRequestCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd, ctx
}

// execute runs the command tree and closes the history store whether or not
// the command failed. cobra skips post-run hooks after a RunE error.
func execute(ctx context.Context, cmd *cobra.Command, cc *commandContext) error {
	defer cc.close()
	return cmd.ExecuteContext(ctx)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ScriptForge CLI %s\n", version)
			fmt.Fprintf(out, "Git commit: %s\n", gitCommit)
			fmt.Fprintf(out, "Build time: %s\n", buildTime)
		},
	}
}
