package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ifuryst/scriptforge/internal/apiclient"
	"github.com/ifuryst/scriptforge/internal/history"
	"github.com/ifuryst/scriptforge/internal/poller"
)

type pollFlags struct {
	interval time.Duration
	timeout  time.Duration
}

func (f *pollFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.interval, "interval", poller.DefaultInterval, "Delay between status checks")
	cmd.Flags().DurationVar(&f.timeout, "timeout", poller.DefaultTimeout, "Stop watching after this long")
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		req    apiclient.SubmitRequest
		noWait bool
		poll   pollFlags
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a content source for script generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.store(cmd.Context())
			if err != nil {
				return err
			}
			token, err := store.ClientToken(cmd.Context())
			if err != nil {
				return err
			}
			req.ClientToken = token

			resp, err := ctx.client().Submit(cmd.Context(), req)
			if err != nil {
				return err
			}

			if err := store.Add(cmd.Context(), history.Entry{
				JobID:        resp.JobID,
				SourceURL:    req.SourceURL,
				SourceType:   req.SourceType,
				OutputType:   req.OutputType,
				Tone:         req.Tone,
				Category:     req.Category,
				Requirements: req.Requirements,
				Status:       resp.Status,
			}); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Submitted job %s (%s)", resp.JobID, resp.Status)
			if resp.ETASeconds > 0 {
				fmt.Fprintf(out, ", expected in about %ds", resp.ETASeconds)
			}
			fmt.Fprintln(out)

			if noWait {
				return nil
			}
			return watchJob(cmd, ctx, resp.JobID, poll)
		},
	}

	cmd.Flags().StringVar(&req.SourceURL, "url", "", "Content source URL")
	cmd.Flags().StringVar(&req.SourceType, "source-type", "auto", "Source type: auto, youtube, website or rss")
	cmd.Flags().StringVar(&req.Category, "category", "", "Content category")
	cmd.Flags().StringVar(&req.Requirements, "requirements", "", "Extra instructions for the generator")
	cmd.Flags().StringVar(&req.OutputType, "output", "long", "Output type: short or long")
	cmd.Flags().StringVar(&req.Tone, "tone", "neutral", "Tone: neutral, friendly or energetic")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return right after submitting")
	poll.register(cmd)
	_ = cmd.MarkFlagRequired("url")

	return cmd
}
