package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ifuryst/scriptforge/internal/models"
	"github.com/ifuryst/scriptforge/internal/poller"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var poll pollFlags

	cmd := &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Wait for a job to finish and print its script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchJob(cmd, ctx, args[0], poll)
		},
	}
	poll.register(cmd)
	return cmd
}

func watchJob(cmd *cobra.Command, ctx *commandContext, jobID string, flags pollFlags) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	colorize := shouldColorize(out)

	p := poller.New(ctx.client(),
		poller.WithInterval(flags.interval),
		poller.WithTimeout(flags.timeout),
		poller.WithCheckHook(func(attempt int, status *models.JobStatus, err error) {
			if err != nil {
				fmt.Fprintf(errOut, "check %d: %v (retrying)\n", attempt, err)
				return
			}
			fmt.Fprintf(errOut, "check %d: %s\n", attempt, status.Status)
		}))

	res := p.Poll(cmd.Context(), jobID)

	if res.Status != nil && res.State != poller.StateCancelled {
		if err := recordStatus(cmd, ctx, jobID, res.Status); err != nil {
			return err
		}
	}

	switch res.State {
	case poller.StateResolved:
		fmt.Fprint(out, renderScript(res.Script, colorize))
		return nil
	case poller.StateTimedOut:
		// Informational: the job carries on server side.
		fmt.Fprintln(out, friendlyError(models.ErrTimeout))
		return nil
	default:
		if res.Err == nil {
			res.Err = errors.New("polling stopped")
		}
		return res.Err
	}
}

// recordStatus mirrors an observed status into the history if the job is
// known locally.
func recordStatus(cmd *cobra.Command, ctx *commandContext, jobID string, status *models.JobStatus) error {
	store, err := ctx.store(cmd.Context())
	if err != nil {
		return err
	}
	if err := store.Update(cmd.Context(), jobID, status.Status, status.ScriptID); err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return nil
}
