package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	cmd, cc := newRootCommand()
	err := execute(ctx, cmd, cc)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", friendlyError(err))
		os.Exit(1)
	}
}
