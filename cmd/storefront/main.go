package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, closeApp := newRootCmd(os.Stdout, openStore)
	err := cmd.ExecuteContext(ctx)
	if closeErr := closeApp(); err == nil {
		err = closeErr
	}
	if err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}
