package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/japaniel/blini/internal/cli"
)

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.RootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
