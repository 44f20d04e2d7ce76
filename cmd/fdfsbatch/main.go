package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/happyfish100/fdfs-batch/cli"
)

func main() {
	// A signal stops the engine from claiming new items; in-flight
	// actions finish before the process exits.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(cli.Execute(ctx))
}
