package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/maialino123/ecomate-extract/internal/cli"
)

func main() {
	// Cancelling the context stops in-flight captures and lets the browser pool close.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}
