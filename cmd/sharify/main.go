// Command sharify is the terminal client for the Sharify API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sharify/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
