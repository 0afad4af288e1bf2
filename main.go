package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"blockshell/internal/app"
	"blockshell/internal/config"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "blockshell:", err)
		os.Exit(2)
	}
	if err := app.Run(ctx, cfg, app.Options{Version: version}); err != nil {
		fmt.Fprintln(os.Stderr, "blockshell:", err)
		os.Exit(1)
	}
}
