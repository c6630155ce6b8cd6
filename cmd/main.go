package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/jobplan/pkg/logger"
)

func main() {
	// Initialize logging; the configured format and level are applied once
	// the configuration is loaded.
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
