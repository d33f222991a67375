package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tapcard/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := infrastructure.Bootstrap(ctx)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		slog.Error("bootstrap failed", "err", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("app stopped with error", "err", err)
		os.Exit(1)
	}

	slog.Info("shutdown complete")
}
