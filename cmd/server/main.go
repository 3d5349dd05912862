package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"snaps_engagement/internal/logger"
	"snaps_engagement/internal/transport/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := http.Run(ctx); err != nil {
		logger.L().Fatal().Err(err).Msg("server failed")
	}
}
