package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/reviewpulse/config"
	"github.com/spacesedan/reviewpulse/internal/logging"
	"github.com/spacesedan/reviewpulse/internal/pipeline"
)

func main() {
	config.LoadEnv(config.AppEnv())
	cfg, err := config.Load()
	if err != nil {
		slog.Error("[Main] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, err := pipeline.OpenSinks(ctx, cfg)
	if err != nil {
		slog.Error("[Main] Failed to connect sinks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	run, err := pipeline.NewRunner(cfg, sinks).RunAll(ctx)
	sinks.Close()
	if err != nil {
		slog.Error("[Main] Sentiment pipeline failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("[Main] Sentiment analysis complete",
		slog.String("run_id", run.RunID),
		slog.Int("rows", run.Rows))
}
