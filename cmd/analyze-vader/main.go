package main

import (
	"context"
	"flag"
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

	in := flag.String("in", cfg.ProcessedReviewsPath, "processed reviews CSV")
	out := flag.String("out", cfg.SentimentResultsPath, "output CSV")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := pipeline.NewRunner(cfg, nil).RunLexicon(ctx, *in, *out); err != nil {
		slog.Error("[Main] VADER analysis failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
