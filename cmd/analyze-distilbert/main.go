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

	// defaults to the lexicon output so both backends end up in one file
	in := flag.String("in", cfg.SentimentResultsPath, "input CSV")
	out := flag.String("out", cfg.SentimentResultsPath, "output CSV")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, err := pipeline.OpenCache(ctx, cfg)
	if err != nil {
		slog.Error("[Main] Failed to connect result cache", slog.String("error", err.Error()))
		os.Exit(1)
	}

	_, err = pipeline.NewRunner(cfg, sinks).RunModel(ctx, *in, *out)
	sinks.Close()
	if err != nil {
		slog.Error("[Main] DistilBERT analysis failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
