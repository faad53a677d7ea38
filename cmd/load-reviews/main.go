package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/reviewpulse/config"
	"github.com/spacesedan/reviewpulse/internal/clients"
	"github.com/spacesedan/reviewpulse/internal/dataset"
	"github.com/spacesedan/reviewpulse/internal/db"
	"github.com/spacesedan/reviewpulse/internal/logging"
)

func main() {
	config.LoadEnv(config.AppEnv())
	cfg, err := config.Load()
	if err != nil {
		slog.Error("[Main] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	in := flag.String("in", cfg.FinalResultsPath, "analyzed reviews CSV")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *in); err != nil {
		slog.Error("[Main] Database setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("[Main] Database setup complete")
}

func run(ctx context.Context, cfg *config.Config, in string) error {
	path := firstExisting(in, cfg.FinalResultsPath, cfg.SentimentResultsPath, cfg.ProcessedReviewsPath)
	table, err := dataset.ReadCSV(path)
	if err != nil {
		return err
	}
	slog.Info("[Main] Loaded reviews", slog.String("path", path), slog.Int("rows", table.Len()))

	pg, err := clients.NewPostgresClient(ctx, cfg.DatabaseURL())
	if err != nil {
		return err
	}
	defer pg.Close()

	store := db.NewReviewStore(pg.DB)
	if err := store.CreateTables(ctx); err != nil {
		return err
	}
	if err := store.UpsertBanks(ctx, cfg.AppIDs()); err != nil {
		return err
	}
	if _, err := store.InsertReviews(ctx, table); err != nil {
		return err
	}
	if _, err := store.VerifyData(ctx); err != nil {
		return err
	}
	return db.ExportSchema(cfg.SchemaExportPath)
}

// firstExisting returns the first path that exists, or the first path when
// none do so the read error names it.
func firstExisting(paths ...string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return paths[0]
}
