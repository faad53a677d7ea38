package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/spacesedan/reviewpulse/config"
	"github.com/spacesedan/reviewpulse/internal/dataset"
	"github.com/spacesedan/reviewpulse/internal/models"
	"github.com/spacesedan/reviewpulse/internal/report"
	"github.com/spacesedan/reviewpulse/internal/sentiment"
	"github.com/spacesedan/reviewpulse/internal/stats"
)

// AnalyzerFactory builds the analyzer for one backend.
type AnalyzerFactory func(ctx context.Context, cfg sentiment.AnalyzerConfig) (*sentiment.Analyzer, error)

// Runner executes batch runs against CSV files. The zero value of every
// optional field disables the matching sink.
type Runner struct {
	cfg         *config.Config
	sinks       *Sinks
	newAnalyzer AnalyzerFactory
}

func NewRunner(cfg *config.Config, sinks *Sinks) *Runner {
	if sinks == nil {
		sinks = &Sinks{}
	}
	return &Runner{cfg: cfg, sinks: sinks, newAnalyzer: sentiment.NewAnalyzer}
}

// WithAnalyzerFactory replaces how analyzers are built.
func (r *Runner) WithAnalyzerFactory(f AnalyzerFactory) *Runner {
	r.newAnalyzer = f
	return r
}

// AnalyzerConfig maps the environment onto the settings of one backend.
func AnalyzerConfig(cfg *config.Config, method string, cache sentiment.ResultCache) sentiment.AnalyzerConfig {
	return sentiment.AnalyzerConfig{
		Method: method,
		Model: sentiment.ModelConfig{
			Name:       cfg.SentimentModel,
			Dir:        cfg.ModelDir,
			Runtime:    cfg.ModelRuntime,
			RemoteName: cfg.RemoteSentimentModel,
			Endpoint:   cfg.HFInferenceEndpoint,
			Token:      cfg.HFToken,
		},
		BatchSize:   cfg.BatchSize,
		GroupColumn: cfg.GroupColumn,
		Cache:       cache,
	}
}

// RunLexicon scores in with the lexicon backend and writes the result to out.
func (r *Runner) RunLexicon(ctx context.Context, in, out string) (*dataset.Table, error) {
	return r.RunBackend(ctx, string(sentiment.BackendVader), in, out)
}

// RunModel scores in with the model backend and writes the result to out. in
// and out may be the same file.
func (r *Runner) RunModel(ctx context.Context, in, out string) (*dataset.Table, error) {
	return r.RunBackend(ctx, string(sentiment.BackendDistilbert), in, out)
}

// RunBackend reads in, scores every row with method and writes the augmented
// table to out. Running it again replaces the backend's columns.
func (r *Runner) RunBackend(ctx context.Context, method, in, out string) (*dataset.Table, error) {
	slog.Info("[Pipeline] Loading reviews", slog.String("path", in))
	table, err := dataset.ReadCSV(in)
	if err != nil {
		return nil, err
	}

	var cache sentiment.ResultCache
	if r.sinks.Cache != nil {
		cache = r.sinks.Cache
	}

	analyzer, err := r.newAnalyzer(ctx, AnalyzerConfig(r.cfg, method, cache))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := analyzer.Close(); err != nil {
			slog.Warn("[Pipeline] Failed to close analyzer", slog.String("error", err.Error()))
		}
	}()

	result, err := analyzer.AnalyzeTable(ctx, table, r.cfg.TextColumn)
	if err != nil {
		return nil, err
	}

	if err := result.WriteCSV(out); err != nil {
		return nil, err
	}
	slog.Info("[Pipeline] Results saved", slog.String("path", out))
	return result, nil
}

// RunAll runs the lexicon backend over the processed reviews, then the model
// backend over its output, and compares the two label columns. Sinks run after
// the CSV is written; their failures are joined into the returned error.
func (r *Runner) RunAll(ctx context.Context) (*models.RunSummary, error) {
	in := r.cfg.ProcessedReviewsPath
	out := r.cfg.SentimentResultsPath

	slog.Info("[Pipeline] [1/2] Running VADER sentiment analysis")
	if _, err := r.RunLexicon(ctx, in, out); err != nil {
		return nil, err
	}

	slog.Info("[Pipeline] [2/2] Running DistilBERT sentiment analysis")
	final, err := r.RunModel(ctx, out, out)
	if err != nil {
		return nil, err
	}

	run, err := Summarize(final, r.cfg.GroupColumn)
	if err != nil {
		return nil, err
	}
	run.InputPath = in

	slog.Info("[Pipeline] Agreement rate",
		slog.String("rate", stats.FormatPercent(run.AgreementRate*100)))

	return run, r.deliver(ctx, run, final)
}

// Summarize builds the run record for a table carrying both backends' columns.
func Summarize(table *dataset.Table, groupColumn string) (*models.RunSummary, error) {
	lexicon, err := table.Column(sentiment.BackendVader.LabelColumn())
	if err != nil {
		return nil, err
	}
	model, err := table.Column(sentiment.BackendDistilbert.LabelColumn())
	if err != nil {
		return nil, err
	}

	rate, err := stats.AgreementRate(lexicon, model)
	if err != nil {
		return nil, err
	}

	return &models.RunSummary{
		RunID: uuid.NewString(),
		Rows:  table.Len(),
		Backends: map[string]models.Summary{
			string(sentiment.BackendVader):      sentiment.SummarizeTable(table, sentiment.BackendVader, groupColumn),
			string(sentiment.BackendDistilbert): sentiment.SummarizeTable(table, sentiment.BackendDistilbert, groupColumn),
		},
		AgreementRate: rate,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (r *Runner) deliver(ctx context.Context, run *models.RunSummary, table *dataset.Table) error {
	var errs []error

	if r.cfg.ReportDir != "" {
		if _, err := report.Write(r.cfg.ReportDir, *run); err != nil {
			errs = append(errs, err)
		}
	}

	if r.sinks.Publisher != nil {
		backends := []sentiment.Backend{sentiment.BackendVader, sentiment.BackendDistilbert}
		if _, err := r.sinks.Publisher.PublishTable(ctx, run.RunID, table, r.cfg.TextColumn, r.cfg.GroupColumn, backends); err != nil {
			errs = append(errs, err)
		}
	}

	if r.sinks.Summaries != nil {
		if err := r.sinks.Summaries.PutRunSummary(ctx, *run); err != nil {
			errs = append(errs, err)
		}
	}

	for _, err := range errs {
		slog.Error("[Pipeline] Sink failed", slog.String("error", err.Error()))
	}
	if len(errs) > 0 {
		return fmt.Errorf("run %s: %w", run.RunID, errors.Join(errs...))
	}
	return nil
}
