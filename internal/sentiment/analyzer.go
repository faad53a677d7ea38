package sentiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/spacesedan/reviewpulse/internal/clients"
	"github.com/spacesedan/reviewpulse/internal/dataset"
	"github.com/spacesedan/reviewpulse/internal/models"
	"github.com/spacesedan/reviewpulse/internal/stats"
)

var ErrUnknownBackend = errors.New("unknown sentiment backend")

type Backend string

const (
	BackendVader      Backend = "vader"
	BackendDistilbert Backend = "distilbert"
)

// ParseBackend resolves a case-insensitive backend selector.
func ParseBackend(method string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(method))) {
	case BackendVader:
		return BackendVader, nil
	case BackendDistilbert:
		return BackendDistilbert, nil
	default:
		return "", fmt.Errorf("%w: %q, use 'vader' or 'distilbert'", ErrUnknownBackend, method)
	}
}

func (b Backend) LabelColumn() string {
	return "sentiment_label_" + string(b)
}

func (b Backend) ScoreColumn() string {
	return "sentiment_score_" + string(b)
}

type ModelConfig struct {
	Name       string
	Dir        string
	Runtime    string
	RemoteName string
	Endpoint   string
	Token      string
}

type AnalyzerConfig struct {
	Method      string
	Model       ModelConfig
	BatchSize   int
	GroupColumn string
	// Cache is optional and only used by the model backend.
	Cache ResultCache
	// Progress receives the progress bar, os.Stderr when nil.
	Progress io.Writer
}

// Analyzer presents one interface over the backend chosen at construction.
type Analyzer struct {
	backend     Backend
	classifier  Classifier
	batchSize   int
	groupColumn string
	progress    io.Writer
}

// NewAnalyzer builds the classifier for cfg.Method. Unknown backends and
// models that cannot be loaded fail here, never at call time.
func NewAnalyzer(ctx context.Context, cfg AnalyzerConfig) (*Analyzer, error) {
	backend, err := ParseBackend(cfg.Method)
	if err != nil {
		return nil, err
	}

	var classifier Classifier
	switch backend {
	case BackendVader:
		slog.Info("[Analyzer] Initializing VADER sentiment analyzer")
		classifier = NewLexiconClassifier()
	case BackendDistilbert:
		slog.Info("[Analyzer] Initializing DistilBERT sentiment analyzer",
			slog.String("runtime", cfg.Model.Runtime))
		runtime, err := newRuntime(ctx, cfg.Model)
		if err != nil {
			return nil, err
		}
		if cfg.Cache != nil {
			runtime = NewCachedRuntime(runtime, cfg.Cache, cfg.Model.cacheName())
		}
		classifier = NewModelClassifier(runtime)
	}

	return NewAnalyzerWith(backend, classifier, cfg), nil
}

// NewAnalyzerWith wraps an already initialized classifier.
func NewAnalyzerWith(backend Backend, classifier Classifier, cfg AnalyzerConfig) *Analyzer {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 16
	}
	progress := cfg.Progress
	if progress == nil {
		progress = os.Stderr
	}

	return &Analyzer{
		backend:     backend,
		classifier:  classifier,
		batchSize:   batchSize,
		groupColumn: cfg.GroupColumn,
		progress:    progress,
	}
}

func newRuntime(ctx context.Context, cfg ModelConfig) (Runtime, error) {
	switch cfg.Runtime {
	case "", "local":
		runtime, err := NewHugotRuntime(cfg.Name, cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to load model %s: %w", cfg.Name, err)
		}
		return runtime, nil
	case "remote":
		client := clients.NewHuggingFaceClient(cfg.Endpoint, cfg.RemoteName, cfg.Token)
		if err := client.Probe(ctx); err != nil {
			return nil, fmt.Errorf("model %s is not reachable: %w", cfg.RemoteName, err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown model runtime %q", cfg.Runtime)
	}
}

func (m ModelConfig) cacheName() string {
	if m.Runtime == "remote" {
		return m.RemoteName
	}
	return m.Name
}

func (a *Analyzer) Backend() Backend {
	return a.backend
}

// Close releases the classifier's resources.
func (a *Analyzer) Close() error {
	return a.classifier.Close()
}

// AnalyzeText scores one text. Missing, empty and whitespace-only text is
// NEUTRAL/0.0 without reaching the backend.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) models.Result {
	if IsMissing(text) {
		return models.NeutralResult()
	}
	return a.classifier.Classify(ctx, strings.TrimSpace(text))
}

// AnalyzeTable scores every row's textColumn in order and returns a copy of
// table with the backend's label and score columns. The input is not modified
// and row count and order are preserved. The summary is logged, not returned.
func (a *Analyzer) AnalyzeTable(ctx context.Context, table *dataset.Table, textColumn string) (*dataset.Table, error) {
	texts, err := table.Column(textColumn)
	if err != nil {
		return nil, err
	}

	slog.Info("[Analyzer] Analyzing sentiment",
		slog.Int("reviews", len(texts)),
		slog.String("backend", strings.ToUpper(string(a.backend))))
	start := time.Now()

	bar := progressbar.NewOptions(len(texts),
		progressbar.OptionSetWriter(a.progress),
		progressbar.OptionSetDescription("Analyzing"),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(a.progress) }),
	)

	labels := make([]string, len(texts))
	scores := make([]string, len(texts))
	failures := 0
	for i, text := range texts {
		result := a.AnalyzeText(ctx, text)
		labels[i] = string(result.Label)
		scores[i] = FormatScore(result.Score)
		if result.Fallback {
			failures++
		}

		_ = bar.Add(1)
		if (i+1)%a.batchSize == 0 {
			slog.Debug("[Analyzer] Progress",
				slog.Int("processed", i+1),
				slog.Int("total", len(texts)))
		}
	}
	_ = bar.Finish()

	out, err := table.WithColumn(a.backend.LabelColumn(), labels)
	if err != nil {
		return nil, err
	}
	out, err = out.WithColumn(a.backend.ScoreColumn(), scores)
	if err != nil {
		return nil, err
	}

	slog.Info("[Analyzer] Analysis complete",
		slog.String("backend", string(a.backend)),
		slog.Int("rows", out.Len()),
		slog.Int("inference_failures", failures),
		slog.Duration("elapsed", time.Since(start)))

	stats.LogSummary(string(a.backend), SummarizeTable(out, a.backend, a.groupColumn))

	return out, nil
}

// SummarizeTable recomputes the summary of a backend's label column, grouped by
// groupColumn when the table has it.
func SummarizeTable(table *dataset.Table, backend Backend, groupColumn string) models.Summary {
	labels, err := table.Column(backend.LabelColumn())
	if err != nil {
		return models.Summary{}
	}

	var groups []string
	if groupColumn != "" && table.HasColumn(groupColumn) {
		groups, _ = table.Column(groupColumn)
	}
	return stats.Summarize(labels, groups)
}
