package sentiment

import (
	"context"
	"log/slog"

	"github.com/spacesedan/reviewpulse/internal/models"
)

// MaxModelInputChars bounds the raw text handed to the tokenizer, which itself
// caps sequences at 512 tokens.
const MaxModelInputChars = 2000

// Runtime runs a two-class sequence classifier on one text and returns the
// model's native label with its probability.
type Runtime interface {
	Predict(ctx context.Context, text string) (label string, score float64, err error)
	Close() error
}

// ModelClassifier wraps a loaded transformer runtime. It never emits NEUTRAL
// except through the inference fallback.
type ModelClassifier struct {
	runtime Runtime
}

func NewModelClassifier(runtime Runtime) *ModelClassifier {
	return &ModelClassifier{runtime: runtime}
}

func (m *ModelClassifier) Classify(ctx context.Context, text string) models.Result {
	label, score, err := m.runtime.Predict(ctx, truncateRunes(text, MaxModelInputChars))
	if err != nil {
		return inferenceFallback(err)
	}

	return models.Result{
		Label: models.NormalizeLabel(label),
		Score: round4(score),
	}
}

func (m *ModelClassifier) Close() error {
	return m.runtime.Close()
}

// inferenceFallback maps a failed inference to NEUTRAL/0.0 so one bad row does
// not abort the batch.
func inferenceFallback(err error) models.Result {
	slog.Warn("[ModelClassifier] Error analyzing text",
		slog.String("error", truncateRunes(err.Error(), 50)))

	result := models.NeutralResult()
	result.Fallback = true
	return result
}
