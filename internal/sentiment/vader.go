package sentiment

import (
	"context"
	"math"

	"github.com/jonreiter/govader"

	"github.com/spacesedan/reviewpulse/internal/models"
)

const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// LexiconClassifier scores text with the VADER lexicon. It holds no per-call
// state and may be shared.
type LexiconClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewLexiconClassifier() *LexiconClassifier {
	return &LexiconClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Scores returns the raw polarity components for text.
func (l *LexiconClassifier) Scores(text string) models.LexiconScores {
	s := l.analyzer.PolarityScores(text)
	return models.LexiconScores{
		Compound: s.Compound,
		Positive: s.Positive,
		Negative: s.Negative,
		Neutral:  s.Neutral,
	}
}

func (l *LexiconClassifier) Classify(_ context.Context, text string) models.Result {
	return LexiconResult(l.Scores(text))
}

func (l *LexiconClassifier) Close() error {
	return nil
}

// LexiconResult applies the compound thresholds. The reported score is always
// |compound| rounded to 4 places; the component matching the label is kept as
// Confidence in the diagnostics only.
func LexiconResult(scores models.LexiconScores) models.Result {
	var label models.Label
	switch {
	case scores.Compound >= PositiveThreshold:
		label = models.LabelPositive
		scores.Confidence = scores.Positive
	case scores.Compound <= NegativeThreshold:
		label = models.LabelNegative
		scores.Confidence = scores.Negative
	default:
		label = models.LabelNeutral
		scores.Confidence = scores.Neutral
	}

	return models.Result{
		Label:   label,
		Score:   round4(math.Abs(scores.Compound)),
		Lexicon: &scores,
	}
}
