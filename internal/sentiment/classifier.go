package sentiment

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/spacesedan/reviewpulse/internal/dataset"
	"github.com/spacesedan/reviewpulse/internal/models"
)

// Classifier scores one normalized, non-empty text.
type Classifier interface {
	Classify(ctx context.Context, text string) models.Result
	Close() error
}

// IsMissing reports whether text carries no reviewable content.
func IsMissing(text string) bool {
	return strings.TrimSpace(text) == "" || dataset.IsNA(text)
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// FormatScore renders a score for a CSV cell, always keeping a decimal point.
func FormatScore(score float64) string {
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// truncateRunes cuts text to at most n characters without splitting a rune.
func truncateRunes(text string, n int) string {
	if len(text) <= n {
		return text
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
