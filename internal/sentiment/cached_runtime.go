package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/spacesedan/reviewpulse/internal/models"
)

// ResultCache stores model predictions across runs.
type ResultCache interface {
	Get(ctx context.Context, key string) (models.Result, bool, error)
	Set(ctx context.Context, key string, result models.Result) error
}

// CachedRuntime consults cache before running inference. Cache failures are
// logged and otherwise ignored; failed inferences are never cached.
type CachedRuntime struct {
	next  Runtime
	cache ResultCache
	model string
}

func NewCachedRuntime(next Runtime, cache ResultCache, model string) *CachedRuntime {
	return &CachedRuntime{next: next, cache: cache, model: model}
}

func (c *CachedRuntime) Predict(ctx context.Context, text string) (string, float64, error) {
	key := CacheKey(c.model, text)

	cached, found, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("[CachedRuntime] Cache lookup failed",
			slog.String("error", err.Error()))
	}
	if found {
		return string(cached.Label), cached.Score, nil
	}

	label, score, err := c.next.Predict(ctx, text)
	if err != nil {
		return "", 0, err
	}

	if err := c.cache.Set(ctx, key, models.Result{Label: models.Label(label), Score: score}); err != nil {
		slog.Warn("[CachedRuntime] Cache write failed",
			slog.String("error", err.Error()))
	}
	return label, score, nil
}

func (c *CachedRuntime) Close() error {
	return c.next.Close()
}

// CacheKey derives the cache key for a model and input text.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "sentiment:" + model + ":" + hex.EncodeToString(sum[:])
}
