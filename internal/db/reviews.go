package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spacesedan/reviewpulse/internal/dataset"
	"github.com/spacesedan/reviewpulse/internal/models"
	"github.com/spacesedan/reviewpulse/internal/utils"
)

const (
	MaxReviewTextChars = 5000
	DefaultSource      = "Google Play"
	// insertBatchSize keeps a multi-row insert well below the bind limit.
	insertBatchSize = 200
	reviewColumns   = 11
)

var (
	ErrNoBanks      = errors.New("no banks found, upsert banks first")
	ErrUnknownBank  = errors.New("bank not found")
	ErrInvalidValue = errors.New("invalid value")
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
}

type InsertStats struct {
	Inserted int
	Failed   int
}

// InsertReviews loads every row of table into the reviews table inside one
// transaction. Rows whose bank cannot be resolved or whose rating is out of
// range are skipped and counted as failed.
func (s *ReviewStore) InsertReviews(ctx context.Context, table *dataset.Table) (InsertStats, error) {
	var stats InsertStats

	mapping, err := s.BankIDMapping(ctx)
	if err != nil {
		return stats, err
	}
	if len(mapping) == 0 {
		return stats, ErrNoBanks
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	buffer := utils.NewBatchBuffer[models.Review](insertBatchSize)
	flush := func() error {
		if !buffer.HasData() {
			return nil
		}
		batch := buffer.GetAndClear()
		query, args := buildInsert(batch)
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert reviews: %w", err)
		}
		stats.Inserted += len(batch)
		slog.Debug("[DB] Inserted reviews", slog.Int("inserted", stats.Inserted))
		return nil
	}

	for i := 0; i < table.Len(); i++ {
		review, err := ReviewFromRow(table, i, mapping)
		if err != nil {
			stats.Failed++
			if stats.Failed <= 5 {
				msg := err.Error()
				if len(msg) > 50 {
					msg = msg[:50]
				}
				slog.Warn("[DB] Skipping row", slog.Int("row", i), slog.String("error", msg))
			}
			continue
		}
		if buffer.Add(review) {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	if err := tx.Commit(ctx); err != nil {
		return stats, fmt.Errorf("failed to commit reviews: %w", err)
	}

	slog.Info("[DB] Reviews loaded",
		slog.Int("inserted", stats.Inserted),
		slog.Int("failed", stats.Failed))
	return stats, nil
}

// ReviewFromRow converts row i of table into a Review. Missing optional cells
// become NULLs; unparsable dates and scores are NULL as well.
func ReviewFromRow(table *dataset.Table, i int, mapping map[string]int) (models.Review, error) {
	review := models.Review{Source: DefaultSource}

	bankName, _ := cell(table, i, "bank_name")
	bankID, ok := MatchBank(bankName, mapping)
	if !ok {
		return review, fmt.Errorf("%w: %q", ErrUnknownBank, bankName)
	}
	review.BankID = bankID
	review.BankName = bankName

	text, _ := cell(table, i, "review_text")
	review.ReviewText = truncate(text, MaxReviewTextChars)

	if raw, ok := cell(table, i, "rating"); ok {
		rating, err := parseRating(raw)
		if err != nil {
			return review, err
		}
		review.Rating = &rating
	}

	if raw, ok := cell(table, i, "review_date"); ok {
		review.ReviewDate = parseDate(raw)
	}

	review.SentimentLabelVader = optional(table, i, "sentiment_label_vader")
	review.SentimentScoreVader = optionalFloat(table, i, "sentiment_score_vader")
	review.SentimentLabelDistilbert = optional(table, i, "sentiment_label_distilbert")
	review.SentimentScoreDistilbert = optionalFloat(table, i, "sentiment_score_distilbert")
	review.Themes = optional(table, i, "themes")
	review.PrimaryTheme = optional(table, i, "primary_theme")
	if source, ok := cell(table, i, "source"); ok {
		review.Source = source
	}

	return review, nil
}

// MatchBank resolves a bank name exactly, then by substring in either
// direction, checking names in sorted order.
func MatchBank(name string, mapping map[string]int) (int, bool) {
	if id, ok := mapping[name]; ok {
		return id, true
	}
	if name == "" {
		return 0, false
	}

	names := make([]string, 0, len(mapping))
	for n := range mapping {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		if strings.Contains(n, name) || strings.Contains(name, n) {
			return mapping[n], true
		}
	}
	return 0, false
}

func buildInsert(reviews []models.Review) (string, []any) {
	var b strings.Builder
	b.WriteString(`INSERT INTO reviews (
            bank_id, review_text, rating, review_date,
            sentiment_label_vader, sentiment_score_vader,
            sentiment_label_distilbert, sentiment_score_distilbert,
            themes, primary_theme, source
        ) VALUES `)

	args := make([]any, 0, len(reviews)*reviewColumns)
	for i, r := range reviews {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := 0; j < reviewColumns; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", i*reviewColumns+j+1)
		}
		b.WriteString(")")

		args = append(args,
			r.BankID, r.ReviewText, r.Rating, r.ReviewDate,
			r.SentimentLabelVader, r.SentimentScoreVader,
			r.SentimentLabelDistilbert, r.SentimentScoreDistilbert,
			r.Themes, r.PrimaryTheme, r.Source,
		)
	}
	return b.String(), args
}

// cell returns the value at row i, column name and whether it is present.
func cell(table *dataset.Table, i int, name string) (string, bool) {
	v := table.Value(i, name)
	if dataset.IsNA(strings.TrimSpace(v)) {
		return "", false
	}
	return v, true
}

func optional(table *dataset.Table, i int, name string) *string {
	v, ok := cell(table, i, name)
	if !ok {
		return nil
	}
	return &v
}

func optionalFloat(table *dataset.Table, i int, name string) *float64 {
	v, ok := cell(table, i, name)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseRating accepts integer and float spellings ("4", "4.0").
func parseRating(raw string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: rating %q", ErrInvalidValue, raw)
	}
	rating := int(f)
	if rating < 1 || rating > 5 {
		return 0, fmt.Errorf("%w: rating %d out of range", ErrInvalidValue, rating)
	}
	return rating, nil
}

func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

func truncate(text string, n int) string {
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
