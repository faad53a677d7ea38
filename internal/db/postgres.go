package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spacesedan/reviewpulse/internal/models"
)

const createBanksSQL = `
CREATE TABLE IF NOT EXISTS banks (
    bank_id SERIAL PRIMARY KEY,
    bank_code VARCHAR(20) UNIQUE NOT NULL,
    bank_name VARCHAR(100) NOT NULL,
    app_id VARCHAR(100) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

const createReviewsSQL = `
CREATE TABLE IF NOT EXISTS reviews (
    review_id SERIAL PRIMARY KEY,
    bank_id INTEGER REFERENCES banks(bank_id),
    review_text TEXT,
    rating INTEGER CHECK (rating >= 1 AND rating <= 5),
    review_date DATE,
    sentiment_label_vader VARCHAR(20),
    sentiment_score_vader FLOAT,
    sentiment_label_distilbert VARCHAR(20),
    sentiment_score_distilbert FLOAT,
    themes TEXT,
    primary_theme VARCHAR(100),
    source VARCHAR(50) DEFAULT 'Google Play',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_reviews_bank_id ON reviews(bank_id);`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_rating ON reviews(rating);`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_sentiment ON reviews(sentiment_label_distilbert);`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_theme ON reviews(primary_theme);`,
}

// BankNames maps bank codes to display names.
var BankNames = map[string]string{
	"CBE":    "Commercial Bank of Ethiopia",
	"BOA":    "Bank of Abyssinia",
	"Dashen": "Dashen Bank",
}

// ReviewStore persists banks and analyzed reviews in PostgreSQL.
type ReviewStore struct {
	DB *pgxpool.Pool
}

func NewReviewStore(pool *pgxpool.Pool) *ReviewStore {
	return &ReviewStore{DB: pool}
}

func (s *ReviewStore) CreateTables(ctx context.Context) error {
	statements := append([]string{createBanksSQL, createReviewsSQL}, indexStatements...)
	for _, stmt := range statements {
		if _, err := s.DB.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	slog.Info("[DB] Tables created")
	return nil
}

// UpsertBanks inserts every known bank, updating name and app id when the code
// already exists.
func (s *ReviewStore) UpsertBanks(ctx context.Context, appIDs map[string]string) error {
	const query = `
        INSERT INTO banks (bank_code, bank_name, app_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (bank_code) DO UPDATE SET
            bank_name = EXCLUDED.bank_name,
            app_id = EXCLUDED.app_id
    `

	codes := make([]string, 0, len(BankNames))
	for code := range BankNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if _, err := s.DB.Exec(ctx, query, code, BankNames[code], appIDs[code]); err != nil {
			return fmt.Errorf("failed to upsert bank %s: %w", code, err)
		}
		slog.Info("[DB] Upserted bank", slog.String("bank", BankNames[code]))
	}
	return nil
}

// BankIDMapping maps bank names to their ids.
func (s *ReviewStore) BankIDMapping(ctx context.Context) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `SELECT bank_id, bank_code, bank_name, app_id FROM banks`)
	if err != nil {
		return nil, fmt.Errorf("failed to query banks: %w", err)
	}
	defer rows.Close()

	mapping := make(map[string]int)
	for rows.Next() {
		var b models.Bank
		if err := rows.Scan(&b.ID, &b.Code, &b.Name, &b.AppID); err != nil {
			return nil, err
		}
		mapping[b.Name] = b.ID
	}
	return mapping, rows.Err()
}

type NamedCount struct {
	Name  string
	Count int
}

type NamedAverage struct {
	Name    string
	Average float64
}

// DataReport is the result of the verification queries.
type DataReport struct {
	TotalReviews   int
	ReviewsPerBank []NamedCount
	AverageRating  []NamedAverage
	ModelLabels    []NamedCount
	TopThemes      []NamedCount
}

func (s *ReviewStore) VerifyData(ctx context.Context) (*DataReport, error) {
	report := &DataReport{}

	if err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&report.TotalReviews); err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	var err error
	report.ReviewsPerBank, err = s.namedCounts(ctx, `
        SELECT b.bank_name, COUNT(r.review_id) AS review_count
        FROM banks b
        LEFT JOIN reviews r ON b.bank_id = r.bank_id
        GROUP BY b.bank_name
        ORDER BY review_count DESC, b.bank_name`)
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `
        SELECT b.bank_name, ROUND(AVG(r.rating)::numeric, 2)::float8 AS avg_rating
        FROM banks b
        JOIN reviews r ON b.bank_id = r.bank_id
        WHERE r.rating IS NOT NULL
        GROUP BY b.bank_name
        ORDER BY avg_rating DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query average ratings: %w", err)
	}
	for rows.Next() {
		var na NamedAverage
		if err := rows.Scan(&na.Name, &na.Average); err != nil {
			rows.Close()
			return nil, err
		}
		report.AverageRating = append(report.AverageRating, na)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	report.ModelLabels, err = s.namedCounts(ctx, `
        SELECT sentiment_label_distilbert, COUNT(*) AS count
        FROM reviews
        WHERE sentiment_label_distilbert IS NOT NULL
        GROUP BY sentiment_label_distilbert
        ORDER BY count DESC`)
	if err != nil {
		return nil, err
	}

	report.TopThemes, err = s.namedCounts(ctx, `
        SELECT primary_theme, COUNT(*) AS count
        FROM reviews
        WHERE primary_theme IS NOT NULL AND primary_theme != 'Other'
        GROUP BY primary_theme
        ORDER BY count DESC
        LIMIT 5`)
	if err != nil {
		return nil, err
	}

	logReport(report)
	return report, nil
}

func (s *ReviewStore) namedCounts(ctx context.Context, query string) ([]NamedCount, error) {
	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("verification query failed: %w", err)
	}
	defer rows.Close()

	var out []NamedCount
	for rows.Next() {
		var nc NamedCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}

func logReport(r *DataReport) {
	slog.Info("[DB] Total reviews", slog.Int("count", r.TotalReviews))
	for _, nc := range r.ReviewsPerBank {
		slog.Info("[DB] Reviews per bank", slog.String("bank", nc.Name), slog.Int("count", nc.Count))
	}
	for _, na := range r.AverageRating {
		slog.Info("[DB] Average rating", slog.String("bank", na.Name), slog.Float64("rating", na.Average))
	}
	for _, nc := range r.ModelLabels {
		slog.Info("[DB] Model sentiment", slog.String("label", nc.Name), slog.Int("count", nc.Count))
	}
	for _, nc := range r.TopThemes {
		slog.Info("[DB] Top theme", slog.String("theme", nc.Name), slog.Int("count", nc.Count))
	}
}

// Schema is the DDL applied by CreateTables, with sample queries, as written
// by ExportSchema.
func Schema() string {
	return `-- Bank Reviews Database Schema

-- Banks
` + trimLeadingNewline(createBanksSQL) + `

-- Reviews with sentiment and theme analysis
` + trimLeadingNewline(createReviewsSQL) + `

-- Indexes
` + strings.Join(indexStatements, "\n") + `

-- Count reviews per bank
-- SELECT b.bank_name, COUNT(r.review_id) AS review_count
-- FROM banks b
-- LEFT JOIN reviews r ON b.bank_id = r.bank_id
-- GROUP BY b.bank_name;

-- Sentiment distribution
-- SELECT sentiment_label_distilbert, COUNT(*) AS count
-- FROM reviews
-- GROUP BY sentiment_label_distilbert;
`
}

func ExportSchema(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, []byte(Schema()), 0o644); err != nil {
		return fmt.Errorf("failed to export schema: %w", err)
	}
	slog.Info("[DB] Schema exported", slog.String("path", path))
	return nil
}

func trimLeadingNewline(s string) string {
	if len(s) > 0 && s[0] == '\n' {
		return s[1:]
	}
	return s
}
