package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/spacesedan/reviewpulse/internal/clients"
	"github.com/spacesedan/reviewpulse/internal/dataset"
)

func setupStore(t *testing.T) *ReviewStore {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("bank_reviews"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pg, err := clients.NewPostgresClient(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	return NewReviewStore(pg.DB)
}

func TestReviewStore_LoadAndVerify(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTables(ctx))
	require.NoError(t, store.CreateTables(ctx))
	require.NoError(t, store.UpsertBanks(ctx, map[string]string{"CBE": "com.combanketh.mobilebanking"}))
	require.NoError(t, store.UpsertBanks(ctx, nil))

	mapping, err := store.BankIDMapping(ctx)
	require.NoError(t, err)
	assert.Len(t, mapping, 3)

	table := reviewTable(t, "review_text,rating,review_date,bank_name,sentiment_label_distilbert,sentiment_score_distilbert,primary_theme\n"+
		"Great app,5,2024-11-03,Commercial Bank of Ethiopia,POSITIVE,0.99,UI\n"+
		"Keeps crashing,1,2024-11-04,Dashen,NEGATIVE,0.97,Reliability\n"+
		"ok,3,,Awash Bank,,,\n")

	stats, err := store.InsertReviews(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, InsertStats{Inserted: 2, Failed: 1}, stats)

	report, err := store.VerifyData(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalReviews)
	assert.Len(t, report.ReviewsPerBank, 3)
	assert.ElementsMatch(t, []NamedCount{{"POSITIVE", 1}, {"NEGATIVE", 1}}, report.ModelLabels)
	assert.Len(t, report.TopThemes, 2)
}

func TestReviewStore_InsertWithoutBanks(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTables(ctx))

	_, err := store.InsertReviews(ctx, &dataset.Table{})
	assert.ErrorIs(t, err, ErrNoBanks)
}
