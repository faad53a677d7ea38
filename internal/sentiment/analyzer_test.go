package sentiment

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/reviewpulse/internal/dataset"
	"github.com/spacesedan/reviewpulse/internal/models"
)

// --- Fakes ---

type countingClassifier struct {
	calls  []string
	result func(text string) models.Result
}

func (c *countingClassifier) Classify(_ context.Context, text string) models.Result {
	c.calls = append(c.calls, text)
	return c.result(text)
}

func (c *countingClassifier) Close() error { return nil }

func byKeyword(text string) models.Result {
	switch {
	case strings.Contains(text, "good"):
		return models.Result{Label: models.LabelPositive, Score: 0.9}
	case strings.Contains(text, "bad"):
		return models.Result{Label: models.LabelNegative, Score: 0.8}
	default:
		return models.Result{Label: models.LabelNeutral, Score: 0.1}
	}
}

func testConfig() AnalyzerConfig {
	return AnalyzerConfig{BatchSize: 2, GroupColumn: "bank_name", Progress: io.Discard}
}

func reviewsTable() *dataset.Table {
	return &dataset.Table{
		Columns: []string{"review_text", "bank_name"},
		Rows: [][]string{
			{"good app", "CBE"},
			{"bad app", "BOA"},
			{"", "Dashen"},
			{"   ", "CBE"},
			{"it is an app", "BOA"},
			{"good but bad", "CBE"},
		},
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want Backend
	}{
		{"vader", BackendVader},
		{"VADER", BackendVader},
		{" distilbert ", BackendDistilbert},
		{"DistilBERT", BackendDistilbert},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseBackend_Unknown(t *testing.T) {
	_, err := ParseBackend("textblob")
	require.ErrorIs(t, err, ErrUnknownBackend)
	assert.Contains(t, err.Error(), "textblob")
}

func TestNewAnalyzer_UnknownBackendFailsAtConstruction(t *testing.T) {
	cfg := testConfig()
	cfg.Method = "roberta"

	analyzer, err := NewAnalyzer(context.Background(), cfg)
	assert.Nil(t, analyzer)
	require.ErrorIs(t, err, ErrUnknownBackend)
	assert.Contains(t, err.Error(), "roberta")
}

func TestNewAnalyzer_UnknownRuntimeFailsAtConstruction(t *testing.T) {
	cfg := testConfig()
	cfg.Method = "distilbert"
	cfg.Model.Runtime = "tpu"

	_, err := NewAnalyzer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewAnalyzer_Vader(t *testing.T) {
	cfg := testConfig()
	cfg.Method = "vader"

	analyzer, err := NewAnalyzer(context.Background(), cfg)
	require.NoError(t, err)
	defer analyzer.Close()

	assert.Equal(t, BackendVader, analyzer.Backend())
	result := analyzer.AnalyzeText(context.Background(), "GREAT!!! Love this app")
	assert.Equal(t, models.LabelPositive, result.Label)
	assert.Greater(t, result.Score, 0.0)
}

func TestBackendColumns(t *testing.T) {
	assert.Equal(t, "sentiment_label_vader", BackendVader.LabelColumn())
	assert.Equal(t, "sentiment_score_vader", BackendVader.ScoreColumn())
	assert.Equal(t, "sentiment_label_distilbert", BackendDistilbert.LabelColumn())
	assert.Equal(t, "sentiment_score_distilbert", BackendDistilbert.ScoreColumn())
}

func TestAnalyzeText_MissingInputShortCircuits(t *testing.T) {
	for _, backend := range []Backend{BackendVader, BackendDistilbert} {
		classifier := &countingClassifier{result: byKeyword}
		analyzer := NewAnalyzerWith(backend, classifier, testConfig())

		for _, text := range []string{"", "   ", "\t\n", "nan", "NaN", "NULL"} {
			result := analyzer.AnalyzeText(context.Background(), text)
			assert.Equal(t, models.Result{Label: models.LabelNeutral, Score: 0.0}, result, "text %q", text)
		}
		assert.Empty(t, classifier.calls, "backend must not be invoked for missing text")
	}
}

func TestAnalyzeText_TrimsBeforeDelegating(t *testing.T) {
	classifier := &countingClassifier{result: byKeyword}
	analyzer := NewAnalyzerWith(BackendVader, classifier, testConfig())

	analyzer.AnalyzeText(context.Background(), "  good app \n")

	assert.Equal(t, []string{"good app"}, classifier.calls)
}

func TestAnalyzeTable_AppendsColumnsInOrder(t *testing.T) {
	classifier := &countingClassifier{result: byKeyword}
	analyzer := NewAnalyzerWith(BackendDistilbert, classifier, testConfig())
	input := reviewsTable()
	original := input.Clone()

	out, err := analyzer.AnalyzeTable(context.Background(), input, "review_text")
	require.NoError(t, err)

	assert.Equal(t, original, input, "input table must not be mutated")
	assert.Equal(t, input.Len(), out.Len())
	assert.Equal(t, []string{"review_text", "bank_name", "sentiment_label_distilbert", "sentiment_score_distilbert"}, out.Columns)

	labels, err := out.Column("sentiment_label_distilbert")
	require.NoError(t, err)
	assert.Equal(t, []string{"POSITIVE", "NEGATIVE", "NEUTRAL", "NEUTRAL", "NEUTRAL", "POSITIVE"}, labels)

	scores, err := out.Column("sentiment_score_distilbert")
	require.NoError(t, err)
	assert.Equal(t, []string{"0.9", "0.8", "0.0", "0.0", "0.1", "0.9"}, scores)

	for i := range input.Rows {
		assert.Equal(t, input.Rows[i], out.Rows[i][:2], "row %d keeps its original cells", i)
	}
	assert.Len(t, classifier.calls, 4, "empty rows never reach the backend")
}

func TestAnalyzeTable_Deterministic(t *testing.T) {
	analyzer := NewAnalyzerWith(BackendVader, NewLexiconClassifier(), testConfig())
	input := &dataset.Table{
		Columns: []string{"review_text"},
		Rows:    [][]string{{"GREAT!!! Love this app"}, {"worst bank app ever"}, {""}, {"ok"}},
	}

	first, err := analyzer.AnalyzeTable(context.Background(), input, "review_text")
	require.NoError(t, err)
	second, err := analyzer.AnalyzeTable(context.Background(), input, "review_text")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyzeTable_CoexistingBackends(t *testing.T) {
	vader := NewAnalyzerWith(BackendVader, &countingClassifier{result: byKeyword}, testConfig())
	model := NewAnalyzerWith(BackendDistilbert, &countingClassifier{result: byKeyword}, testConfig())

	withVader, err := vader.AnalyzeTable(context.Background(), reviewsTable(), "review_text")
	require.NoError(t, err)
	both, err := model.AnalyzeTable(context.Background(), withVader, "review_text")
	require.NoError(t, err)

	assert.True(t, both.HasColumn("sentiment_label_vader"))
	assert.True(t, both.HasColumn("sentiment_label_distilbert"))
	assert.Len(t, both.Columns, 6)

	again, err := vader.AnalyzeTable(context.Background(), both, "review_text")
	require.NoError(t, err)
	assert.Len(t, again.Columns, 6, "rerunning a backend replaces its columns")
}

func TestAnalyzeTable_FallbackRowsKeepRowCount(t *testing.T) {
	runtime := &fakeRuntime{err: assert.AnError}
	analyzer := NewAnalyzerWith(BackendDistilbert, NewModelClassifier(runtime), testConfig())

	out, err := analyzer.AnalyzeTable(context.Background(), reviewsTable(), "review_text")
	require.NoError(t, err)

	assert.Equal(t, 6, out.Len())
	labels, _ := out.Column("sentiment_label_distilbert")
	for _, l := range labels {
		assert.Equal(t, "NEUTRAL", l)
	}
}

func TestAnalyzeTable_MissingTextColumn(t *testing.T) {
	analyzer := NewAnalyzerWith(BackendVader, NewLexiconClassifier(), testConfig())

	_, err := analyzer.AnalyzeTable(context.Background(), reviewsTable(), "content")
	assert.ErrorIs(t, err, dataset.ErrColumnNotFound)
}

func TestSummarizeTable(t *testing.T) {
	analyzer := NewAnalyzerWith(BackendVader, &countingClassifier{result: byKeyword}, testConfig())
	out, err := analyzer.AnalyzeTable(context.Background(), reviewsTable(), "review_text")
	require.NoError(t, err)

	summary := SummarizeTable(out, BackendVader, "bank_name")
	assert.Equal(t, 6, summary.Total)
	require.Len(t, summary.Groups, 3)
	assert.Equal(t, "CBE", summary.Groups[0].Group)

	ungrouped := SummarizeTable(out, BackendVader, "region")
	assert.Nil(t, ungrouped.Groups)

	missing := SummarizeTable(out, BackendDistilbert, "bank_name")
	assert.Zero(t, missing.Total)
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "0.0", FormatScore(0))
	assert.Equal(t, "1.0", FormatScore(1))
	assert.Equal(t, "0.8765", FormatScore(0.8765))
}

func TestIsMissing(t *testing.T) {
	assert.True(t, IsMissing(""))
	assert.True(t, IsMissing("  "))
	assert.True(t, IsMissing("nan"))
	assert.False(t, IsMissing("fine"))
	assert.False(t, IsMissing("none of the features work"))
}
