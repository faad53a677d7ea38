package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `review_text,rating,bank_name
"Great app, love it",5,CBE
,1,BOA
"Crashes ""every"" time",2
`

func TestRead(t *testing.T) {
	table, err := Read(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, []string{"review_text", "rating", "bank_name"}, table.Columns)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, "Great app, love it", table.Rows[0][0])
	assert.Equal(t, "", table.Rows[1][0])
	assert.Equal(t, `Crashes "every" time`, table.Rows[2][0])
	assert.Equal(t, "", table.Rows[2][2], "short rows are padded")
}

func TestRead_Empty(t *testing.T) {
	table, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestRead_RejectsExtraFields(t *testing.T) {
	_, err := Read(strings.NewReader("review_text,bank_name\ngood,CBE,stray\nbad,BOA\n"))
	assert.ErrorIs(t, err, ErrTooManyFields)
	assert.ErrorContains(t, err, "line 2")
}

func TestRead_StripsByteOrderMark(t *testing.T) {
	table, err := Read(strings.NewReader("\ufeffreview_text,bank_name\ngood,CBE\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"review_text", "bank_name"}, table.Columns)
	texts, err := table.Column("review_text")
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, texts)
}

func TestColumn(t *testing.T) {
	table, err := Read(strings.NewReader(sample))
	require.NoError(t, err)

	banks, err := table.Column("bank_name")
	require.NoError(t, err)
	assert.Equal(t, []string{"CBE", "BOA", ""}, banks)

	_, err = table.Column("missing")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestWithColumn_AppendsWithoutMutating(t *testing.T) {
	table, err := Read(strings.NewReader(sample))
	require.NoError(t, err)

	out, err := table.WithColumn("sentiment_label_vader", []string{"POSITIVE", "NEUTRAL", "NEGATIVE"})
	require.NoError(t, err)

	assert.Len(t, table.Columns, 3, "input keeps its columns")
	assert.Len(t, table.Rows[0], 3)

	assert.Equal(t, "sentiment_label_vader", out.Columns[3])
	assert.Equal(t, "NEGATIVE", out.Value(2, "sentiment_label_vader"))
	assert.Equal(t, table.Rows[1][2], out.Rows[1][2])
}

func TestWithColumn_ReplacesExisting(t *testing.T) {
	table := &Table{Columns: []string{"a", "b"}, Rows: [][]string{{"1", "x"}, {"2", "y"}}}

	out, err := table.WithColumn("b", []string{"p", "q"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, out.Columns)
	assert.Equal(t, [][]string{{"1", "p"}, {"2", "q"}}, out.Rows)
	assert.Equal(t, [][]string{{"1", "x"}, {"2", "y"}}, table.Rows)
}

func TestWithColumn_LengthMismatch(t *testing.T) {
	table := &Table{Columns: []string{"a"}, Rows: [][]string{{"1"}}}

	_, err := table.WithColumn("b", []string{"p", "q"})
	assert.Error(t, err)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	table, err := Read(strings.NewReader(sample))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	require.NoError(t, table.WriteCSV(path))

	loaded, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, table, loaded)

	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(raw))
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
