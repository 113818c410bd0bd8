package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeColumnsAliasCoverage(t *testing.T) {
	cases := []struct {
		alias     string
		canonical string
	}{
		{"ticker", ColumnTicker},
		{"symbol", ColumnTicker},
		{"instrument", ColumnTicker},
		{"sym", ColumnTicker},
		{"asset", ColumnTicker},
		{"date", ColumnDate},
		{"datetime", ColumnDate},
		{"timestamp", ColumnDate},
		{"time", ColumnDate},
		{"open", ColumnOpen},
		{"o", ColumnOpen},
		{"high", ColumnHigh},
		{"h", ColumnHigh},
		{"low", ColumnLow},
		{"l", ColumnLow},
		{"close", ColumnClose},
		{"c", ColumnClose},
		{"adj close", ColumnClose},
		{"adj_close", ColumnClose},
		{"adjusted close", ColumnClose},
		{"volume", ColumnVolume},
		{"v", ColumnVolume},
		{"vol", ColumnVolume},
	}

	for _, tc := range cases {
		t.Run(tc.alias, func(t *testing.T) {
			table := Table{Columns: []string{tc.alias}, Rows: [][]string{{"x"}}}
			normalized := NormalizeColumns(table, "SPY")
			assert.Equal(t, tc.canonical, normalized.Columns[0])
		})
	}
}

func TestNormalizeColumnsIsCaseInsensitiveAndTrimmed(t *testing.T) {
	table := Table{
		Columns: []string{" CLOSE ", "Adj Close", "DateTime"},
		Rows:    [][]string{{"1", "2", "2021-01-01"}},
	}
	normalized := NormalizeColumns(table, "SPY")

	assert.Equal(t, ColumnClose, normalized.Columns[0])
	// Close is already claimed, so the second candidate keeps its source name.
	assert.Equal(t, "Adj Close", normalized.Columns[1])
	assert.Equal(t, ColumnDate, normalized.Columns[2])
}

func TestNormalizeColumnsPassesUnrecognizedThrough(t *testing.T) {
	table := Table{
		Columns: []string{"date", "close", "dividends"},
		Rows:    [][]string{{"2021-01-01", "10", "0.5"}},
	}
	normalized := NormalizeColumns(table, "SPY")

	assert.Contains(t, normalized.Columns, "dividends")
	assert.NotContains(t, normalized.Columns, "Dividends")
}

func TestNormalizeColumnsSynthesizesTicker(t *testing.T) {
	table := Table{
		Columns: []string{"date", "close"},
		Rows:    [][]string{{"2021-01-01", "10"}, {"2021-01-02", "11"}},
	}
	normalized := NormalizeColumns(table, "AAPL")

	require.Equal(t, []string{ColumnDate, ColumnClose, ColumnTicker}, normalized.Columns)
	for _, row := range normalized.Rows {
		require.Len(t, row, 3)
		assert.Equal(t, "AAPL", row[2])
	}
}

func TestNormalizeColumnsKeepsExistingTicker(t *testing.T) {
	table := Table{
		Columns: []string{"sym", "date", "close"},
		Rows:    [][]string{{"MSFT", "2021-01-01", "10"}},
	}
	normalized := NormalizeColumns(table, "AAPL")

	require.Equal(t, []string{ColumnTicker, ColumnDate, ColumnClose}, normalized.Columns)
	assert.Equal(t, "MSFT", normalized.Rows[0][0])
}

func TestNormalizeColumnsDoesNotMutateInput(t *testing.T) {
	table := Table{
		Columns: []string{"date", "close"},
		Rows:    [][]string{{"2021-01-01", "10"}},
	}
	_ = NormalizeColumns(table, "AAPL")

	assert.Equal(t, []string{"date", "close"}, table.Columns)
	assert.Equal(t, [][]string{{"2021-01-01", "10"}}, table.Rows)
}

func TestMissingRequired(t *testing.T) {
	missing := missingRequired([]string{ColumnDate, ColumnOpen, ColumnHigh, ColumnLow})
	assert.Equal(t, []string{ColumnClose}, missing)

	missing = missingRequired([]string{"foo"})
	assert.Equal(t, []string{ColumnDate, ColumnOpen, ColumnHigh, ColumnLow, ColumnClose}, missing)

	assert.Empty(t, missingRequired(requiredColumns))
}
