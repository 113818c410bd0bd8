package ingestion

import "strings"

// Canonical column names produced by NormalizeColumns.
const (
	ColumnTicker = "Ticker"
	ColumnDate   = "Date"
	ColumnOpen   = "Open"
	ColumnHigh   = "High"
	ColumnLow    = "Low"
	ColumnClose  = "Close"
	ColumnVolume = "Volume"
)

// requiredColumns must all be present after normalization for an import or
// preview to proceed. Volume is optional, Ticker is synthesized when absent.
var requiredColumns = []string{ColumnDate, ColumnOpen, ColumnHigh, ColumnLow, ColumnClose}

// columnAliases maps lower-cased, trimmed source column names to their
// canonical name. Matching is exact, never fuzzy.
var columnAliases = map[string]string{
	"ticker":     ColumnTicker,
	"symbol":     ColumnTicker,
	"instrument": ColumnTicker,
	"sym":        ColumnTicker,
	"asset":      ColumnTicker,

	"date":      ColumnDate,
	"datetime":  ColumnDate,
	"timestamp": ColumnDate,
	"time":      ColumnDate,

	"open": ColumnOpen,
	"o":    ColumnOpen,

	"high": ColumnHigh,
	"h":    ColumnHigh,

	"low": ColumnLow,
	"l":   ColumnLow,

	"close":          ColumnClose,
	"c":              ColumnClose,
	"adj close":      ColumnClose,
	"adj_close":      ColumnClose,
	"adjusted close": ColumnClose,

	"volume": ColumnVolume,
	"v":      ColumnVolume,
	"vol":    ColumnVolume,
}

// NormalizeColumns renames recognized source columns to the canonical schema.
// Unrecognized columns pass through unchanged. When two source columns map to
// the same canonical name the first one wins and the rest keep their source
// name. If no column maps to Ticker, a synthetic Ticker column holding symbol
// is appended to every row. The input table is not modified.
func NormalizeColumns(table Table, symbol string) Table {
	columns := make([]string, len(table.Columns))
	claimed := make(map[string]bool, len(table.Columns))

	for i, source := range table.Columns {
		canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(source))]
		if ok && !claimed[canonical] {
			columns[i] = canonical
			claimed[canonical] = true
			continue
		}
		columns[i] = source
	}

	rows := make([][]string, len(table.Rows))
	if claimed[ColumnTicker] {
		for i, row := range table.Rows {
			rows[i] = append([]string(nil), row...)
		}
		return Table{Columns: columns, Rows: rows}
	}

	columns = append(columns, ColumnTicker)
	for i, row := range table.Rows {
		padded := make([]string, 0, len(row)+1)
		padded = append(padded, row...)
		rows[i] = append(padded, symbol)
	}
	return Table{Columns: columns, Rows: rows}
}

// missingRequired reports which required canonical columns are absent.
func missingRequired(columns []string) []string {
	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col] = true
	}
	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
