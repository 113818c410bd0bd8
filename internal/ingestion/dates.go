package ingestion

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// millisThreshold separates seconds-since-epoch from milliseconds-since-epoch
// encodings: a median above it means the column is in milliseconds (seconds
// past this value would be beyond the year 5000).
const millisThreshold = 1e11

const isoDateLayout = "2006-01-02"

// lenientLayouts is the fallback order for textual dates that are not strict
// ISO calendar dates. Month-before-day layouts come first, so ambiguous
// values like 03/04/2021 resolve as March 4th.
var lenientLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"02/01/2006",
	"01-02-2006",
	"02-01-2006",
	"20060102",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// parsedDate is one date cell after parsing. ok is false when the value could
// not be interpreted; that row is later dropped by the validator.
type parsedDate struct {
	unix int64
	ok   bool
}

// parseDateColumn converts a column of raw date cells into epoch timestamps.
// Numeric columns are interpreted as epoch values with a median-magnitude
// heuristic for the seconds/milliseconds unit; textual columns go through
// strict ISO parsing first and a lenient layout list only when strict parsing
// matches nothing. Failures never abort the column; they become per-row
// markers.
func parseDateColumn(values []string) []parsedDate {
	trimmed := make([]string, len(values))
	for i, v := range values {
		trimmed[i] = strings.TrimSpace(v)
	}

	if numbers, ok := asNumericColumn(trimmed); ok {
		return parseEpochColumn(trimmed, numbers)
	}
	return parseTextColumn(trimmed)
}

// asNumericColumn reports whether every non-missing cell parses as a number,
// returning the parsed values keyed by row index.
func asNumericColumn(values []string) (map[int]float64, bool) {
	numbers := make(map[int]float64)
	for i, v := range values {
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		numbers[i] = f
	}
	return numbers, len(numbers) > 0
}

func parseEpochColumn(values []string, numbers map[int]float64) []parsedDate {
	sorted := make([]float64, 0, len(numbers))
	for _, f := range numbers {
		sorted = append(sorted, f)
	}
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	divisor := 1.0
	if median > millisThreshold {
		divisor = 1000
	}

	out := make([]parsedDate, len(values))
	for i := range values {
		f, ok := numbers[i]
		if !ok {
			continue
		}
		out[i] = parsedDate{unix: int64(f / divisor), ok: true}
	}
	return out
}

func parseTextColumn(values []string) []parsedDate {
	out := make([]parsedDate, len(values))

	// Keep only the calendar-date part of values like "2021-03-04 09:30:00".
	tokens := make([]string, len(values))
	for i, v := range values {
		if fields := strings.Fields(v); len(fields) > 0 {
			tokens[i] = fields[0]
		}
	}

	strictHits := 0
	for i, tok := range tokens {
		if tok == "" {
			continue
		}
		if t, err := time.Parse(isoDateLayout, tok); err == nil {
			out[i] = parsedDate{unix: t.Unix(), ok: true}
			strictHits++
		}
	}
	if strictHits > 0 {
		return out
	}

	for i, tok := range tokens {
		if tok == "" {
			continue
		}
		for _, layout := range lenientLayouts {
			if t, err := time.Parse(layout, tok); err == nil {
				out[i] = parsedDate{unix: t.Unix(), ok: true}
				break
			}
		}
	}
	return out
}
