package ingestion

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInputNotFound is returned when the supplied file path is unset or
	// does not exist. The file is never opened in that case.
	ErrInputNotFound = errors.New("input file not found")

	// ErrDateUnparseable is returned when not a single row of the date
	// column could be interpreted as a date.
	ErrDateUnparseable = errors.New("date column could not be parsed")

	// ErrNoValidRows is returned by Import when cleaning dropped every row.
	ErrNoValidRows = errors.New("no valid rows to import")
)

// SchemaError reports required columns that are absent after normalization,
// along with the columns that were actually found.
type SchemaError struct {
	Missing []string
	Found   []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s (found: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}
