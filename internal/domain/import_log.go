package domain

// ImportLogEntry captures row level issues that occur during an import.
type ImportLogEntry struct {
	ID           int64  `json:"id"`
	FileName     string `json:"file_name"`
	Symbol       string `json:"symbol"`
	RowNumber    *int   `json:"row_number,omitempty"`
	ErrorMessage string `json:"error_message"`
	CreatedAt    int64  `json:"created_at"`
}
