package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/byodlabs/databridge/internal/domain"
)

// importLogRepository implements ImportLogRepository over SQLite.
type importLogRepository struct {
	db *sql.DB
}

// NewImportLogRepository creates a new import log repository.
func NewImportLogRepository(handle *sql.DB) ImportLogRepository {
	return &importLogRepository{db: handle}
}

// Record stores one row level import failure.
func (r *importLogRepository) Record(ctx context.Context, entry domain.ImportLogEntry) error {
	var rowNumber any
	if entry.RowNumber != nil {
		rowNumber = *entry.RowNumber
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO import_log (file_name, symbol, row_number, error_message)
		VALUES (?, ?, ?, ?)`,
		entry.FileName, entry.Symbol, rowNumber, entry.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to record import failure: %w", err)
	}
	return nil
}
