package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/byodlabs/databridge/internal/domain"
)

const upsertPriceSQL = `
INSERT INTO price_data (symbol, timestamp, open, high, low, close, volume)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(symbol, timestamp) DO UPDATE SET
    open   = excluded.open,
    high   = excluded.high,
    low    = excluded.low,
    close  = excluded.close,
    volume = excluded.volume`

// priceRepository implements PriceRepository over SQLite.
type priceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(handle *sql.DB) PriceRepository {
	return &priceRepository{db: handle}
}

// UpsertBatch writes all points within one transaction. Row level failures
// are collected and skipped; the transaction is committed (or rolled back on
// a store level error) on every exit path.
func (r *priceRepository) UpsertBatch(ctx context.Context, points []domain.PricePoint) (int, []domain.RowFailure, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertPriceSQL)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	var inserted int
	var failures []domain.RowFailure
	for i, point := range points {
		var volume any
		if point.Volume != nil {
			volume = *point.Volume
		}
		if _, err := stmt.ExecContext(ctx,
			point.Symbol, point.Timestamp,
			point.Open, point.High, point.Low, point.Close, volume,
		); err != nil {
			failures = append(failures, domain.RowFailure{
				Index:     i,
				Symbol:    point.Symbol,
				Timestamp: point.Timestamp,
				Message:   err.Error(),
			})
			continue
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("failed to commit price batch: %w", err)
	}
	return inserted, failures, nil
}

// ListRange returns points for a symbol inside [from, to], oldest first.
func (r *priceRepository) ListRange(ctx context.Context, symbol string, from, to int64) ([]domain.PricePoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, timestamp, open, high, low, close, volume
		FROM price_data
		WHERE symbol = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp`,
		symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query price range: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var point domain.PricePoint
		var volume sql.NullInt64
		if err := rows.Scan(&point.Symbol, &point.Timestamp,
			&point.Open, &point.High, &point.Low, &point.Close, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		if volume.Valid {
			v := volume.Int64
			point.Volume = &v
		}
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price points: %w", err)
	}
	return points, nil
}

// Count returns the number of stored price points.
func (r *priceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM price_data").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count price points: %w", err)
	}
	return count, nil
}
