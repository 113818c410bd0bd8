package repository

import (
	"context"

	"github.com/byodlabs/databridge/internal/domain"
)

// PriceRepository defines the interface for price store operations.
type PriceRepository interface {
	// UpsertBatch writes every point inside one transaction, keyed by
	// (symbol, timestamp). A point that fails to persist is skipped and
	// reported; it never aborts the rest of the batch.
	UpsertBatch(ctx context.Context, points []domain.PricePoint) (int, []domain.RowFailure, error)
	ListRange(ctx context.Context, symbol string, from, to int64) ([]domain.PricePoint, error)
	Count(ctx context.Context) (int64, error)
}

// StrategyRepository defines pass-through CRUD over stored strategies.
type StrategyRepository interface {
	Save(ctx context.Context, strategy domain.Strategy) (domain.Strategy, error)
	List(ctx context.Context) ([]domain.Strategy, error)
	Delete(ctx context.Context, name string) error
}

// ImportLogRepository records row level import failures.
type ImportLogRepository interface {
	Record(ctx context.Context, entry domain.ImportLogEntry) error
}
