package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/byodlabs/databridge/internal/domain"
)

// ErrStrategyNotFound is returned when a named strategy does not exist.
var ErrStrategyNotFound = errors.New("strategy not found")

// strategyRepository implements StrategyRepository over SQLite.
type strategyRepository struct {
	db *sql.DB
}

// NewStrategyRepository creates a new strategy repository.
func NewStrategyRepository(handle *sql.DB) StrategyRepository {
	return &strategyRepository{db: handle}
}

// Save upserts a strategy by name and returns the stored row.
func (r *strategyRepository) Save(ctx context.Context, strategy domain.Strategy) (domain.Strategy, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO strategies (name, description, rules_json, parameters_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
		    description     = excluded.description,
		    rules_json      = excluded.rules_json,
		    parameters_json = excluded.parameters_json,
		    updated_at      = strftime('%s', 'now')`,
		strategy.Name, strategy.Description,
		string(strategy.Rules), nullableJSON(strategy.Parameters))
	if err != nil {
		return domain.Strategy{}, fmt.Errorf("failed to save strategy: %w", err)
	}

	return r.getByName(ctx, strategy.Name)
}

// List returns all stored strategies, newest first.
func (r *strategyRepository) List(ctx context.Context) ([]domain.Strategy, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, rules_json, parameters_json, created_at, updated_at
		FROM strategies
		ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategies: %w", err)
	}
	defer rows.Close()

	var strategies []domain.Strategy
	for rows.Next() {
		strategy, err := scanStrategy(rows.Scan)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, strategy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate strategies: %w", err)
	}
	return strategies, nil
}

// Delete removes a strategy by name.
func (r *strategyRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM strategies WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete strategy: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrStrategyNotFound, name)
	}
	return nil
}

func (r *strategyRepository) getByName(ctx context.Context, name string) (domain.Strategy, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, rules_json, parameters_json, created_at, updated_at
		FROM strategies
		WHERE name = ?`, name)

	strategy, err := scanStrategy(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Strategy{}, fmt.Errorf("%w: %s", ErrStrategyNotFound, name)
	}
	return strategy, err
}

func scanStrategy(scan func(dest ...any) error) (domain.Strategy, error) {
	var strategy domain.Strategy
	var description, rules, parameters sql.NullString
	err := scan(&strategy.ID, &strategy.Name, &description, &rules, &parameters,
		&strategy.CreatedAt, &strategy.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Strategy{}, err
		}
		return domain.Strategy{}, fmt.Errorf("failed to scan strategy: %w", err)
	}
	strategy.Description = description.String
	if rules.Valid {
		strategy.Rules = []byte(rules.String)
	}
	if parameters.Valid {
		strategy.Parameters = []byte(parameters.String)
	}
	return strategy, nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
