package domain

import "encoding/json"

// Strategy is a user-defined trading strategy definition. Rules and
// parameters are stored as opaque JSON documents; this process never
// evaluates them.
type Strategy struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Rules       json.RawMessage `json:"rules_json"`
	Parameters  json.RawMessage `json:"parameters_json,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

// BacktestResult mirrors the backtest_results table. The backtesting engine
// itself lives in another process; only the schema is owned here.
type BacktestResult struct {
	ID             int64           `json:"id"`
	StrategyID     int64           `json:"strategy_id"`
	Symbol         string          `json:"symbol"`
	StartDate      int64           `json:"start_date"`
	EndDate        int64           `json:"end_date"`
	InitialCapital float64         `json:"initial_capital"`
	FinalEquity    float64         `json:"final_equity"`
	TotalReturn    float64         `json:"total_return"`
	MaxDrawdown    float64         `json:"max_drawdown"`
	WinRate        float64         `json:"win_rate"`
	TotalTrades    int64           `json:"total_trades"`
	Results        json.RawMessage `json:"results_json"`
	CreatedAt      int64           `json:"created_at"`
}

// Trade mirrors the trades table recorded against a backtest run.
type Trade struct {
	ID             int64    `json:"id"`
	BacktestID     int64    `json:"backtest_id"`
	EntryTimestamp int64    `json:"entry_timestamp"`
	ExitTimestamp  *int64   `json:"exit_timestamp,omitempty"`
	EntryPrice     float64  `json:"entry_price"`
	ExitPrice      *float64 `json:"exit_price,omitempty"`
	Quantity       float64  `json:"quantity"`
	Side           string   `json:"side"`
	PnL            *float64 `json:"pnl,omitempty"`
	Commission     float64  `json:"commission"`
	Status         string   `json:"status"`
}
