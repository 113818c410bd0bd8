package domain

// PricePoint is a single OHLCV bar for an instrument. Points are keyed by
// (Symbol, Timestamp); the price store enforces uniqueness and a later import
// of the same key overwrites the stored values.
type PricePoint struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp"` // seconds since the Unix epoch, UTC
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    *int64  `json:"volume,omitempty"`
}

// RowFailure describes a single row that could not be persisted during an
// import. Failures are collected into the batch result instead of aborting
// the remaining rows.
type RowFailure struct {
	Index     int    `json:"index"`
	Symbol    string `json:"symbol"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}
