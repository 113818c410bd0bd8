package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/byodlabs/databridge/internal/domain"
	"github.com/byodlabs/databridge/internal/repository"
)

// previewLimit bounds the number of rows returned by Preview.
const previewLimit = 10

// Service normalizes price files and either previews or persists the result.
type Service struct {
	prices        repository.PriceRepository
	importLog     repository.ImportLogRepository
	defaultSymbol string
	logger        *slog.Logger
}

// NewService creates a new ingestion service. defaultSymbol is applied to
// files that carry no ticker column when the caller supplies no symbol.
func NewService(
	prices repository.PriceRepository,
	importLog repository.ImportLogRepository,
	defaultSymbol string,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		prices:        prices,
		importLog:     importLog,
		defaultSymbol: defaultSymbol,
		logger:        logger,
	}
}

// PreviewRequest describes a read-only inspection of a price file.
type PreviewRequest struct {
	FilePath string
	Symbol   string
}

// ImportRequest describes a persisting import of a price file.
type ImportRequest struct {
	FilePath string
	Symbol   string
}

// PreviewResult is the bounded, non-persisted view of a cleaned file.
type PreviewResult struct {
	Filename    string           `json:"filename"`
	RowsTotal   int              `json:"rows_total"`
	RowsDropped int              `json:"rows_dropped"`
	Columns     []string         `json:"columns"`
	Preview     []map[string]any `json:"preview"`
}

// ImportResult reports what a persisting import did.
type ImportResult struct {
	Success      bool                `json:"success"`
	RowsImported int                 `json:"rows_imported"`
	Symbol       string              `json:"symbol"`
	TotalRows    int                 `json:"total_rows"`
	RowsDropped  int                 `json:"rows_dropped"`
	Failures     []domain.RowFailure `json:"failures,omitempty"`
}

// Row is one record after normalization and coercion. Nil numeric fields are
// missing values; rows missing anything but Volume are dropped before this
// struct leaves the cleaning stage.
type Row struct {
	Ticker string
	Date   int64
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *int64
	Extra  map[string]string
}

type cleaned struct {
	fileName string
	columns  []string
	rows     []Row
	dropped  int
}

// Preview cleans the file and returns a bounded sample without touching the
// store.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (PreviewResult, error) {
	c, err := s.clean(req.FilePath, req.Symbol)
	if err != nil {
		return PreviewResult{}, err
	}

	sample := make([]map[string]any, 0, previewLimit)
	for i, row := range c.rows {
		if i >= previewLimit {
			break
		}
		sample = append(sample, previewRecord(row))
	}

	return PreviewResult{
		Filename:    c.fileName,
		RowsTotal:   len(c.rows),
		RowsDropped: c.dropped,
		Columns:     c.columns,
		Preview:     sample,
	}, nil
}

// Import cleans the file and upserts every surviving row into the price
// store. Individual rows that fail to persist are recorded and skipped; the
// call only fails when cleaning leaves nothing to import or the store itself
// is unusable.
func (s *Service) Import(ctx context.Context, req ImportRequest) (ImportResult, error) {
	symbol := s.symbolOrDefault(req.Symbol)

	c, err := s.clean(req.FilePath, symbol)
	if err != nil {
		return ImportResult{}, err
	}

	if len(c.rows) == 0 {
		return ImportResult{}, fmt.Errorf("%w: all %d rows were dropped during cleaning",
			ErrNoValidRows, c.dropped)
	}

	points := make([]domain.PricePoint, len(c.rows))
	for i, row := range c.rows {
		points[i] = domain.PricePoint{
			Symbol:    row.Ticker,
			Timestamp: row.Date,
			Open:      *row.Open,
			High:      *row.High,
			Low:       *row.Low,
			Close:     *row.Close,
			Volume:    row.Volume,
		}
	}

	imported, failures, err := s.prices.UpsertBatch(ctx, points)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to persist %s: %w", req.FilePath, err)
	}

	for _, failure := range failures {
		s.logger.Warn("row rejected by price store",
			"file", c.fileName,
			"symbol", failure.Symbol,
			"timestamp", failure.Timestamp,
			"error", failure.Message)
		rowNumber := failure.Index + 1
		_ = s.importLog.Record(ctx, domain.ImportLogEntry{
			FileName:     c.fileName,
			Symbol:       failure.Symbol,
			RowNumber:    &rowNumber,
			ErrorMessage: failure.Message,
		})
	}

	return ImportResult{
		Success:      true,
		RowsImported: imported,
		Symbol:       symbol,
		TotalRows:    len(points),
		RowsDropped:  c.dropped,
		Failures:     failures,
	}, nil
}

// clean runs the shared pipeline: read, rename columns, parse dates, coerce
// numerics, drop invalid rows, sort.
func (s *Service) clean(path, symbol string) (cleaned, error) {
	symbol = s.symbolOrDefault(symbol)

	if strings.TrimSpace(path) == "" {
		return cleaned{}, fmt.Errorf("%w: no file path supplied", ErrInputNotFound)
	}
	if _, err := os.Stat(path); err != nil {
		return cleaned{}, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}

	table, err := ReadFile(path)
	if err != nil {
		return cleaned{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	table = NormalizeColumns(table, symbol)

	if missing := missingRequired(table.Columns); len(missing) > 0 {
		return cleaned{}, &SchemaError{Missing: missing, Found: table.Columns}
	}

	dateValues, _ := table.ColumnValues(ColumnDate)
	dates := parseDateColumn(dateValues)

	anyParsed := false
	for _, d := range dates {
		if d.ok {
			anyParsed = true
			break
		}
	}
	if !anyParsed {
		return cleaned{}, fmt.Errorf("%w in %s", ErrDateUnparseable, path)
	}

	index := make(map[string]int, len(table.Columns))
	for i, col := range table.Columns {
		index[col] = i
	}
	canonical := map[string]bool{
		ColumnTicker: true, ColumnDate: true, ColumnOpen: true,
		ColumnHigh: true, ColumnLow: true, ColumnClose: true, ColumnVolume: true,
	}

	rows := make([]Row, 0, len(table.Rows))
	for i, cells := range table.Rows {
		row := Row{
			Ticker: strings.TrimSpace(cells[index[ColumnTicker]]),
			Open:   coerceFloat(cells[index[ColumnOpen]]),
			High:   coerceFloat(cells[index[ColumnHigh]]),
			Low:    coerceFloat(cells[index[ColumnLow]]),
			Close:  coerceFloat(cells[index[ColumnClose]]),
		}
		if vi, ok := index[ColumnVolume]; ok {
			row.Volume = coerceInt(cells[vi])
		}
		if !dates[i].ok || row.Open == nil || row.High == nil || row.Low == nil || row.Close == nil {
			continue
		}
		row.Date = dates[i].unix

		for col, ci := range index {
			if canonical[col] {
				continue
			}
			if row.Extra == nil {
				row.Extra = make(map[string]string)
			}
			row.Extra[col] = strings.TrimSpace(cells[ci])
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Ticker != rows[b].Ticker {
			return rows[a].Ticker < rows[b].Ticker
		}
		return rows[a].Date < rows[b].Date
	})

	return cleaned{
		fileName: fileName(path),
		columns:  table.Columns,
		rows:     rows,
		dropped:  len(table.Rows) - len(rows),
	}, nil
}

func (s *Service) symbolOrDefault(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return s.defaultSymbol
	}
	return symbol
}

func previewRecord(row Row) map[string]any {
	record := map[string]any{
		ColumnTicker: row.Ticker,
		ColumnDate:   time.Unix(row.Date, 0).UTC().Format(isoDateLayout),
		ColumnOpen:   *row.Open,
		ColumnHigh:   *row.High,
		ColumnLow:    *row.Low,
		ColumnClose:  *row.Close,
	}
	if row.Volume != nil {
		record[ColumnVolume] = *row.Volume
	}
	for col, value := range row.Extra {
		record[col] = value
	}
	return record
}

func coerceFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func coerceInt(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		i := int64(f)
		return &i
	}
	return nil
}

func fileName(path string) string {
	if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
