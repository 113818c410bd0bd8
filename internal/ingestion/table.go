package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Table is a file loaded into memory: a header row plus string-valued data
// rows padded to the header width.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnValues returns the cells of the named column in row order, or false
// when the column is absent.
func (t Table) ColumnValues(name string) ([]string, bool) {
	idx := -1
	for i, col := range t.Columns {
		if col == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, true
}

// ReadFile loads a price file into a Table. The format is selected purely by
// file extension: .parquet, .xlsx, .xls, and everything else is treated as
// comma-separated text. No content sniffing is performed.
func ReadFile(path string) (Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return readParquet(path)
	case ".xlsx":
		return readXLSX(path)
	case ".xls":
		return readXLS(path)
	default:
		return readCSV(path)
	}
}

func readCSV(path string) (Table, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read csv: %w", err)
	}

	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("failed to parse csv: %w", err)
	}

	return tableFromRecords(records)
}

func readXLSX(path string) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, errors.New("xlsx file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	return tableFromRecords(rows)
}

func readXLS(path string) (Table, error) {
	workbook, err := xls.Open(path, "utf-8")
	if err != nil {
		return Table{}, fmt.Errorf("failed to open xls: %w", err)
	}

	rows := workbook.ReadAllCells(1 << 20)
	return tableFromRecords(rows)
}

func readParquet(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open parquet: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Table{}, fmt.Errorf("failed to stat parquet: %w", err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return Table{}, fmt.Errorf("failed to parse parquet: %w", err)
	}

	fields := pf.Schema().Fields()
	headers := make([]string, len(fields))
	for i, field := range fields {
		headers[i] = field.Name()
	}

	records := [][]string{headers}
	buffer := make([]parquet.Row, 256)
	for _, group := range pf.RowGroups() {
		rows := group.Rows()
		for {
			n, err := rows.ReadRows(buffer)
			for _, row := range buffer[:n] {
				cells := make([]string, len(headers))
				for _, value := range row {
					col := value.Column()
					if col < 0 || col >= len(cells) || value.IsNull() {
						continue
					}
					cells[col] = parquetCellString(value)
				}
				records = append(records, cells)
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				rows.Close()
				return Table{}, fmt.Errorf("failed to read parquet rows: %w", err)
			}
			if n == 0 {
				break
			}
		}
		if err := rows.Close(); err != nil {
			return Table{}, fmt.Errorf("failed to close parquet row reader: %w", err)
		}
	}

	return tableFromRecords(records)
}

func parquetCellString(value parquet.Value) string {
	switch value.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(value.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(value.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(value.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(value.Float()), 'g', -1, 64)
	case parquet.Double:
		return strconv.FormatFloat(value.Double(), 'g', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(value.ByteArray())
	default:
		return value.String()
	}
}

// tableFromRecords picks the first non-empty row as the header, pads ragged
// data rows to the header width, and drops rows with no content at all.
func tableFromRecords(records [][]string) (Table, error) {
	var headerRow []string
	var dataRows [][]string

	for _, row := range records {
		if isEmptyRow(row) {
			continue
		}
		if headerRow == nil {
			headerRow = row
			continue
		}
		dataRows = append(dataRows, row)
	}

	if headerRow == nil {
		return Table{}, errors.New("no header row detected")
	}

	headers := make([]string, len(headerRow))
	for i, cell := range headerRow {
		name := strings.TrimSpace(cell)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		headers[i] = name
	}

	rows := make([][]string, 0, len(dataRows))
	for _, row := range dataRows {
		rows = append(rows, padRow(row, len(headers)))
	}

	return Table{Columns: headers, Rows: rows}, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
