package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dispatch-ledger/models"
	"dispatch-ledger/utils"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX
var ErrUnsupportedFormat = errors.New("unsupported table format")

// MissingColumnsError reports every required column absent from a table header
type MissingColumnsError struct {
	Path    string
	Columns []models.Column
}

func (e *MissingColumnsError) Error() string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = string(c)
	}
	return fmt.Sprintf("%s: missing required columns: %s", e.Path, strings.Join(names, ", "))
}

// TableReader reads tabular input files into raw rows
type TableReader struct {
	logger *utils.Logger
}

// NewTableReader creates a new TableReader
func NewTableReader(logger *utils.Logger) *TableReader {
	return &TableReader{logger: logger}
}

// ReadLoads reads the load-history table at path. Blank lines are skipped but
// keep their position in RawRow.Index.
func (r *TableReader) ReadLoads(path string) ([]models.RawRow, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, &MissingColumnsError{Path: path, Columns: models.RequiredColumns}
	}

	index := headerIndex(table[0])
	var missing []models.Column
	for _, c := range models.RequiredColumns {
		if _, ok := index[normalizeHeader(string(c))]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Path: path, Columns: missing}
	}

	columns := append(append([]models.Column{}, models.RequiredColumns...), models.OptionalColumns...)
	rows := make([]models.RawRow, 0, len(table)-1)
	for i, record := range table[1:] {
		if blankRecord(record) {
			continue
		}
		fields := make(map[models.Column]string, len(columns))
		for _, c := range columns {
			if idx, ok := index[normalizeHeader(string(c))]; ok {
				fields[c] = cellValue(record, idx)
			}
		}
		rows = append(rows, models.RawRow{Index: i, Fields: fields})
	}

	r.logger.Info("Read %d rows from %s", len(rows), path)
	return rows, nil
}

// readTable returns every record of a CSV file or of the first sheet of a workbook
func readTable(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx", ".xlsm":
		return readWorkbook(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func readWorkbook(path string) ([][]string, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%s: no worksheet found", path)
	}
	// raw values keep date cells as serial numbers instead of locale-formatted text
	rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheetName, path, err)
	}
	return rows, nil
}

// normalizeHeader upper-cases a header and collapses inner whitespace
func normalizeHeader(header string) string {
	header = strings.TrimPrefix(header, "\ufeff")
	return strings.ToUpper(strings.Join(strings.Fields(header), " "))
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		// first occurrence wins
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return index
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
