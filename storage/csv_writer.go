package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dispatch-ledger/models"
	"dispatch-ledger/utils"

	"github.com/shopspring/decimal"
)

// Output file names inside the CSV output directory
const (
	LoadsFile       = "loads_clean.csv"
	SummariesFile   = "driver_week_summary.csv"
	IdleGapsFile    = "idle_gaps.csv"
	DiagnosticsFile = "diagnostics.csv"
)

// CSVWriter writes the ledger tables as CSV files into one directory
type CSVWriter struct {
	dir    string
	logger *utils.Logger
}

// NewCSVWriter creates a new CSVWriter
func NewCSVWriter(dir string, logger *utils.Logger) *CSVWriter {
	return &CSVWriter{dir: dir, logger: logger}
}

// Path returns the full path of an output file
func (w *CSVWriter) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// SaveLoads writes every normalized load; absent fields become empty cells
func (w *CSVWriter) SaveLoads(_ context.Context, records []*models.LoadRecord) error {
	header := []string{
		"row", "load_id", "driver_id", "driver_name", "fc_name", "broker_name",
		"status", "load_status", "booked_at", "pickup_date", "delivery_date",
		"week_start_date", "broker_rate", "driver_rate", "miles", "city_to", "trailer",
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		week := ""
		if r.Week != nil {
			week = r.Week.String()
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Row),
			r.LoadID,
			r.DriverID,
			r.DriverName,
			r.DispatcherName,
			r.BrokerName,
			r.Status.String(),
			r.StatusText,
			formatTime(r.BookedAt),
			formatTime(r.PickupAt),
			formatTime(r.DeliveredAt),
			week,
			formatNull(r.BrokerRate),
			formatNull(r.DriverRate),
			formatNull(r.Miles),
			r.DestinationCity,
			r.Trailer,
		})
	}
	return w.write(LoadsFile, header, rows)
}

// SaveSummaries writes the weekly driver summaries; an undefined rate per mile is left empty
func (w *CSVWriter) SaveSummaries(_ context.Context, summaries []models.DriverWeekSummary) error {
	return w.WriteSummaries(summaries)
}

// WriteSummaries writes driver_week_summary.csv
func (w *CSVWriter) WriteSummaries(summaries []models.DriverWeekSummary) error {
	header := []string{
		"driver", "dispatcher", "week_start_date", "load_count",
		"revenue_sum", "pay_sum", "miles_sum", "rate_per_mile", "idle_days_sum",
	}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Driver,
			s.Dispatcher,
			s.WeekStart.String(),
			strconv.Itoa(s.LoadCount),
			s.RevenueSum.StringFixed(2),
			s.PaySum.StringFixed(2),
			s.MilesSum.String(),
			formatNull(s.RatePerMile),
			strconv.Itoa(s.IdleDaysSum),
		})
	}
	return w.write(SummariesFile, header, rows)
}

// WriteIdleGaps writes idle_gaps.csv
func (w *CSVWriter) WriteIdleGaps(gaps []models.IdleGap) error {
	header := []string{"driver_id", "driver", "dispatcher", "week_of_source_load", "gap_days"}
	rows := make([][]string, 0, len(gaps))
	for _, g := range gaps {
		rows = append(rows, []string{g.DriverID, g.Driver, g.Dispatcher, g.Week.String(), strconv.Itoa(g.GapDays)})
	}
	return w.write(IdleGapsFile, header, rows)
}

// WriteDiagnostics writes diagnostics.csv, one line per tallied reason
func (w *CSVWriter) WriteDiagnostics(counts []models.ReasonCount) error {
	rows := make([][]string, 0, len(counts))
	for _, rc := range counts {
		rows = append(rows, []string{string(rc.Reason), strconv.Itoa(rc.Count)})
	}
	return w.write(DiagnosticsFile, []string{"reason", "count"}, rows)
}

// Close is a no-op; every file is closed after it is written
func (w *CSVWriter) Close() error { return nil }

func (w *CSVWriter) write(name string, header []string, rows [][]string) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := w.Path(name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	w.logger.Info("Written to: %s (%d rows)", path, len(rows))
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatNull(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
