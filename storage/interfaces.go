package storage

import (
	"context"

	"dispatch-ledger/models"
)

// LedgerSink persists the normalized loads and the weekly driver summaries
type LedgerSink interface {
	SaveLoads(ctx context.Context, records []*models.LoadRecord) error
	SaveSummaries(ctx context.Context, rows []models.DriverWeekSummary) error
	Close() error
}

var (
	_ LedgerSink = (*CSVWriter)(nil)
	_ LedgerSink = (*PostgresWriter)(nil)
)
