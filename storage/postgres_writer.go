package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dispatch-ledger/models"
	"dispatch-ledger/utils"

	_ "github.com/lib/pq"
)

// PostgresWriter stores normalized loads and weekly summaries in PostgreSQL
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresWriter opens the DB and pings it, retrying with backoff
func NewPostgresWriter(ctx context.Context, connStr string, maxRetries int, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	err = utils.RetryWithBackoff(ctx, maxRetries, func() error {
		return db.PingContext(ctx)
	}, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("Connected to PostgreSQL successfully")
	return &PostgresWriter{db: db, logger: logger}, nil
}

// CreateTables creates the loads and driver_week_summaries tables if they don't exist
func (w *PostgresWriter) CreateTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS loads (
		id             SERIAL PRIMARY KEY,
		load_id        TEXT UNIQUE,
		driver_id      TEXT,
		driver_name    TEXT,
		fc_name        TEXT,
		broker_name    TEXT,
		status         VARCHAR(16) NOT NULL,
		load_status    TEXT,
		booked_at      TIMESTAMP,
		pickup_at      TIMESTAMP,
		delivered_at   TIMESTAMP,
		week_start     DATE,
		broker_rate    NUMERIC(12,2),
		driver_rate    NUMERIC(12,2),
		miles          NUMERIC(10,1),
		city_to        TEXT,
		trailer        TEXT,
		imported_at    TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_loads_week   ON loads (week_start);
	CREATE INDEX IF NOT EXISTS idx_loads_driver ON loads (driver_name);
	CREATE INDEX IF NOT EXISTS idx_loads_fc     ON loads (fc_name);

	CREATE TABLE IF NOT EXISTS driver_week_summaries (
		driver         TEXT    NOT NULL,
		dispatcher     TEXT    NOT NULL,
		week_start     DATE    NOT NULL,
		load_count     INTEGER NOT NULL,
		revenue_sum    NUMERIC(14,2) NOT NULL,
		pay_sum        NUMERIC(14,2) NOT NULL,
		miles_sum      NUMERIC(12,1) NOT NULL,
		rate_per_mile  NUMERIC(10,4),
		idle_days_sum  INTEGER NOT NULL,
		PRIMARY KEY (driver, dispatcher, week_start)
	);
	`
	if _, err := w.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	w.logger.Info("Tables 'loads' and 'driver_week_summaries' are ready")
	return nil
}

// SaveLoads upserts loads by load id in a single transaction.
// Loads without an id are always inserted.
func (w *PostgresWriter) SaveLoads(ctx context.Context, records []*models.LoadRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO loads (load_id, driver_id, driver_name, fc_name, broker_name, status, load_status,
			booked_at, pickup_at, delivered_at, week_start, broker_rate, driver_rate, miles, city_to, trailer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (load_id) DO UPDATE SET
			driver_id = EXCLUDED.driver_id, driver_name = EXCLUDED.driver_name,
			fc_name = EXCLUDED.fc_name, broker_name = EXCLUDED.broker_name,
			status = EXCLUDED.status, load_status = EXCLUDED.load_status,
			booked_at = EXCLUDED.booked_at, pickup_at = EXCLUDED.pickup_at,
			delivered_at = EXCLUDED.delivered_at, week_start = EXCLUDED.week_start,
			broker_rate = EXCLUDED.broker_rate, driver_rate = EXCLUDED.driver_rate,
			miles = EXCLUDED.miles, city_to = EXCLUDED.city_to, trailer = EXCLUDED.trailer,
			imported_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var week *time.Time
		if r.Week != nil {
			start := r.Week.Start()
			week = &start
		}
		_, err = stmt.ExecContext(ctx,
			nullString(r.LoadID),
			nullString(r.DriverID),
			nullString(r.DriverName),
			nullString(r.DispatcherName),
			nullString(r.BrokerName),
			r.Status.String(),
			nullString(r.StatusText),
			r.BookedAt,
			r.PickupAt,
			r.DeliveredAt,
			week,
			r.BrokerRate,
			r.DriverRate,
			r.Miles,
			nullString(r.DestinationCity),
			nullString(r.Trailer),
		)
		if err != nil {
			return fmt.Errorf("failed to insert load at row %d: %w", r.Row, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.logger.Info("Upserted %d loads into PostgreSQL", len(records))
	return nil
}

// SaveSummaries replaces the stored summaries of every week present in rows
func (w *PostgresWriter) SaveSummaries(ctx context.Context, rows []models.DriverWeekSummary) (err error) {
	if len(rows) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	weeks := make(map[models.Week]bool)
	for _, s := range rows {
		if weeks[s.WeekStart] {
			continue
		}
		weeks[s.WeekStart] = true
		if _, err = tx.ExecContext(ctx, `DELETE FROM driver_week_summaries WHERE week_start = $1`, s.WeekStart.Start()); err != nil {
			return fmt.Errorf("failed to clear week %s: %w", s.WeekStart, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO driver_week_summaries
			(driver, dispatcher, week_start, load_count, revenue_sum, pay_sum, miles_sum, rate_per_mile, idle_days_sum)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range rows {
		_, err = stmt.ExecContext(ctx,
			s.Driver,
			s.Dispatcher,
			s.WeekStart.Start(),
			s.LoadCount,
			s.RevenueSum,
			s.PaySum,
			s.MilesSum,
			s.RatePerMile,
			s.IdleDaysSum,
		)
		if err != nil {
			return fmt.Errorf("failed to insert summary %s/%s/%s: %w", s.Driver, s.Dispatcher, s.WeekStart, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.logger.Info("Stored %d driver-week summaries across %d weeks", len(rows), len(weeks))
	return nil
}

// Close closes the database connection
func (w *PostgresWriter) Close() error {
	if w.db == nil {
		return nil
	}
	return w.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
