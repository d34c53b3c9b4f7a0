package services

import (
	"io"
	"testing"
	"time"

	"dispatch-ledger/models"
	"dispatch-ledger/utils"

	"github.com/shopspring/decimal"
)

func quietLogger() *utils.Logger {
	return utils.NewLoggerTo(io.Discard, utils.LevelError)
}

func ts(s string) *time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			panic(err)
		}
	}
	return &t
}

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// load builds an invoiced record with its week derived from delivery
func load(row int, driver, fc, pickup, delivery string) *models.LoadRecord {
	r := &models.LoadRecord{
		Row:            row,
		DriverID:       "ID-" + driver,
		DriverName:     driver,
		DispatcherName: fc,
		Status:         models.StatusDelivered,
		StatusText:     "DELIVERED",
	}
	if pickup != "" {
		r.PickupAt = ts(pickup)
	}
	if delivery != "" {
		r.DeliveredAt = ts(delivery)
	}
	r.Week = WeekOfPtr(r.DeliveredAt)
	return r
}

func priced(r *models.LoadRecord, broker, pay, miles string) *models.LoadRecord {
	if broker != "" {
		r.BrokerRate = amount(broker)
	}
	if pay != "" {
		r.DriverRate = amount(pay)
	}
	if miles != "" {
		r.Miles = amount(miles)
	}
	return r
}

func rawRow(i int, f map[models.Column]string) models.RawRow {
	return models.RawRow{Index: i, Fields: f}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}
