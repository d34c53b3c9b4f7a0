package services

import (
	"sort"

	"dispatch-ledger/models"

	"github.com/shopspring/decimal"
)

type driverWeekKey struct {
	driver     string
	dispatcher string
	week       models.Week
}

// AggregateWeekly groups the selected records by (driver, dispatcher, week).
// Records without a week are left out; every other selected record lands in exactly one
// group. Missing identities are grouped under models.UnknownIdentity. Idle days are the
// gaps whose source load falls in the group.
func AggregateWeekly(records []*models.LoadRecord, filter models.FilterSelection) []models.DriverWeekSummary {
	selected := filter.Apply(records)

	groups := make(map[driverWeekKey]*models.DriverWeekSummary)
	for _, r := range selected {
		if r.Week == nil {
			continue
		}
		key := driverWeekKey{
			driver:     models.IdentityOrUnknown(r.DriverName),
			dispatcher: models.IdentityOrUnknown(r.DispatcherName),
			week:       *r.Week,
		}
		g, ok := groups[key]
		if !ok {
			g = &models.DriverWeekSummary{
				Driver:     key.driver,
				Dispatcher: key.dispatcher,
				WeekStart:  key.week,
			}
			groups[key] = g
		}
		g.LoadCount++
		addValid(&g.RevenueSum, r.BrokerRate)
		addValid(&g.PaySum, r.DriverRate)
		addValid(&g.MilesSum, r.Miles)
	}

	for _, gap := range IdleGaps(selected) {
		key := driverWeekKey{driver: gap.Driver, dispatcher: gap.Dispatcher, week: gap.Week}
		if g, ok := groups[key]; ok {
			g.IdleDaysSum += gap.GapDays
		}
	}

	out := make([]models.DriverWeekSummary, 0, len(groups))
	for _, g := range groups {
		g.RatePerMile = RatePerMile(g.RevenueSum, g.MilesSum)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.WeekStart != b.WeekStart {
			return a.WeekStart.Before(b.WeekStart)
		}
		if a.Dispatcher != b.Dispatcher {
			return a.Dispatcher < b.Dispatcher
		}
		return a.Driver < b.Driver
	})
	return out
}

// RatePerMile divides revenue by miles. It is invalid, never infinite, when miles is zero.
func RatePerMile(revenue, miles decimal.Decimal) decimal.NullDecimal {
	if miles.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(revenue.DivRound(miles, 4))
}

func addValid(sum *decimal.Decimal, v decimal.NullDecimal) {
	if v.Valid {
		*sum = sum.Add(v.Decimal)
	}
}
