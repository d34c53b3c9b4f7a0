package services

import (
	"sort"
	"time"

	"dispatch-ledger/models"

	"github.com/shopspring/decimal"
)

var (
	maxPlausibleRPM = decimal.NewFromInt(10)
	day             = 24 * time.Hour
)

type meanAcc struct {
	sum float64
	n   int
}

func sortedMeans(m map[string]*meanAcc) []models.NamedAverage {
	out := make([]models.NamedAverage, 0, len(m))
	for name, acc := range m {
		out = append(out, models.NamedAverage{Name: name, Average: acc.sum / float64(acc.n), Samples: acc.n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// prebookHours averages, per dispatcher, how long before pickup loads were booked.
// Loads booked after their pickup are ignored.
func prebookHours(records []*models.LoadRecord) []models.NamedAverage {
	acc := make(map[string]*meanAcc)
	for _, r := range records {
		if r.BookedAt == nil || r.PickupAt == nil {
			continue
		}
		hours := r.PickupAt.Sub(*r.BookedAt).Hours()
		if hours < 0 {
			continue
		}
		fc := models.IdentityOrUnknown(r.DispatcherName)
		if acc[fc] == nil {
			acc[fc] = &meanAcc{}
		}
		acc[fc].sum += hours
		acc[fc].n++
	}
	return sortedMeans(acc)
}

// bookingHour averages the hour of day at which each dispatcher books loads
func bookingHour(records []*models.LoadRecord) []models.NamedAverage {
	acc := make(map[string]*meanAcc)
	for _, r := range records {
		if r.BookedAt == nil {
			continue
		}
		fc := models.IdentityOrUnknown(r.DispatcherName)
		if acc[fc] == nil {
			acc[fc] = &meanAcc{}
		}
		acc[fc].sum += float64(r.BookedAt.Hour())
		acc[fc].n++
	}
	return sortedMeans(acc)
}

// rpmSamples lists per-load revenue per mile, keeping values in (0, 10)
func rpmSamples(records []*models.LoadRecord) []models.RPMSample {
	out := make([]models.RPMSample, 0)
	for _, r := range records {
		if !r.BrokerRate.Valid || !r.Miles.Valid {
			continue
		}
		rpm := RatePerMile(r.BrokerRate.Decimal, r.Miles.Decimal)
		if !rpm.Valid || !rpm.Decimal.IsPositive() || rpm.Decimal.GreaterThanOrEqual(maxPlausibleRPM) {
			continue
		}
		out = append(out, models.RPMSample{
			LoadID:     r.LoadID,
			Driver:     models.IdentityOrUnknown(r.DriverName),
			Dispatcher: models.IdentityOrUnknown(r.DispatcherName),
			RPM:        rpm.Decimal,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Dispatcher < out[j].Dispatcher })
	return out
}

type driverWeek struct {
	driver string
	week   models.Week
}

// fullWeekActivity flags drivers who were under load for most of a week: the span from
// their first pickup to their last delivery is at least 5 days, or they started by
// Wednesday and finished on Sunday or later.
func fullWeekActivity(records []*models.LoadRecord) []models.FullWeekActivity {
	groups := make(map[driverWeek]*models.FullWeekActivity)
	for _, r := range records {
		if r.Week == nil || r.PickupAt == nil || r.DeliveredAt == nil {
			continue
		}
		key := driverWeek{models.IdentityOrUnknown(r.DriverName), *r.Week}
		g, ok := groups[key]
		if !ok {
			g = &models.FullWeekActivity{
				Driver:       key.driver,
				Week:         key.week,
				FirstPickup:  *r.PickupAt,
				LastDelivery: *r.DeliveredAt,
			}
			groups[key] = g
		}
		if r.PickupAt.Before(g.FirstPickup) {
			g.FirstPickup = *r.PickupAt
		}
		if r.DeliveredAt.After(g.LastDelivery) {
			g.LastDelivery = *r.DeliveredAt
		}
		g.LoadCount++
		addValid(&g.RevenueSum, r.BrokerRate)
		addValid(&g.MilesSum, r.Miles)
	}

	out := make([]models.FullWeekActivity, 0, len(groups))
	for _, g := range groups {
		g.SpanDays = int(g.LastDelivery.Sub(g.FirstPickup) / day)
		earlyStart := !g.FirstPickup.After(g.Week.Start().Add(day))
		lateFinish := !g.LastDelivery.Before(g.Week.End().Add(-day))
		g.FullWeek = g.SpanDays >= 5 || (earlyStart && lateFinish)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week.Before(out[j].Week)
		}
		return out[i].Driver < out[j].Driver
	})
	return out
}
