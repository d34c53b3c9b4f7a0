package services

import (
	"math"
	"sort"

	"dispatch-ledger/models"
)

// IdleGaps computes, per driver, the whole days between each load's delivery and the
// next load's pickup. Only strictly positive gaps are returned; overlapping or
// back-to-back loads contribute nothing. Records missing either date are skipped.
func IdleGaps(records []*models.LoadRecord) []models.IdleGap {
	byDriver := make(map[string][]*models.LoadRecord)
	var order []string
	for _, r := range records {
		if r.PickupAt == nil || r.DeliveredAt == nil {
			continue
		}
		key := driverKey(r)
		if _, ok := byDriver[key]; !ok {
			order = append(order, key)
		}
		byDriver[key] = append(byDriver[key], r)
	}

	gaps := make([]models.IdleGap, 0)
	for _, key := range order {
		gaps = append(gaps, driverGaps(byDriver[key])...)
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		a, b := gaps[i], gaps[j]
		if a.Driver != b.Driver {
			return a.Driver < b.Driver
		}
		if a.Week != b.Week {
			return a.Week.Before(b.Week)
		}
		return a.SourceRow < b.SourceRow
	})
	return gaps
}

// driverGaps expects every record to carry both dates
func driverGaps(loads []*models.LoadRecord) []models.IdleGap {
	sorted := make([]*models.LoadRecord, len(loads))
	copy(sorted, loads)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := *sorted[i].DeliveredAt, *sorted[j].DeliveredAt
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return sorted[i].Row < sorted[j].Row
	})

	var gaps []models.IdleGap
	for i := 0; i+1 < len(sorted); i++ {
		cur, next := sorted[i], sorted[i+1]
		days := wholeDays(next.PickupAt.Sub(*cur.DeliveredAt).Hours())
		if days <= 0 {
			continue
		}
		gaps = append(gaps, models.IdleGap{
			DriverID:   cur.DriverID,
			Driver:     models.IdentityOrUnknown(cur.DriverName),
			Dispatcher: models.IdentityOrUnknown(cur.DispatcherName),
			Week:       WeekOf(*cur.DeliveredAt),
			GapDays:    days,
			SourceRow:  cur.Row,
		})
	}
	return gaps
}

// wholeDays floors a duration in hours to days
func wholeDays(hours float64) int {
	return int(math.Floor(hours / 24))
}

func driverKey(r *models.LoadRecord) string {
	if r.DriverID != "" {
		return "id:" + r.DriverID
	}
	return "name:" + models.IdentityOrUnknown(r.DriverName)
}
