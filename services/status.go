package services

import (
	"regexp"
	"sort"
	"strings"

	"dispatch-ledger/models"

	"github.com/shopspring/decimal"
)

// "CITY, ST" destinations
var destinationStateRegex = regexp.MustCompile(`,\s*([A-Z]{2})$`)

// cancellations counts cancelled loads per dispatcher and per driver
func cancellations(all []*models.LoadRecord) (byFC, byDriver []models.NamedCount) {
	fc := make(map[string]int)
	drv := make(map[string]int)
	for _, r := range all {
		if r.Status != models.StatusCancelled {
			continue
		}
		fc[models.IdentityOrUnknown(r.DispatcherName)]++
		drv[models.IdentityOrUnknown(r.DriverName)]++
	}
	return sortedCounts(fc), sortedCounts(drv)
}

// statusDistribution counts distinct raw status values, cancellations included.
// Spellings are kept apart. Rows without a status are not counted.
func statusDistribution(all []*models.LoadRecord) []models.NamedCount {
	counts := make(map[string]int)
	for _, r := range all {
		if r.StatusText == "" {
			continue
		}
		counts[r.StatusText]++
	}
	return sortedCounts(counts)
}

// DestinationState extracts the two-letter state from a "CITY, ST" value
func DestinationState(city string) (string, bool) {
	m := destinationStateRegex.FindStringSubmatch(strings.TrimSpace(city))
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

func destinations(records []*models.LoadRecord, refs *models.ReferenceData) []models.DestinationState {
	counts := make(map[string]int)
	for _, r := range records {
		if st, ok := DestinationState(r.DestinationCity); ok {
			counts[st]++
		}
	}

	out := make([]models.DestinationState, 0, len(counts))
	for st, n := range counts {
		d := models.DestinationState{State: st, Deliveries: n}
		if refs.HasMarketRates() {
			if rate, ok := refs.MarketRates[st]; ok {
				d.MarketRate = decimal.NewNullDecimal(rate)
			}
		}
		if refs.HasDeadZones() {
			d.DeadZone = refs.DeadZones[st]
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Deliveries != out[j].Deliveries {
			return out[i].Deliveries > out[j].Deliveries
		}
		return out[i].State < out[j].State
	})
	return out
}
