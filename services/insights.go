package services

import (
	"sort"
	"time"

	"dispatch-ledger/models"
	"dispatch-ledger/utils"

	"github.com/shopspring/decimal"
)

// InsightService computes the dashboard views from a normalized load set
type InsightService struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewInsightService creates a new InsightService
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger, now: time.Now}
}

// Generate computes every view over the records matching filter. refs may be nil.
// An empty selection yields an empty report, not an error.
func (s *InsightService) Generate(set *models.LoadSet, filter models.FilterSelection, refs *models.ReferenceData) *models.DashboardReport {
	records := filter.Apply(set.Records)
	all := filter.Apply(set.AllRecords)

	report := &models.DashboardReport{
		GeneratedAt: s.now(),
		Diagnostics: set.Diagnostics.Sorted(),
	}
	if len(records) == 0 {
		s.logger.Warn("No invoiced loads match the current selection")
	}

	report.Totals = computeTotals(records)
	report.DriverWeeks = AggregateWeekly(set.Records, filter)
	report.IdleGaps = IdleGaps(records)
	report.DispatcherWeeks = dispatcherWeeks(records, report.IdleGaps)
	report.WeekTotals = weekTotals(report.DispatcherWeeks)
	report.IdleByDispatcher = idleByDispatcher(report.IdleGaps)
	report.WeekOverWeek = weekOverWeek(records)
	report.PrebookHours = prebookHours(records)
	report.BookingHour = bookingHour(records)
	report.RPMSamples = rpmSamples(records)
	report.CancelByDispatcher, report.CancelByDriver = cancellations(all)
	report.StatusDistribution = statusDistribution(all)
	report.Destinations = destinations(records, refs)
	report.FullWeek = fullWeekActivity(records)

	s.logger.Info("Generated dashboard: %d loads, %d driver-weeks, %d idle gaps",
		report.Totals.Loads, len(report.DriverWeeks), len(report.IdleGaps))
	return report
}

func computeTotals(records []*models.LoadRecord) models.Totals {
	t := models.Totals{Loads: len(records)}
	drivers := make(map[string]struct{})
	fcs := make(map[string]struct{})
	priced := 0
	for _, r := range records {
		if r.BrokerRate.Valid {
			t.Revenue = t.Revenue.Add(r.BrokerRate.Decimal)
			priced++
		}
		addValid(&t.Miles, r.Miles)
		drivers[models.IdentityOrUnknown(r.DriverName)] = struct{}{}
		fcs[models.IdentityOrUnknown(r.DispatcherName)] = struct{}{}
	}
	if priced > 0 {
		t.AvgRevenue = decimal.NewNullDecimal(t.Revenue.DivRound(decimal.NewFromInt(int64(priced)), 2))
	}
	t.Drivers = len(drivers)
	t.Dispatchers = len(fcs)
	return t
}

type dispatcherWeekKey struct {
	dispatcher string
	week       models.Week
}

func dispatcherWeeks(records []*models.LoadRecord, gaps []models.IdleGap) []models.DispatcherWeek {
	groups := make(map[dispatcherWeekKey]*models.DispatcherWeek)
	for _, r := range records {
		if r.Week == nil {
			continue
		}
		key := dispatcherWeekKey{models.IdentityOrUnknown(r.DispatcherName), *r.Week}
		g, ok := groups[key]
		if !ok {
			g = &models.DispatcherWeek{Dispatcher: key.dispatcher, Week: key.week}
			groups[key] = g
		}
		g.LoadCount++
		addValid(&g.RevenueSum, r.BrokerRate)
		addValid(&g.PaySum, r.DriverRate)
	}
	for _, gap := range gaps {
		if g, ok := groups[dispatcherWeekKey{gap.Dispatcher, gap.Week}]; ok {
			g.IdleDays += gap.GapDays
		}
	}

	out := make([]models.DispatcherWeek, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week.Before(out[j].Week)
		}
		// highest billing first within a week
		if c := out[i].RevenueSum.Cmp(out[j].RevenueSum); c != 0 {
			return c > 0
		}
		return out[i].Dispatcher < out[j].Dispatcher
	})
	return out
}

func weekTotals(fcWeeks []models.DispatcherWeek) []models.WeekTotal {
	var out []models.WeekTotal
	index := make(map[models.Week]int)
	for _, fw := range fcWeeks {
		i, ok := index[fw.Week]
		if !ok {
			i = len(out)
			index[fw.Week] = i
			out = append(out, models.WeekTotal{Week: fw.Week})
		}
		out[i].LoadCount += fw.LoadCount
		out[i].RevenueSum = out[i].RevenueSum.Add(fw.RevenueSum)
		out[i].PaySum = out[i].PaySum.Add(fw.PaySum)
		out[i].ActiveDispatchers++
	}
	if out == nil {
		out = []models.WeekTotal{}
	}
	return out
}

func idleByDispatcher(gaps []models.IdleGap) []models.NamedCount {
	totals := make(map[string]int)
	for _, g := range gaps {
		totals[g.Dispatcher] += g.GapDays
	}
	return sortedCounts(totals)
}

func weekOverWeek(records []*models.LoadRecord) *models.WeekOverWeek {
	var latest *models.Week
	for _, r := range records {
		if r.Week != nil && (latest == nil || latest.Before(*r.Week)) {
			latest = r.Week
		}
	}
	if latest == nil {
		return nil
	}
	var previous *models.Week
	for _, r := range records {
		if r.Week != nil && r.Week.Before(*latest) && (previous == nil || previous.Before(*r.Week)) {
			previous = r.Week
		}
	}

	wow := &models.WeekOverWeek{LatestWeek: *latest}
	revenueByFC := make(map[string]decimal.Decimal)
	pricedByFC := make(map[string]int)
	for _, r := range records {
		if r.Week == nil {
			continue
		}
		switch {
		case *r.Week == *latest:
			wow.LatestLoads++
			addValid(&wow.LatestRevenue, r.BrokerRate)
			fc := models.IdentityOrUnknown(r.DispatcherName)
			if r.BrokerRate.Valid {
				revenueByFC[fc] = revenueByFC[fc].Add(r.BrokerRate.Decimal)
				pricedByFC[fc]++
			}
		case previous != nil && *r.Week == *previous:
			wow.PreviousLoads++
			addValid(&wow.PreviousRevenue, r.BrokerRate)
		}
	}
	if previous != nil {
		w := *previous
		wow.PreviousWeek = &w
		wow.RevenueChangePct = pctChange(wow.LatestRevenue, wow.PreviousRevenue)
		wow.LoadsChangePct = pctChange(decimal.NewFromInt(int64(wow.LatestLoads)), decimal.NewFromInt(int64(wow.PreviousLoads)))
	}

	avgByFC := make(map[string]decimal.Decimal, len(revenueByFC))
	for fc, rev := range revenueByFC {
		avgByFC[fc] = rev.DivRound(decimal.NewFromInt(int64(pricedByFC[fc])), 2)
	}
	wow.RevenueByFC = sortedAmounts(revenueByFC)
	wow.AvgLoadByFC = sortedAmounts(avgByFC)
	return wow
}

// pctChange is 0 when there is nothing to compare against
func pctChange(latest, previous decimal.Decimal) float64 {
	if !previous.IsPositive() {
		return 0
	}
	pct, _ := latest.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	return pct
}

func sortedAmounts(m map[string]decimal.Decimal) []models.NamedAmount {
	out := make([]models.NamedAmount, 0, len(m))
	for name, amt := range m {
		out = append(out, models.NamedAmount{Name: name, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func sortedCounts(m map[string]int) []models.NamedCount {
	out := make([]models.NamedCount, 0, len(m))
	for name, n := range m {
		out = append(out, models.NamedCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
