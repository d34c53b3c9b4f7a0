package services

import (
	"testing"
	"time"

	"dispatch-ledger/models"

	"github.com/shopspring/decimal"
)

func fixedInsightService() *InsightService {
	s := NewInsightService(quietLogger())
	s.now = func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) }
	return s
}

func sampleLoadSet() *models.LoadSet {
	r0 := priced(load(0, "JOHN", "ANA", "2024-01-01", "2024-01-02"), "1000", "700", "400")
	r0.BookedAt = ts("2023-12-31 10:00")
	r0.DestinationCity = "Dallas, TX"
	r1 := priced(load(1, "MARY", "BEN", "2024-01-09", "2024-01-10"), "1500", "1000", "500")
	r1.DestinationCity = "Austin, TX"
	r2 := priced(load(2, "JOHN", "ANA", "2024-01-10", "2024-01-11"), "500", "300", "250")
	r2.DestinationCity = "Reno, NV"

	cancelled := priced(load(3, "JOHN", "ANA", "2024-01-09", "2024-01-10"), "9999", "", "")
	cancelled.Status = models.StatusCancelled
	cancelled.StatusText = "CANCELLED"

	diag := make(models.Diagnostics)
	diag.Add(models.ReasonCancelled)
	return &models.LoadSet{
		Records:     []*models.LoadRecord{r0, r1, r2},
		AllRecords:  []*models.LoadRecord{r0, r1, r2, cancelled},
		Diagnostics: diag,
	}
}

func TestGenerateTotalsExcludeCancelled(t *testing.T) {
	report := fixedInsightService().Generate(sampleLoadSet(), models.FilterSelection{}, nil)

	if report.Totals.Loads != 3 {
		t.Errorf("Loads = %d, want 3", report.Totals.Loads)
	}
	assertDecimal(t, "Revenue", report.Totals.Revenue, "3000")
	if !report.Totals.AvgRevenue.Valid {
		t.Fatal("AvgRevenue should be defined")
	}
	assertDecimal(t, "AvgRevenue", report.Totals.AvgRevenue.Decimal, "1000")
	if report.Totals.Drivers != 2 || report.Totals.Dispatchers != 2 {
		t.Errorf("Drivers/Dispatchers = %d/%d, want 2/2", report.Totals.Drivers, report.Totals.Dispatchers)
	}

	var loads int
	for _, s := range report.DriverWeeks {
		loads += s.LoadCount
	}
	if loads != 3 {
		t.Errorf("driver-week load count = %d, want 3", loads)
	}

	if len(report.CancelByDispatcher) != 1 || report.CancelByDispatcher[0] != (models.NamedCount{Name: "ANA", Count: 1}) {
		t.Errorf("CancelByDispatcher = %+v, want [ANA 1]", report.CancelByDispatcher)
	}
	if len(report.CancelByDriver) != 1 || report.CancelByDriver[0].Name != "JOHN" {
		t.Errorf("CancelByDriver = %+v, want [JOHN 1]", report.CancelByDriver)
	}

	want := []models.NamedCount{{Name: "DELIVERED", Count: 3}, {Name: "CANCELLED", Count: 1}}
	if len(report.StatusDistribution) != len(want) {
		t.Fatalf("StatusDistribution = %+v, want %+v", report.StatusDistribution, want)
	}
	for i := range want {
		if report.StatusDistribution[i] != want[i] {
			t.Errorf("StatusDistribution[%d] = %+v, want %+v", i, report.StatusDistribution[i], want[i])
		}
	}

	if len(report.Diagnostics) != 1 || report.Diagnostics[0].Count != 1 {
		t.Errorf("Diagnostics = %+v, want one cancelled tally", report.Diagnostics)
	}
	if !report.GeneratedAt.Equal(time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("GeneratedAt = %v", report.GeneratedAt)
	}
}

func TestGenerateWeekOverWeek(t *testing.T) {
	report := fixedInsightService().Generate(sampleLoadSet(), models.FilterSelection{}, nil)
	wow := report.WeekOverWeek
	if wow == nil {
		t.Fatal("WeekOverWeek should be set")
	}
	if wow.LatestWeek.String() != "2024-01-09" {
		t.Errorf("LatestWeek = %s, want 2024-01-09", wow.LatestWeek)
	}
	if wow.PreviousWeek == nil || wow.PreviousWeek.String() != "2024-01-02" {
		t.Fatalf("PreviousWeek = %v, want 2024-01-02", wow.PreviousWeek)
	}
	assertDecimal(t, "LatestRevenue", wow.LatestRevenue, "2000")
	assertDecimal(t, "PreviousRevenue", wow.PreviousRevenue, "1000")
	if wow.RevenueChangePct != 100 {
		t.Errorf("RevenueChangePct = %v, want 100", wow.RevenueChangePct)
	}
	if wow.LatestLoads != 2 || wow.PreviousLoads != 1 || wow.LoadsChangePct != 100 {
		t.Errorf("loads = %d vs %d (%v%%), want 2 vs 1 (100%%)", wow.LatestLoads, wow.PreviousLoads, wow.LoadsChangePct)
	}
	if len(wow.RevenueByFC) != 2 || wow.RevenueByFC[0].Name != "BEN" {
		t.Errorf("RevenueByFC = %+v, want BEN first", wow.RevenueByFC)
	}
}

func TestPctChange(t *testing.T) {
	tests := []struct {
		latest, previous string
		want             float64
	}{
		{"150", "100", 50},
		{"50", "100", -50},
		{"100", "0", 0},
		{"1", "3", -66.7},
	}
	for _, tt := range tests {
		got := pctChange(decimal.RequireFromString(tt.latest), decimal.RequireFromString(tt.previous))
		if got != tt.want {
			t.Errorf("pctChange(%s, %s) = %v, want %v", tt.latest, tt.previous, got, tt.want)
		}
	}
}

func TestGenerateIdleAndWeekViews(t *testing.T) {
	report := fixedInsightService().Generate(sampleLoadSet(), models.FilterSelection{}, nil)

	if len(report.IdleGaps) != 1 || report.IdleGaps[0].GapDays != 8 {
		t.Fatalf("IdleGaps = %+v, want one 8-day gap", report.IdleGaps)
	}
	if len(report.IdleByDispatcher) != 1 || report.IdleByDispatcher[0] != (models.NamedCount{Name: "ANA", Count: 8}) {
		t.Errorf("IdleByDispatcher = %+v, want [ANA 8]", report.IdleByDispatcher)
	}

	if len(report.DispatcherWeeks) != 3 {
		t.Fatalf("DispatcherWeeks = %+v, want 3 rows", report.DispatcherWeeks)
	}
	first := report.DispatcherWeeks[0]
	if first.Dispatcher != "ANA" || first.Week.String() != "2024-01-02" || first.IdleDays != 8 {
		t.Errorf("DispatcherWeeks[0] = %+v, want ANA week 2024-01-02 with 8 idle days", first)
	}
	// highest billing first within a week
	if report.DispatcherWeeks[1].Dispatcher != "BEN" {
		t.Errorf("DispatcherWeeks[1] = %+v, want BEN", report.DispatcherWeeks[1])
	}

	if len(report.WeekTotals) != 2 {
		t.Fatalf("WeekTotals = %+v, want 2 weeks", report.WeekTotals)
	}
	second := report.WeekTotals[1]
	if second.LoadCount != 2 || second.ActiveDispatchers != 2 {
		t.Errorf("WeekTotals[1] = %+v, want 2 loads from 2 dispatchers", second)
	}
	assertDecimal(t, "WeekTotals[1].RevenueSum", second.RevenueSum, "2000")

	if len(report.PrebookHours) != 1 || report.PrebookHours[0].Average != 14 {
		t.Errorf("PrebookHours = %+v, want ANA 14h", report.PrebookHours)
	}
	if len(report.BookingHour) != 1 || report.BookingHour[0].Average != 10 {
		t.Errorf("BookingHour = %+v, want ANA 10", report.BookingHour)
	}
	if len(report.RPMSamples) != 3 {
		t.Errorf("RPMSamples = %+v, want 3", report.RPMSamples)
	}
}

func TestGenerateDestinations(t *testing.T) {
	refs := &models.ReferenceData{
		MarketRates: map[string]decimal.Decimal{"TX": decimal.RequireFromString("2.10")},
		DeadZones:   map[string]bool{"NV": true},
	}
	report := fixedInsightService().Generate(sampleLoadSet(), models.FilterSelection{}, refs)

	if len(report.Destinations) != 2 {
		t.Fatalf("Destinations = %+v, want TX and NV", report.Destinations)
	}
	tx, nv := report.Destinations[0], report.Destinations[1]
	if tx.State != "TX" || tx.Deliveries != 2 || tx.DeadZone {
		t.Errorf("Destinations[0] = %+v, want TX with 2 deliveries", tx)
	}
	if !tx.MarketRate.Valid {
		t.Fatal("TX market rate should be joined")
	}
	assertDecimal(t, "TX market rate", tx.MarketRate.Decimal, "2.10")
	if nv.State != "NV" || !nv.DeadZone || nv.MarketRate.Valid {
		t.Errorf("Destinations[1] = %+v, want NV dead zone without market rate", nv)
	}
}

func TestDestinationState(t *testing.T) {
	tests := []struct {
		city string
		want string
		ok   bool
	}{
		{"Dallas, TX", "TX", true},
		{"  Reno,NV ", "NV", true},
		{"Dallas", "", false},
		{"Dallas, Texas", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := DestinationState(tt.city)
		if got != tt.want || ok != tt.ok {
			t.Errorf("DestinationState(%q) = %q, %v, want %q, %v", tt.city, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFullWeekActivity(t *testing.T) {
	records := []*models.LoadRecord{
		// Tue -> Sun, 5 days under load
		load(0, "LONG", "ANA", "2024-01-02 08:00", "2024-01-07 09:00"),
		// Wed start, Sun finish
		load(1, "EDGES", "ANA", "2024-01-03", "2024-01-04"),
		load(2, "EDGES", "ANA", "2024-01-05", "2024-01-07"),
		// midweek only
		load(3, "SHORT", "BEN", "2024-01-04", "2024-01-05"),
	}
	got := fullWeekActivity(records)
	if len(got) != 3 {
		t.Fatalf("got %d groups, want 3: %+v", len(got), got)
	}
	want := map[string]struct {
		span int
		full bool
	}{
		"LONG":  {5, true},
		"EDGES": {4, true},
		"SHORT": {1, false},
	}
	for _, g := range got {
		w := want[g.Driver]
		if g.SpanDays != w.span || g.FullWeek != w.full {
			t.Errorf("%s: span %d full %v, want span %d full %v", g.Driver, g.SpanDays, g.FullWeek, w.span, w.full)
		}
	}
}

func TestGenerateEmptySelection(t *testing.T) {
	filter := models.NewFilterSelection([]string{"NOBODY"}, nil)
	report := fixedInsightService().Generate(sampleLoadSet(), filter, nil)

	if !report.IsEmpty() {
		t.Errorf("IsEmpty = false, want true")
	}
	if report.DriverWeeks == nil || len(report.DriverWeeks) != 0 {
		t.Errorf("DriverWeeks = %#v, want empty non-nil", report.DriverWeeks)
	}
	if report.IdleGaps == nil || len(report.IdleGaps) != 0 {
		t.Errorf("IdleGaps = %#v, want empty non-nil", report.IdleGaps)
	}
	if report.WeekOverWeek != nil {
		t.Errorf("WeekOverWeek = %+v, want nil", report.WeekOverWeek)
	}
	if report.Totals.AvgRevenue.Valid {
		t.Errorf("AvgRevenue should be undefined for an empty selection")
	}
}

func TestCancelledLoadExcludedFromRevenueButCounted(t *testing.T) {
	kept := baseFields("L1")
	cancelled := baseFields("L2")
	cancelled[models.ColStatus] = "CANCELLED - CUSTOMER REQUEST"
	cancelled[models.ColBrokerRate] = "$5,000"

	set := NewDataCleaner(quietLogger(), defaultPolicy, nil).Clean([]models.RawRow{
		rawRow(0, kept),
		rawRow(1, cancelled),
	})
	report := fixedInsightService().Generate(set, models.FilterSelection{}, nil)

	assertDecimal(t, "Revenue", report.Totals.Revenue, "1234.50")
	var weekRevenue decimal.Decimal
	for _, s := range report.DriverWeeks {
		weekRevenue = weekRevenue.Add(s.RevenueSum)
	}
	assertDecimal(t, "driver-week revenue", weekRevenue, "1234.50")

	counts := make(map[string]int)
	total := 0
	for _, nc := range report.StatusDistribution {
		counts[nc.Name] = nc.Count
		total += nc.Count
	}
	if counts["CANCELLED - CUSTOMER REQUEST"] != 1 || total != 2 {
		t.Errorf("StatusDistribution = %+v, want the cancelled load counted", report.StatusDistribution)
	}
}

func TestStatusDistributionKeepsSpellings(t *testing.T) {
	a := load(0, "JOHN", "ANA", "2024-01-01", "2024-01-02")
	a.StatusText = "Delivered"
	b := load(1, "JOHN", "ANA", "2024-01-03", "2024-01-04")
	c := load(2, "MARY", "BEN", "2024-01-03", "2024-01-04")
	d := load(3, "MARY", "BEN", "2024-01-05", "2024-01-06")
	d.StatusText = ""

	got := statusDistribution([]*models.LoadRecord{a, b, c, d})
	want := []models.NamedCount{{Name: "DELIVERED", Count: 2}, {Name: "Delivered", Count: 1}}
	if len(got) != len(want) {
		t.Fatalf("statusDistribution = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("statusDistribution[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
