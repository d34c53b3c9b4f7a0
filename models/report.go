package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DriverWeekSummary aggregates one (driver, dispatcher, week) group.
// RatePerMile is invalid when MilesSum is zero.
type DriverWeekSummary struct {
	Driver      string              `json:"driver"`
	Dispatcher  string              `json:"dispatcher"`
	WeekStart   Week                `json:"week_start_date"`
	LoadCount   int                 `json:"load_count"`
	RevenueSum  decimal.Decimal     `json:"revenue_sum"`
	PaySum      decimal.Decimal     `json:"pay_sum"`
	MilesSum    decimal.Decimal     `json:"miles_sum"`
	RatePerMile decimal.NullDecimal `json:"rate_per_mile"`
	IdleDaysSum int                 `json:"idle_days_sum"`
}

// IdleGap is the idle time between one load's delivery and the driver's next pickup.
// Week and Dispatcher belong to the earlier (source) load.
type IdleGap struct {
	DriverID   string `json:"driver_id"`
	Driver     string `json:"driver"`
	Dispatcher string `json:"dispatcher"`
	Week       Week   `json:"week_of_source_load"`
	GapDays    int    `json:"gap_days"`
	SourceRow  int    `json:"-"`
}

// DispatcherWeek aggregates billing per (dispatcher, week)
type DispatcherWeek struct {
	Dispatcher string          `json:"dispatcher"`
	Week       Week            `json:"week"`
	LoadCount  int             `json:"load_count"`
	RevenueSum decimal.Decimal `json:"revenue_sum"`
	PaySum     decimal.Decimal `json:"pay_sum"`
	IdleDays   int             `json:"idle_days"`
}

// WeekTotal aggregates every dispatcher for one week
type WeekTotal struct {
	Week              Week            `json:"week"`
	LoadCount         int             `json:"load_count"`
	RevenueSum        decimal.Decimal `json:"revenue_sum"`
	PaySum            decimal.Decimal `json:"pay_sum"`
	ActiveDispatchers int             `json:"active_dispatchers"`
}

// NamedAmount is a generic (name, amount) row used for per-dispatcher rankings
type NamedAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// NamedCount is a generic (name, count) row
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// NamedAverage is a mean over Samples values
type NamedAverage struct {
	Name    string  `json:"name"`
	Average float64 `json:"average"`
	Samples int     `json:"samples"`
}

// WeekOverWeek compares the latest week with the one before it
type WeekOverWeek struct {
	LatestWeek       Week            `json:"latest_week"`
	PreviousWeek     *Week           `json:"previous_week,omitempty"`
	LatestRevenue    decimal.Decimal `json:"latest_revenue"`
	PreviousRevenue  decimal.Decimal `json:"previous_revenue"`
	RevenueChangePct float64         `json:"revenue_change_pct"`
	LatestLoads      int             `json:"latest_loads"`
	PreviousLoads    int             `json:"previous_loads"`
	LoadsChangePct   float64         `json:"loads_change_pct"`
	RevenueByFC      []NamedAmount   `json:"revenue_by_dispatcher"`
	AvgLoadByFC      []NamedAmount   `json:"avg_load_value_by_dispatcher"`
}

// DestinationState counts deliveries into one state
type DestinationState struct {
	State      string              `json:"state"`
	Deliveries int                 `json:"deliveries"`
	MarketRate decimal.NullDecimal `json:"market_rate"`
	DeadZone   bool                `json:"dead_zone"`
}

// FullWeekActivity describes how much of a week a driver was under load
type FullWeekActivity struct {
	Driver       string          `json:"driver"`
	Week         Week            `json:"week"`
	FirstPickup  time.Time       `json:"first_pickup"`
	LastDelivery time.Time       `json:"last_delivery"`
	SpanDays     int             `json:"span_days"`
	FullWeek     bool            `json:"full_week"`
	LoadCount    int             `json:"load_count"`
	RevenueSum   decimal.Decimal `json:"revenue_sum"`
	MilesSum     decimal.Decimal `json:"miles_sum"`
}

// RPMSample is one load's revenue per mile
type RPMSample struct {
	LoadID     string          `json:"load_id"`
	Driver     string          `json:"driver"`
	Dispatcher string          `json:"dispatcher"`
	RPM        decimal.Decimal `json:"rpm"`
}

// Totals holds the headline numbers
type Totals struct {
	Loads       int                 `json:"loads"`
	Revenue     decimal.Decimal     `json:"revenue"`
	AvgRevenue  decimal.NullDecimal `json:"avg_revenue_per_load"`
	Miles       decimal.Decimal     `json:"miles"`
	Drivers     int                 `json:"drivers"`
	Dispatchers int                 `json:"dispatchers"`
}

// DashboardReport holds every computed view over one filtered load set
type DashboardReport struct {
	GeneratedAt        time.Time           `json:"generated_at"`
	Totals             Totals              `json:"totals"`
	DriverWeeks        []DriverWeekSummary `json:"driver_weeks"`
	IdleGaps           []IdleGap           `json:"idle_gaps"`
	DispatcherWeeks    []DispatcherWeek    `json:"dispatcher_weeks"`
	WeekTotals         []WeekTotal         `json:"week_totals"`
	IdleByDispatcher   []NamedCount        `json:"idle_by_dispatcher"`
	WeekOverWeek       *WeekOverWeek       `json:"week_over_week,omitempty"`
	PrebookHours       []NamedAverage      `json:"prebook_hours"`
	BookingHour        []NamedAverage      `json:"booking_hour"`
	RPMSamples         []RPMSample         `json:"rpm_samples"`
	CancelByDispatcher []NamedCount        `json:"cancellations_by_dispatcher"`
	CancelByDriver     []NamedCount        `json:"cancellations_by_driver"`
	StatusDistribution []NamedCount        `json:"status_distribution"`
	Destinations       []DestinationState  `json:"destinations"`
	FullWeek           []FullWeekActivity  `json:"full_week"`
	Diagnostics        []ReasonCount       `json:"diagnostics"`
}

// IsEmpty reports whether no invoiced load matched the selection
func (r *DashboardReport) IsEmpty() bool {
	return r.Totals.Loads == 0
}
