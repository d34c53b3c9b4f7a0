package services

import (
	"testing"
	"time"

	"dispatch-ledger/models"

	"github.com/shopspring/decimal"
)

var defaultPolicy = CleanerPolicy{ExcludedBroker: "AMAZON RELAY", CancelToken: "cancel"}

func baseFields(loadID string) map[models.Column]string {
	return map[models.Column]string{
		models.ColLoadID:      loadID,
		models.ColDriverID:    "D1",
		models.ColDriverName:  "JOHN  SMITH",
		models.ColDispatcher:  "ANA LOPEZ",
		models.ColBroker:      "TQL",
		models.ColStatus:      "DELIVERED",
		models.ColPickupDate:  "2024-01-01",
		models.ColDeliverDate: "2024-01-03",
		models.ColBookedAt:    "2023-12-30 09:15:00",
		models.ColBrokerRate:  "$1,234.50",
		models.ColDriverRate:  "800",
		models.ColMiles:       "500",
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"$1,234.50", "1234.50", true},
		{"1234", "1234", true},
		{" $ 2,000 ", "2000", true},
		{"[2.35]", "2.35", true},
		{"-15", "-15", true},
		{"N/A", "", false},
		{"12abc", "", false},
		{"$", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseAmount(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"2024-01-02T10:30:00-05:00", time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC), true},
		{"2024-01-02 23:15:00+02:00", time.Date(2024, 1, 2, 23, 15, 0, 0, time.UTC), true},
		{"1/2/2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"01/02/2024 3:04 PM", time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC), true},
		{"Jan 2, 2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"45293", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"01-02-24", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"1-2-24", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"2024", time.Time{}, false},
		{"not a date", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got, tt.want)
		}
		if ok && got.Location() != time.UTC {
			t.Errorf("ParseDate(%q) location = %s, want UTC", tt.in, got.Location())
		}
	}
}

func TestCleanCurrencyParsing(t *testing.T) {
	good := baseFields("L1")
	bad := baseFields("L2")
	bad[models.ColBrokerRate] = "N/A"

	set := NewDataCleaner(quietLogger(), defaultPolicy, nil).Clean([]models.RawRow{rawRow(0, good), rawRow(1, bad)})

	if len(set.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(set.Records))
	}
	first, second := set.Records[0], set.Records[1]
	if !first.BrokerRate.Valid {
		t.Fatal("broker rate of L1 should be present")
	}
	assertDecimal(t, "L1 broker rate", first.BrokerRate.Decimal, "1234.50")

	if second.BrokerRate.Valid {
		t.Errorf("broker rate of L2 = %s, want absent", second.BrokerRate.Decimal)
	}
	if !second.DriverRate.Valid || !second.Miles.Valid || second.DeliveredAt == nil {
		t.Error("other fields of L2 should be unaffected")
	}
	if got := set.Diagnostics.Count(models.ReasonBadBrokerRate); got != 1 {
		t.Errorf("bad_broker_rate tally = %d, want 1", got)
	}
	if got := set.Diagnostics.Count(models.ReasonBadDriverRate); got != 0 {
		t.Errorf("bad_driver_rate tally = %d, want 0", got)
	}
}

func TestCleanCancellationAndBrokerExclusion(t *testing.T) {
	ok := baseFields("L1")
	cancelled := baseFields("L2")
	cancelled[models.ColStatus] = "CANCELLED - CUSTOMER REQUEST"
	relay := baseFields("L3")
	relay[models.ColBroker] = "Amazon Relay Inc"

	set := NewDataCleaner(quietLogger(), defaultPolicy, nil).Clean([]models.RawRow{
		rawRow(0, ok), rawRow(1, cancelled), rawRow(2, relay),
	})

	if len(set.Records) != 1 || set.Records[0].LoadID != "L1" {
		t.Fatalf("invoiced records = %v, want only L1", ids(set.Records))
	}
	if len(set.AllRecords) != 2 {
		t.Fatalf("all records = %v, want L1 and L2", ids(set.AllRecords))
	}
	if set.AllRecords[1].Status != models.StatusCancelled {
		t.Errorf("L2 status = %s, want cancelled", set.AllRecords[1].Status)
	}
	if got := set.Diagnostics.Count(models.ReasonCancelled); got != 1 {
		t.Errorf("cancelled tally = %d, want 1", got)
	}
	if got := set.Diagnostics.Count(models.ReasonExcludedBroker); got != 1 {
		t.Errorf("excluded_broker tally = %d, want 1", got)
	}
}

func TestCleanDates(t *testing.T) {
	bad := baseFields("L1")
	bad[models.ColDeliverDate] = "someday"
	bad[models.ColBookedAt] = ""

	inverted := baseFields("L2")
	inverted[models.ColPickupDate] = "2024-01-10"
	inverted[models.ColDeliverDate] = "2024-01-08"

	zoned := baseFields("L3")
	zoned[models.ColDeliverDate] = "2024-01-01T23:30:00-08:00"

	set := NewDataCleaner(quietLogger(), defaultPolicy, nil).Clean([]models.RawRow{
		rawRow(0, bad), rawRow(1, inverted), rawRow(2, zoned),
	})
	if len(set.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(set.Records))
	}

	l1 := set.Records[0]
	if l1.DeliveredAt != nil || l1.Week != nil {
		t.Error("unparseable delivery date should leave delivery and week absent")
	}
	if l1.BookedAt != nil {
		t.Error("empty booking time should be absent")
	}
	if got := set.Diagnostics.Count(models.ReasonBadDeliveryDate); got != 1 {
		t.Errorf("bad_delivery_date tally = %d, want 1", got)
	}
	if got := set.Diagnostics.Count(models.ReasonBadBookingTime); got != 0 {
		t.Errorf("bad_booking_time tally = %d, want 0 for an empty cell", got)
	}

	l2 := set.Records[1]
	if l2.PickupAt != nil {
		t.Errorf("pickup after delivery should be dropped, got %s", l2.PickupAt)
	}
	if l2.Week == nil || l2.Week.String() != "2024-01-02" {
		t.Errorf("L2 week = %v, want 2024-01-02", l2.Week)
	}
	if got := set.Diagnostics.Count(models.ReasonPickupAfterDelivery); got != 1 {
		t.Errorf("pickup_after_delivery tally = %d, want 1", got)
	}

	// wall clock kept: Monday 23:30 local stays Monday
	l3 := set.Records[2]
	if l3.Week == nil || l3.Week.String() != "2023-12-26" {
		t.Errorf("L3 week = %v, want 2023-12-26", l3.Week)
	}
}

func TestCleanIdentityAndDedup(t *testing.T) {
	first := baseFields("L1")
	dup := baseFields("L1")
	unmapped := baseFields("L2")
	unmapped[models.ColDispatcher] = ""
	unmapped[models.ColDriverName] = "Mary Jones"

	refs := &models.ReferenceData{DriverDispatcher: map[string]string{"MARY JONES": "PAT KIM"}}
	set := NewDataCleaner(quietLogger(), defaultPolicy, refs).Clean([]models.RawRow{
		rawRow(0, first), rawRow(1, dup), rawRow(2, unmapped),
	})

	if len(set.Records) != 2 {
		t.Fatalf("records = %v, want L1 and L2", ids(set.Records))
	}
	if set.Records[0].DriverName != "JOHN SMITH" {
		t.Errorf("driver name = %q, want inner whitespace collapsed", set.Records[0].DriverName)
	}
	if set.Records[1].DispatcherName != "PAT KIM" {
		t.Errorf("mapped dispatcher = %q, want PAT KIM", set.Records[1].DispatcherName)
	}
	if got := set.Diagnostics.Count(models.ReasonDuplicateLoadID); got != 1 {
		t.Errorf("duplicate_load_id tally = %d, want 1", got)
	}
	if got := set.Diagnostics.Count(models.ReasonDispatcherMapped); got != 1 {
		t.Errorf("dispatcher_from_mapping tally = %d, want 1", got)
	}
}

func TestCleanCancelledThenRebooked(t *testing.T) {
	cancelled := baseFields("L1")
	cancelled[models.ColStatus] = "CANCELLED - CUSTOMER REQUEST"
	cancelled[models.ColBrokerRate] = "$900"
	rebooked := baseFields("L1")
	rebooked[models.ColStatus] = "Delivered"
	rebooked[models.ColBrokerRate] = "$1,200"
	again := baseFields("L1")

	set := NewDataCleaner(quietLogger(), defaultPolicy, nil).Clean([]models.RawRow{
		rawRow(0, cancelled), rawRow(1, rebooked), rawRow(2, again),
	})

	if len(set.Records) != 1 || set.Records[0].Row != 1 {
		t.Fatalf("invoiced records = %v, want the rebooked row only", ids(set.Records))
	}
	assertDecimal(t, "rebooked broker rate", set.Records[0].BrokerRate.Decimal, "1200")
	if len(set.AllRecords) != 2 {
		t.Errorf("all records = %d, want cancelled and rebooked", len(set.AllRecords))
	}
	if got := set.Diagnostics.Count(models.ReasonCancelled); got != 1 {
		t.Errorf("cancelled tally = %d, want 1", got)
	}
	// only the third row repeats an invoiced load
	if got := set.Diagnostics.Count(models.ReasonDuplicateLoadID); got != 1 {
		t.Errorf("duplicate_load_id tally = %d, want 1", got)
	}

	rows := AggregateWeekly(set.Records, models.FilterSelection{})
	if len(rows) != 1 {
		t.Fatalf("summaries = %+v, want one group", rows)
	}
	assertDecimal(t, "weekly revenue", rows[0].RevenueSum, "1200")
}

func TestCleanNegativeMiles(t *testing.T) {
	f := baseFields("L1")
	f[models.ColMiles] = "-20"
	set := NewDataCleaner(quietLogger(), defaultPolicy, nil).Clean([]models.RawRow{rawRow(0, f)})
	if set.Records[0].Miles.Valid {
		t.Error("negative miles should be absent")
	}
	if got := set.Diagnostics.Count(models.ReasonNegativeAmount); got != 1 {
		t.Errorf("negative_amount tally = %d, want 1", got)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := map[string]models.LoadStatus{
		"CANCELLED - CUSTOMER REQUEST": models.StatusCancelled,
		"Canceled":                     models.StatusCancelled,
		"DELIVERED":                    models.StatusDelivered,
		"Completed":                    models.StatusDelivered,
		"IN TRANSIT":                   models.StatusActive,
		"Dispatched":                   models.StatusActive,
		"TONU":                         models.StatusOther,
		"":                             models.StatusOther,
	}
	for in, want := range tests {
		if got := classifyStatus(in, "cancel"); got != want {
			t.Errorf("classifyStatus(%q) = %s, want %s", in, got, want)
		}
	}
}

func ids(records []*models.LoadRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.LoadID
	}
	return out
}
