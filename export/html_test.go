package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"dispatch-ledger/models"

	"github.com/shopspring/decimal"
)

func TestRenderHTMLEmptySelection(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, &models.DashboardReport{}); err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "No loads match the current selection.") {
		t.Errorf("empty report should say so:\n%s", out)
	}
	if strings.Contains(out, "Weekly Earnings by Driver") {
		t.Error("empty report should not render driver weeks")
	}
}

func TestRenderHTMLReport(t *testing.T) {
	week := models.Week(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	report := &models.DashboardReport{
		GeneratedAt: time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC),
		Totals: models.Totals{
			Loads:       1,
			Revenue:     decimal.NewFromInt(1200),
			AvgRevenue:  decimal.NewNullDecimal(decimal.NewFromInt(1200)),
			Drivers:     1,
			Dispatchers: 1,
		},
		DriverWeeks: []models.DriverWeekSummary{{
			Driver:     "<b>JOHN</b>",
			Dispatcher: "ANA",
			WeekStart:  week,
			LoadCount:  1,
			RevenueSum: decimal.NewFromInt(1200),
		}},
		Destinations: []models.DestinationState{{State: "NV", Deliveries: 1, DeadZone: true}},
		Diagnostics:  []models.ReasonCount{{Reason: models.ReasonBadMiles, Count: 2}},
	}

	var buf bytes.Buffer
	if err := RenderHTML(&buf, report); err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"2024-01-02", "$1,200.00", "n/a", "dead zone", "bad_miles", "&lt;b&gt;JOHN&lt;/b&gt;"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "<b>JOHN</b>") {
		t.Error("driver name should be escaped")
	}
}
