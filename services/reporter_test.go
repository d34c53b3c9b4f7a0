package services

import (
	"bytes"
	"strings"
	"testing"

	"dispatch-ledger/models"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"999", "$999.00"},
		{"1234.5", "$1,234.50"},
		{"1000000", "$1,000,000.00"},
		{"-1234567.891", "-$1,234,567.89"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatRate(t *testing.T) {
	if got := FormatRate(decimal.NullDecimal{}); got != "n/a" {
		t.Errorf("FormatRate(invalid) = %q, want n/a", got)
	}
	if got := FormatRate(amount("2.5")); got != "$2.50" {
		t.Errorf("FormatRate(2.5) = %q, want $2.50", got)
	}
}

func TestPrintDashboardReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintDashboardReport(&buf, &models.DashboardReport{})
	out := buf.String()
	if !strings.Contains(out, "No loads match the current selection.") {
		t.Errorf("empty report output missing message:\n%s", out)
	}
	if strings.Contains(out, "WEEKLY EARNINGS BY DRIVER") {
		t.Errorf("empty report should not print driver weeks:\n%s", out)
	}
}

func TestPrintDashboardReportUndefinedRate(t *testing.T) {
	set := &models.LoadSet{
		Records: []*models.LoadRecord{
			priced(load(0, "JOHN", "ANA", "2024-01-01", "2024-01-02"), "1200", "800", "0"),
		},
		Diagnostics: make(models.Diagnostics),
	}
	report := fixedInsightService().Generate(set, models.FilterSelection{}, nil)

	var buf bytes.Buffer
	PrintDashboardReport(&buf, report)
	out := buf.String()
	for _, want := range []string{"WEEKLY EARNINGS BY DRIVER", "JOHN", "$1,200.00", "n/a"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, bad := range []string{"Inf", "NaN"} {
		if strings.Contains(out, bad) {
			t.Errorf("output contains %q:\n%s", bad, out)
		}
	}
}
