package services

import (
	"fmt"
	"io"
	"strings"

	"dispatch-ledger/models"

	"github.com/shopspring/decimal"
)

// PrintDashboardReport formats and prints the dashboard report to w
func PrintDashboardReport(w io.Writer, report *models.DashboardReport) {
	border := strings.Repeat("═", 64)
	thin := strings.Repeat("─", 64)

	fmt.Fprintf(w, "\n╔%s╗\n", border)
	fmt.Fprintf(w, "║%s║\n", center("DISPATCH OPERATIONAL & PERFORMANCE REPORT", 64))
	fmt.Fprintf(w, "╚%s╝\n", border)

	t := report.Totals
	fmt.Fprintf(w, "\n SUMMARY\n%s\n", thin)
	fmt.Fprintf(w, "  Total Loads        : %d\n", t.Loads)
	fmt.Fprintf(w, "  Total Revenue      : %s\n", FormatMoney(t.Revenue))
	fmt.Fprintf(w, "  Avg Revenue/Load   : %s\n", formatNullMoney(t.AvgRevenue))
	fmt.Fprintf(w, "  Total Miles        : %s\n", t.Miles.StringFixed(0))
	fmt.Fprintf(w, "  Drivers / FCs      : %d / %d\n", t.Drivers, t.Dispatchers)

	if report.IsEmpty() {
		fmt.Fprintf(w, "\n  No loads match the current selection.\n\n%s\n\n", border)
		return
	}

	if wow := report.WeekOverWeek; wow != nil {
		fmt.Fprintf(w, "\n WEEK TO WEEK (latest week %s)\n%s\n", wow.LatestWeek.Display(), thin)
		fmt.Fprintf(w, "  Revenue : %s (%+.1f%% vs previous week)\n", FormatMoney(wow.LatestRevenue), wow.RevenueChangePct)
		fmt.Fprintf(w, "  Loads   : %d (%+.1f%% vs previous week)\n", wow.LatestLoads, wow.LoadsChangePct)
		for _, a := range wow.RevenueByFC {
			fmt.Fprintf(w, "  %-28s %14s\n", truncate(a.Name, 28)+":", FormatMoney(a.Amount))
		}
	}

	if len(report.DriverWeeks) > 0 {
		fmt.Fprintf(w, "\n WEEKLY EARNINGS BY DRIVER\n%s\n", thin)
		fmt.Fprintf(w, "  %-12s %-18s %-14s %5s %12s %8s %5s\n", "Week", "Driver", "FC", "Loads", "Revenue", "RPM", "Idle")
		for _, s := range report.DriverWeeks {
			fmt.Fprintf(w, "  %-12s %-18s %-14s %5d %12s %8s %5d\n",
				s.WeekStart.String(), truncate(s.Driver, 18), truncate(s.Dispatcher, 14),
				s.LoadCount, FormatMoney(s.RevenueSum), FormatRate(s.RatePerMile), s.IdleDaysSum)
		}
	}

	if len(report.WeekTotals) > 0 {
		fmt.Fprintf(w, "\n WEEKLY TOTALS (ALL DISPATCHERS)\n%s\n", thin)
		for _, wt := range report.WeekTotals {
			fmt.Fprintf(w, "  %-14s %14s  driver pay %12s  loads %4d  FCs %2d\n",
				wt.Week.Display(), FormatMoney(wt.RevenueSum), FormatMoney(wt.PaySum), wt.LoadCount, wt.ActiveDispatchers)
		}
	}

	if len(report.IdleByDispatcher) > 0 {
		fmt.Fprintf(w, "\n IDLE DAYS BY DISPATCHER\n%s\n", thin)
		printBars(w, report.IdleByDispatcher, " days")
	}

	if len(report.PrebookHours) > 0 {
		fmt.Fprintf(w, "\n PREBOOK HOURS / BOOKING HOUR\n%s\n", thin)
		hours := make(map[string]float64, len(report.BookingHour))
		for _, b := range report.BookingHour {
			hours[b.Name] = b.Average
		}
		for _, p := range report.PrebookHours {
			fmt.Fprintf(w, "  %-28s %8.1f h ahead   avg booking hour %5.1f\n", truncate(p.Name, 28)+":", p.Average, hours[p.Name])
		}
	}

	if len(report.CancelByDispatcher) > 0 {
		fmt.Fprintf(w, "\n CANCELLATIONS BY DISPATCHER\n%s\n", thin)
		printBars(w, report.CancelByDispatcher, "")
	}

	if len(report.StatusDistribution) > 0 {
		fmt.Fprintf(w, "\n LOAD STATUS DISTRIBUTION\n%s\n", thin)
		printBars(w, report.StatusDistribution, "")
	}

	if len(report.Destinations) > 0 {
		fmt.Fprintf(w, "\n DESTINATION STATES\n%s\n", thin)
		for _, d := range report.Destinations {
			flag := ""
			if d.DeadZone {
				flag = "  dead zone"
			}
			fmt.Fprintf(w, "  %-4s %4d deliveries  market %8s%s\n", d.State, d.Deliveries, FormatRate(d.MarketRate), flag)
		}
	}

	if len(report.Diagnostics) > 0 {
		fmt.Fprintf(w, "\n DATA QUALITY\n%s\n", thin)
		for _, rc := range report.Diagnostics {
			fmt.Fprintf(w, "  %-26s %6d\n", string(rc.Reason)+":", rc.Count)
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", border)
}

func printBars(w io.Writer, rows []models.NamedCount, unit string) {
	for _, nc := range rows {
		n := nc.Count
		if n > 40 {
			n = 40
		}
		fmt.Fprintf(w, "  %-28s %5d%s  %s\n", truncate(nc.Name, 28)+":", nc.Count, unit, strings.Repeat("▓", n))
	}
}

// FormatMoney renders an amount like "$1,234.50"
func FormatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	out := "$" + b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

func formatNullMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return "n/a"
	}
	return FormatMoney(d.Decimal)
}

// FormatRate renders a rate per mile, or "n/a" when undefined
func FormatRate(d decimal.NullDecimal) string {
	if !d.Valid {
		return "n/a"
	}
	return "$" + d.Decimal.StringFixed(2)
}

func center(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
