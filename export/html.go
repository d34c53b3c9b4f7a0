// Package export renders the dashboard report as a static HTML page and prints it to PDF
package export

import (
	"fmt"
	"html/template"
	"io"

	"dispatch-ledger/models"
	"dispatch-ledger/services"
)

var funcs = template.FuncMap{
	"money": services.FormatMoney,
	"rate":  services.FormatRate,
	"pct":   func(v float64) string { return fmt.Sprintf("%+.1f%%", v) },
	"one":   func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"date":  func(w models.Week) string { return w.Display() },
}

var dashboardTemplate = template.Must(template.New("dashboard").Funcs(funcs).Parse(dashboardHTML))

// RenderHTML writes the report as a self-contained HTML page
func RenderHTML(w io.Writer, report *models.DashboardReport) error {
	if err := dashboardTemplate.Execute(w, report); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Dispatch Operational &amp; Performance Dashboard</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 24px; color: #222; }
h1 { font-size: 22px; margin-bottom: 4px; }
h2 { font-size: 16px; margin-top: 28px; border-bottom: 1px solid #ccc; padding-bottom: 4px; }
table { border-collapse: collapse; width: 100%; font-size: 12px; }
th, td { padding: 4px 8px; border-bottom: 1px solid #eee; text-align: left; }
td.num, th.num { text-align: right; }
.kpis { display: flex; gap: 16px; }
.kpi { border: 1px solid #ddd; border-radius: 4px; padding: 8px 12px; }
.kpi b { display: block; font-size: 18px; }
.muted { color: #777; }
.flag { color: #b00; }
</style>
</head>
<body>
<h1>Dispatch Operational &amp; Performance Dashboard</h1>
<p class="muted">Generated {{.GeneratedAt.Format "Jan 02, 2006 15:04"}}</p>

<div class="kpis">
  <div class="kpi">Total Loads<b>{{.Totals.Loads}}</b></div>
  <div class="kpi">Total Revenue<b>{{money .Totals.Revenue}}</b></div>
  <div class="kpi">Avg Revenue / Load<b>{{if .Totals.AvgRevenue.Valid}}{{money .Totals.AvgRevenue.Decimal}}{{else}}n/a{{end}}</b></div>
  <div class="kpi">Drivers / FCs<b>{{.Totals.Drivers}} / {{.Totals.Dispatchers}}</b></div>
</div>

{{if .IsEmpty}}
<p>No loads match the current selection.</p>
{{else}}

{{with .WeekOverWeek}}
<h2>Week to Week (latest week {{date .LatestWeek}})</h2>
<p>Revenue {{money .LatestRevenue}} ({{pct .RevenueChangePct}}) &middot; Loads {{.LatestLoads}} ({{pct .LoadsChangePct}})</p>
<table>
<tr><th>Dispatcher</th><th class="num">Revenue</th></tr>
{{range .RevenueByFC}}<tr><td>{{.Name}}</td><td class="num">{{money .Amount}}</td></tr>
{{end}}</table>
{{end}}

<h2>Weekly Earnings by Driver</h2>
<table>
<tr><th>Week</th><th>Driver</th><th>FC</th><th class="num">Loads</th><th class="num">Revenue</th><th class="num">Driver Pay</th><th class="num">Miles</th><th class="num">RPM</th><th class="num">Idle Days</th></tr>
{{range .DriverWeeks}}<tr><td>{{.WeekStart}}</td><td>{{.Driver}}</td><td>{{.Dispatcher}}</td><td class="num">{{.LoadCount}}</td><td class="num">{{money .RevenueSum}}</td><td class="num">{{money .PaySum}}</td><td class="num">{{.MilesSum.StringFixed 0}}</td><td class="num">{{rate .RatePerMile}}</td><td class="num">{{.IdleDaysSum}}</td></tr>
{{end}}</table>

<h2>Weekly Totals</h2>
<table>
<tr><th>Week</th><th class="num">Loads</th><th class="num">Revenue</th><th class="num">Driver Pay</th><th class="num">Active FCs</th></tr>
{{range .WeekTotals}}<tr><td>{{date .Week}}</td><td class="num">{{.LoadCount}}</td><td class="num">{{money .RevenueSum}}</td><td class="num">{{money .PaySum}}</td><td class="num">{{.ActiveDispatchers}}</td></tr>
{{end}}</table>

{{if .IdleByDispatcher}}
<h2>Idle Days by Dispatcher</h2>
<table>
{{range .IdleByDispatcher}}<tr><td>{{.Name}}</td><td class="num">{{.Count}}</td></tr>
{{end}}</table>
{{end}}

{{if .PrebookHours}}
<h2>Prebook Hours</h2>
<table>
<tr><th>Dispatcher</th><th class="num">Avg hours before pickup</th><th class="num">Loads</th></tr>
{{range .PrebookHours}}<tr><td>{{.Name}}</td><td class="num">{{one .Average}}</td><td class="num">{{.Samples}}</td></tr>
{{end}}</table>
{{end}}

{{if .FullWeek}}
<h2>Full-Week Activity (Tuesday to Monday)</h2>
<table>
<tr><th>Week</th><th>Driver</th><th class="num">Loads</th><th class="num">Span Days</th><th>Full Week</th></tr>
{{range .FullWeek}}<tr><td>{{date .Week}}</td><td>{{.Driver}}</td><td class="num">{{.LoadCount}}</td><td class="num">{{.SpanDays}}</td><td>{{if .FullWeek}}yes{{else}}no{{end}}</td></tr>
{{end}}</table>
{{end}}

{{if .Destinations}}
<h2>Destination States</h2>
<table>
<tr><th>State</th><th class="num">Deliveries</th><th class="num">Market Rate</th><th></th></tr>
{{range .Destinations}}<tr><td>{{.State}}</td><td class="num">{{.Deliveries}}</td><td class="num">{{rate .MarketRate}}</td><td>{{if .DeadZone}}<span class="flag">dead zone</span>{{end}}</td></tr>
{{end}}</table>
{{end}}
{{end}}

{{if .CancelByDispatcher}}
<h2>Cancellations by Dispatcher</h2>
<table>
{{range .CancelByDispatcher}}<tr><td>{{.Name}}</td><td class="num">{{.Count}}</td></tr>
{{end}}</table>
{{end}}

{{if .StatusDistribution}}
<h2>Load Status Distribution</h2>
<table>
{{range .StatusDistribution}}<tr><td>{{.Name}}</td><td class="num">{{.Count}}</td></tr>
{{end}}</table>
{{end}}

{{if .Diagnostics}}
<h2>Data Quality</h2>
<table>
{{range .Diagnostics}}<tr><td>{{.Reason}}</td><td class="num">{{.Count}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
`
