// Package metrics exposes pipeline counters for Prometheus
package metrics

import (
	"net/http"
	"time"

	"dispatch-ledger/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	rowsRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_ledger_rows_read_total",
		Help: "Total number of raw load-history rows read.",
	})
	loadsInvoiced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_ledger_loads_invoiced_total",
		Help: "Total number of normalized loads kept for invoiced aggregates.",
	})
	loadsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_ledger_loads_cancelled_total",
		Help: "Total number of normalized loads classified as cancelled.",
	})
	rowDiagnostics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_ledger_row_diagnostics_total",
		Help: "Rows or fields dropped or adjusted during normalization, by reason.",
	}, []string{"reason"})
	reportsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_ledger_reports_generated_total",
		Help: "Total number of dashboard reports computed.",
	})
	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_ledger_pipeline_duration_seconds",
		Help:    "Duration of a full read-normalize-aggregate run.",
		Buckets: []float64{0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
	})
)

// ObserveLoadSet records the outcome of one normalization pass
func ObserveLoadSet(rawRows int, set *models.LoadSet) {
	rowsRead.Add(float64(rawRows))
	loadsInvoiced.Add(float64(len(set.Records)))
	loadsCancelled.Add(float64(len(set.AllRecords) - len(set.Records)))
	for reason, n := range set.Diagnostics {
		rowDiagnostics.WithLabelValues(string(reason)).Add(float64(n))
	}
}

// ObserveReport counts a computed dashboard report
func ObserveReport() { reportsGenerated.Inc() }

// ObservePipeline records how long a pipeline run took
func ObservePipeline(start time.Time) {
	pipelineDuration.Observe(time.Since(start).Seconds())
}

// Handler serves the default registry
func Handler() http.Handler { return promhttp.Handler() }
