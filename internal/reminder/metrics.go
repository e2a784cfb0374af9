package reminder

import "github.com/prometheus/client_golang/prometheus"

var (
	scansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_scans_total",
		Help: "Total number of reminder scans started",
	})

	scanErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_scan_errors_total",
		Help: "Total number of reminder scans that failed at the query stage",
	})

	dispatchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_dispatched_total",
		Help: "Total number of reminders marked sent",
	})

	deliveryFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_delivery_failures_total",
		Help: "Total number of failed per-recipient delivery attempts",
	})
)

// Register metrics with Prometheus's default registry
func init() {
	prometheus.MustRegister(scansTotal, scanErrorsTotal, dispatchedTotal, deliveryFailuresTotal)
}
