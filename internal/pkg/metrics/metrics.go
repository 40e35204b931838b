package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// LoginTotal counts token logins against the provider auth endpoint.
	LoginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetpulse_provider_logins_total",
			Help: "Total number of provider login attempts.",
		},
		[]string{"result"}, // result: success/failure
	)

	// RequestTotal counts provider API calls.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetpulse_provider_requests_total",
			Help: "Total number of provider API requests.",
		},
		[]string{"method", "code"},
	)

	// ReportDuration records wall time of full fleet report runs.
	ReportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fleetpulse_report_duration_seconds",
			Help:    "Duration of fleet report generation.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// ReportRowsTotal counts report rows by outcome.
	ReportRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetpulse_report_rows_total",
			Help: "Total report rows produced, by outcome.",
		},
		[]string{"outcome"}, // outcome: ok/no_data/error
	)

	// CommandTotal counts dispatched bot commands.
	CommandTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetpulse_bot_commands_total",
			Help: "Total bot commands dispatched.",
		},
		[]string{"command"},
	)
)

func init() {
	prometheus.MustRegister(LoginTotal)
	prometheus.MustRegister(RequestTotal)
	prometheus.MustRegister(ReportDuration)
	prometheus.MustRegister(ReportRowsTotal)
	prometheus.MustRegister(CommandTotal)
}
