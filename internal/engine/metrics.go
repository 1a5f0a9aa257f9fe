package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bananapics",
			Subsystem: "engine",
			Name:      "submissions_total",
			Help:      "Total generation submissions by mode",
		},
		[]string{"mode"},
	)

	submitErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bananapics",
			Subsystem: "engine",
			Name:      "submit_errors_total",
			Help:      "Total failed submissions",
		},
	)

	pollTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bananapics",
			Subsystem: "engine",
			Name:      "poll_ticks_total",
			Help:      "Total reconciliation poll ticks",
		},
	)

	pollTickErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bananapics",
			Subsystem: "engine",
			Name:      "poll_tick_errors_total",
			Help:      "Total poll ticks that failed and were swallowed",
		},
	)

	attachmentRejectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bananapics",
			Subsystem: "engine",
			Name:      "attachment_rejections_total",
			Help:      "Total rejected composer attachments by reason",
		},
		[]string{"reason"},
	)

	toastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bananapics",
			Subsystem: "engine",
			Name:      "toasts_total",
			Help:      "Total toasts pushed by type",
		},
		[]string{"type"},
	)

	generatingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bananapics",
			Subsystem: "engine",
			Name:      "records_generating",
			Help:      "Number of records currently generating",
		},
	)
)

func init() {
	prometheus.MustRegister(
		submissionsTotal,
		submitErrorsTotal,
		pollTicksTotal,
		pollTickErrorsTotal,
		attachmentRejectsTotal,
		toastsTotal,
		generatingGauge,
	)
}
