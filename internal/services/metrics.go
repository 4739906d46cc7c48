package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// reconcileTotal counts reconciliation attempts by outcome:
	// success, no_pending, conflict, error.
	reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_reconcile_total",
			Help: "Reconciliation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// upstreamTotal counts calls to the document-intelligence service.
	upstreamTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_upstream_requests_total",
			Help: "Calls to the document-intelligence service by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	// ingestFiles counts processed files by status: uploaded, skipped, failed.
	ingestFiles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_ingest_files_total",
			Help: "Files processed by document ingestion, by status.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(reconcileTotal, upstreamTotal, ingestFiles)
}

// upstream wraps err as an UpstreamError and records the call outcome.
func upstream(op string, err error) error {
	if err != nil {
		upstreamTotal.WithLabelValues(op, "error").Inc()
		return &UpstreamError{Op: op, Err: err}
	}
	upstreamTotal.WithLabelValues(op, "ok").Inc()
	return nil
}
