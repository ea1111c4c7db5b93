// Package metrics provides Prometheus metrics for the vademecum API: HTTP
// request metrics plus counters for the content synchronization pipeline
// (build cycles, dropped records, snapshot cache traffic). All metrics
// register with the default registry at package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen recently)",
		},
	)

	SyncCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_cycles_total",
			Help: "Completed content synchronization cycles by outcome",
		},
		[]string{"branch", "outcome"},
	)

	RecordsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_records_dropped_total",
			Help: "Records dropped during normalization by entity kind",
		},
		[]string{"kind"},
	)

	SnapshotReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_reads_total",
			Help: "Snapshot cache reads by key and result",
		},
		[]string{"key", "result"},
	)

	EnrichmentAdditionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_enrichment_additions_total",
			Help: "Entries added by the enrichment rules by kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(SyncCyclesTotal)
	prometheus.MustRegister(RecordsDroppedTotal)
	prometheus.MustRegister(SnapshotReadsTotal)
	prometheus.MustRegister(EnrichmentAdditionsTotal)
}
