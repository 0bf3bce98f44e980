package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Page fetches
	PagesFetched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_pages_fetched_total",
		Help: "The total number of page fetches by mode and outcome",
	}, []string{"mode", "outcome"})

	FetchLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orderdesk_fetch_latency_seconds",
		Help:    "The latency of page fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	StaleResults = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orderdesk_stale_results_total",
		Help: "The total number of fetch results discarded because a newer request superseded them",
	})

	// Ingestion
	RowsIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_rows_ingested_total",
		Help: "The total number of spreadsheet rows by result",
	}, []string{"result"})

	IngestBatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_ingest_batches_total",
		Help: "The total number of ingestion batches by outcome",
	}, []string{"outcome"})

	IngestLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orderdesk_ingest_latency_seconds",
		Help:    "The latency of a full ingestion batch",
		Buckets: prometheus.DefBuckets,
	})

	// HTTP
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_http_requests_total",
		Help: "The total number of HTTP requests by method and status class",
	}, []string{"method", "class"})

	HTTPLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orderdesk_http_request_duration_seconds",
		Help:    "The latency of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// Sessions
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orderdesk_sessions_active",
		Help: "The number of live pagination sessions in the memory store",
	})
)

func init() {
	prometheus.MustRegister(PagesFetched)
	prometheus.MustRegister(FetchLatency)
	prometheus.MustRegister(StaleResults)
	prometheus.MustRegister(RowsIngested)
	prometheus.MustRegister(IngestBatches)
	prometheus.MustRegister(IngestLatency)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPLatency)
	prometheus.MustRegister(ActiveSessions)
}

// ObserveFetch records one page fetch.
func ObserveFetch(mode, outcome string, started time.Time) {
	PagesFetched.WithLabelValues(mode, outcome).Inc()
	FetchLatency.WithLabelValues(mode).Observe(time.Since(started).Seconds())
}

// ObserveIngest records one ingestion batch.
func ObserveIngest(outcome string, accepted, skipped int, started time.Time) {
	IngestBatches.WithLabelValues(outcome).Inc()
	RowsIngested.WithLabelValues("accepted").Add(float64(accepted))
	RowsIngested.WithLabelValues("skipped").Add(float64(skipped))
	IngestLatency.Observe(time.Since(started).Seconds())
}

// ObserveHTTP records one served request.
func ObserveHTTP(method string, status int, elapsed time.Duration) {
	class := "5xx"
	switch {
	case status < 300:
		class = "2xx"
	case status < 400:
		class = "3xx"
	case status < 500:
		class = "4xx"
	}
	HTTPRequests.WithLabelValues(method, class).Inc()
	HTTPLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}
