package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// #region metrics
var (
	// dialogTransitionsTotal counts state machine transitions.
	// Labels: from, to (dialog state names)
	dialogTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jalsathi",
		Subsystem: "dialog",
		Name:      "transitions_total",
		Help:      "Dialog state transitions by source and target state",
	}, []string{"from", "to"})

	// dialogQueriesTotal counts executed data queries by outcome
	// (ok, transport, not_found, server, unknown).
	dialogQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jalsathi",
		Subsystem: "dialog",
		Name:      "queries_total",
		Help:      "Executed data queries by outcome",
	}, []string{"outcome"})

	// metadataCacheLookupsTotal counts reference lookups.
	// Labels: level (states, districts, blocks), result (hit, miss)
	metadataCacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jalsathi",
		Subsystem: "metadata",
		Name:      "cache_lookups_total",
		Help:      "Reference metadata lookups by level and cache result",
	}, []string{"level", "result"})

	dataserviceRequestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jalsathi",
		Subsystem: "dataservice",
		Name:      "request_duration_seconds",
		Help:      "Data service request latency by endpoint and HTTP status",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint", "status"})
)

// #endregion metrics

// ObserveTransition records one dialog transition.
func ObserveTransition(from, to string) {
	dialogTransitionsTotal.WithLabelValues(from, to).Inc()
}

// ObserveQuery records the outcome of one data query.
func ObserveQuery(outcome string) {
	dialogQueriesTotal.WithLabelValues(outcome).Inc()
}

// ObserveCacheLookup records a metadata cache hit or miss.
func ObserveCacheLookup(level string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	metadataCacheLookupsTotal.WithLabelValues(level, result).Inc()
}

// ObserveRequest records a data service round trip. status 0 means the
// request never produced a response.
func ObserveRequest(endpoint string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	dataserviceRequestSeconds.WithLabelValues(endpoint, label).Observe(elapsed.Seconds())
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
