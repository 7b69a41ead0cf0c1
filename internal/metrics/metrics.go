// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "jellybridge"

var (
	AvailabilityChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "availability_checks_total",
		Help:      "Availability checks by verdict.",
	}, []string{"verdict"})

	URLProbesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "url_probes_total",
		Help:      "Local URL reachability probes by target and result.",
	}, []string{"target", "result"})

	URLCacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "url_cache_lookups_total",
		Help:      "URL resolution cache lookups by result (hit, miss).",
	}, []string{"result"})

	EnrichLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrich_lookups_total",
		Help:      "Per-result deep-link lookups during enrichment by result.",
	}, []string{"result"})

	LookupDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lookup_duration_seconds",
		Help:      "Duration of engine operations in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	}, []string{"operation"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "API requests by method, route and status code.",
	}, []string{"method", "route", "status"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		AvailabilityChecksTotal,
		URLProbesTotal,
		URLCacheLookupsTotal,
		EnrichLookupsTotal,
		LookupDuration,
		HTTPRequestsTotal,
	)
}

// ObserveSince records the time elapsed since start under operation.
func ObserveSince(operation string, start time.Time) {
	LookupDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
