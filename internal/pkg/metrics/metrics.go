// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tokenstats",
		Name:      "upstream_requests_total",
		Help:      "Requests issued to upstream APIs by upstream and HTTP status (0 for transport errors).",
	}, []string{"upstream", "status"})

	UpstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tokenstats",
		Name:      "upstream_request_duration_seconds",
		Help:      "Upstream request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"upstream"})

	PagerPages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tokenstats",
		Name:      "pager_pages_total",
		Help:      "Pages fetched by the cursor pager per resource.",
	}, []string{"resource"})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tokenstats",
		Name:      "cache_lookups_total",
		Help:      "Per-token cache lookups by slot and result (hit, load, error).",
	}, []string{"slot", "result"})

	StatComputations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tokenstats",
		Name:      "stat_computations_total",
		Help:      "Stat computations by id and outcome (ok, error).",
	}, []string{"stat", "outcome"})

	registerOnce sync.Once
)

// MustRegisterMetrics registers every collector with the default registry.
// Safe to call more than once.
func MustRegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(UpstreamRequests, UpstreamLatency, PagerPages, CacheLookups, StatComputations)
	})
}

// ObserveUpstream records one upstream round trip.
func ObserveUpstream(upstream string, status int, started time.Time) {
	UpstreamRequests.WithLabelValues(upstream, strconv.Itoa(status)).Inc()
	UpstreamLatency.WithLabelValues(upstream).Observe(time.Since(started).Seconds())
}
