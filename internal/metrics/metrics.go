// Package metrics exposes Prometheus collectors for searches and upstream calls.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gistapi"

// Upstream operation labels
const (
	OpListSnippets = "list_gists"
	OpFetchDetail  = "fetch_gist"
	OpFetchRaw     = "fetch_raw"
)

// Metrics holds the service collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	searches         *prometheus.CounterVec
	searchDuration   prometheus.Histogram
	matches          prometheus.Counter
	upstreamRequests *prometheus.CounterVec
}

// New creates the collectors and registers them together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches by outcome (success, failure, error)",
		}, []string{"outcome"}),
		searchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Wall time of a complete search",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		matches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Match URLs returned across all searches",
		}),
		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the gists API by operation and status code",
		}, []string{"operation", "code"}),
	}
}

// ObserveSearch records one finished search. outcome is the result status or "error".
func (m *Metrics) ObserveSearch(outcome string, elapsed time.Duration, matches int) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
	m.searchDuration.Observe(elapsed.Seconds())
	m.matches.Add(float64(matches))
}

// ObserveUpstream records one upstream request. A code of 0 means no response was received.
func (m *Metrics) ObserveUpstream(operation string, code int) {
	if m == nil {
		return
	}
	label := "transport_error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.upstreamRequests.WithLabelValues(operation, label).Inc()
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
