package telemetry

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metric names.
const (
	MetricAPIRequestsTotal    = "books_api_requests_total"
	MetricAPIRequestDuration  = "books_api_request_duration_seconds"
	MetricLoaderResultsTotal  = "books_loader_results_total"
	MetricMutationsTotal      = "books_mutations_total"
	MetricSessionRefreshTotal = "books_session_refreshes_total"
)

// Loader and mutation outcomes
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
	OutcomeStale    = "stale"
	OutcomeRejected = "rejected"
)

// Metrics collects client-side metrics in a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests      *prometheus.CounterVec
	apiDuration      *prometheus.HistogramVec
	loaderResults    *prometheus.CounterVec
	mutations        *prometheus.CounterVec
	sessionRefreshes *prometheus.CounterVec
}

// NewMetrics creates and registers the client metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricAPIRequestsTotal,
			Help: "Total number of requests sent to the accounting backend.",
		}, []string{"method", "resource", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricAPIRequestDuration,
			Help:    "Duration of requests to the accounting backend in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "resource"}),
		loaderResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricLoaderResultsTotal,
			Help: "Screen data loads by outcome.",
		}, []string{"screen", "outcome"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricMutationsTotal,
			Help: "Dispatched mutations by outcome.",
		}, []string{"mutation", "outcome"}),
		sessionRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSessionRefreshTotal,
			Help: "Access token refresh attempts by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.apiRequests, m.apiDuration, m.loaderResults, m.mutations, m.sessionRefreshes)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one backend request. status 0 means the request
// never got a response.
func (m *Metrics) ObserveRequest(method, resource string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.apiRequests.WithLabelValues(method, resource, label).Inc()
	m.apiDuration.WithLabelValues(method, resource).Observe(elapsed.Seconds())
}

// LoaderResult records the outcome of a screen load
func (m *Metrics) LoaderResult(screen, outcome string) {
	if m == nil {
		return
	}
	m.loaderResults.WithLabelValues(screen, outcome).Inc()
}

// Mutation records the outcome of a dispatched mutation
func (m *Metrics) Mutation(name, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(name, outcome).Inc()
}

// SessionRefresh records the outcome of a token refresh
func (m *Metrics) SessionRefresh(outcome string) {
	if m == nil {
		return
	}
	m.sessionRefreshes.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes the current metrics in the text exposition format,
// suitable for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
