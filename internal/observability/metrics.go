package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// Tool invocation rate per tool and outcome (success or error category).
	// Watch for: error ratio per tool, unexpected category spikes.
	ToolInvocationsTotal *prometheus.CounterVec

	// Tool latency per tool. Dominated by the two upstream calls.
	ToolDuration *prometheus.HistogramVec

	// Upstream HTTP call rate per service (knmi, nominatim) and status label.
	UpstreamRequestsTotal *prometheus.CounterVec

	// Upstream latency per service. Watch for: p95 > 5s (upstream degradation).
	UpstreamRequestDuration *prometheus.HistogramVec

	// Bundle decode outcomes: success, station_not_in_bundle, malformed.
	DecodeResultsTotal *prometheus.CounterVec

	// Geocode outcomes: success, not_found, unavailable.
	GeocodeResultsTotal *prometheus.CounterVec

	// Distance from resolved coordinate to the chosen station. Watch for:
	// values far above ~40km suggest a geocode outside the station network.
	StationDistanceKm prometheus.Histogram

	// Diagnostic HTTP endpoint traffic (health/metrics listener).
	HTTPRequestsTotal *prometheus.CounterVec

	// Diagnostic HTTP latency per route.
	HTTPRequestDuration *prometheus.HistogramVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	ToolInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolInvocationsTotal",
			Help: "Total number of MCP tool invocations",
		},
		[]string{"tool", "outcome"},
	)
	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolDurationSeconds",
			Help:    "MCP tool latency in seconds (per invocation)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"tool"},
	)
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamRequestsTotal",
			Help: "Total number of upstream API calls (knmi, nominatim)",
		},
		[]string{"service", "status"},
	)
	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstreamRequestDurationSeconds",
			Help:    "Upstream API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service"},
	)
	DecodeResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decodeResultsTotal",
			Help: "Observation bundle decode outcomes",
		},
		[]string{"outcome"},
	)
	GeocodeResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocodeResultsTotal",
			Help: "Geocoding outcomes (success, not_found, unavailable)",
		},
		[]string{"outcome"},
	)
	StationDistanceKm = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stationDistanceKm",
			Help:    "Great-circle distance from resolved coordinate to chosen station",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of diagnostic HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "Diagnostic HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	registry.MustRegister(
		ToolInvocationsTotal, ToolDuration,
		UpstreamRequestsTotal, UpstreamRequestDuration,
		DecodeResultsTotal, GeocodeResultsTotal, StationDistanceKm,
		HTTPRequestsTotal, HTTPRequestDuration,
	)
}

// StatusLabel maps an HTTP status code to a stable metric label.
func StatusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
