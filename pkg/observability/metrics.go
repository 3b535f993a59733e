// Package observability exposes Prometheus metrics for the triage service.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pukaar_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pukaar_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Conversation metrics
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pukaar_turns_total",
			Help: "Total number of processed conversation turns",
		},
		[]string{"flow", "status"},
	)

	turnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pukaar_turn_duration_seconds",
			Help:    "Conversation turn processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"flow"},
	)

	redFlagsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pukaar_red_flags_total",
			Help: "Total number of detected red flags",
		},
		[]string{"type", "severity"},
	)

	screeningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pukaar_screenings_total",
			Help: "Total number of completed screenings",
		},
		[]string{"condition", "risk_level"},
	)

	// LLM metrics
	llmCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pukaar_llm_calls_total",
			Help: "Total number of LLM completions",
		},
		[]string{"provider", "status"},
	)

	llmCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pukaar_llm_call_duration_seconds",
			Help:    "LLM completion duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// Session metrics
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pukaar_active_sessions",
			Help: "Number of sessions created minus deleted this process",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers the Prometheus metrics. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			turnsTotal,
			turnDuration,
			redFlagsTotal,
			screeningsTotal,
			llmCallsTotal,
			llmCallDuration,
			activeSessions,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTurn records one processed conversation turn.
func RecordTurn(flow, status string, duration time.Duration) {
	turnsTotal.WithLabelValues(flow, status).Inc()
	turnDuration.WithLabelValues(flow).Observe(duration.Seconds())
}

// RecordRedFlag records a detected red flag.
func RecordRedFlag(flagType, severity string) {
	redFlagsTotal.WithLabelValues(flagType, severity).Inc()
}

// RecordScreening records a completed screening outcome.
func RecordScreening(condition, riskLevel string) {
	screeningsTotal.WithLabelValues(condition, riskLevel).Inc()
}

// RecordLLMCall records an LLM completion attempt.
func RecordLLMCall(provider, status string, duration time.Duration) {
	llmCallsTotal.WithLabelValues(provider, status).Inc()
	llmCallDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// SessionOpened increments the active session gauge.
func SessionOpened() {
	activeSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func SessionClosed() {
	activeSessions.Dec()
}
