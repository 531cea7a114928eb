// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec

	// Check metrics
	ChecksTotal       *prometheus.CounterVec
	CheckDuration     prometheus.Histogram
	ScoreDistribution prometheus.Histogram
	RiskLevels        *prometheus.CounterVec

	// Limit metrics
	LimitDecisions *prometheus.CounterVec

	// Health metrics
	LastSuccessfulCheck prometheus.Gauge
	UptimeSeconds       prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solguard"
	}

	return &Metrics{
		// Provider metrics
		ProviderRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total number of provider fetches by provider and outcome",
		}, []string{"provider", "outcome"}),
		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "request_latency_seconds",
			Help:      "Provider fetch latency in seconds, attempts included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),

		// Check metrics
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "runs_total",
			Help:      "Total number of token checks by result",
		}, []string{"result"}),
		CheckDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "duration_seconds",
			Help:      "Token check duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		ScoreDistribution: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "score",
			Help:      "Distribution of computed risk scores",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		RiskLevels: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "risk_levels_total",
			Help:      "Total number of checks by resulting risk level",
		}, []string{"level"}),

		// Limit metrics
		LimitDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "limits",
			Name:      "decisions_total",
			Help:      "Total number of usage gate decisions",
		}, []string{"decision"}),

		// Health metrics
		LastSuccessfulCheck: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_check_timestamp",
			Help:      "Unix timestamp of last successful token check",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordProviderRequest records one provider fetch outcome with latency.
func RecordProviderRequest(provider, outcome string, seconds float64) {
	DefaultMetrics.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	DefaultMetrics.ProviderLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordCheck records one completed token check.
func RecordCheck(result string, seconds float64) {
	DefaultMetrics.ChecksTotal.WithLabelValues(result).Inc()
	DefaultMetrics.CheckDuration.Observe(seconds)
}

// RecordScore records a computed risk score and its level.
func RecordScore(score int, level string) {
	DefaultMetrics.ScoreDistribution.Observe(float64(score))
	DefaultMetrics.RiskLevels.WithLabelValues(level).Inc()
}

// RecordLimitDecision records a usage gate decision.
func RecordLimitDecision(allowed bool) {
	decision := "allowed"
	if !allowed {
		decision = "denied"
	}
	DefaultMetrics.LimitDecisions.WithLabelValues(decision).Inc()
}

// MarkSuccessfulCheck updates the last successful check timestamp.
func MarkSuccessfulCheck(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulCheck.Set(float64(unixSeconds))
}

// AddUptime advances the uptime counter by the given number of seconds.
func AddUptime(seconds float64) {
	DefaultMetrics.UptimeSeconds.Add(seconds)
}
