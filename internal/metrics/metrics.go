package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tracking metrics
var (
	// EventsRecordedTotal counts tracking events by type and uniqueness.
	EventsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phishsim_events_recorded_total",
			Help: "Total number of tracking events recorded by type",
		},
		[]string{"event_type", "unique"},
	)

	// TrackingFailuresTotal counts internal tracking failures. The
	// public endpoints stay fail-open, so this is the only place the
	// failures surface.
	TrackingFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phishsim_tracking_failures_total",
			Help: "Total number of internal tracking failures by endpoint",
		},
		[]string{"endpoint"},
	)
)

// Capture metrics
var (
	// CredentialsCapturedTotal counts captures by flag outcome.
	CredentialsCapturedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phishsim_credentials_captured_total",
			Help: "Total number of captured credentials by review outcome",
		},
		[]string{"flagged", "duplicate"},
	)

	// CredentialRiskScore observes the distribution of risk scores.
	CredentialRiskScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "phishsim_credential_risk_score",
			Help:    "Distribution of credential risk scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	// SuspiciousAlertsTotal counts out-of-band suspicious-activity
	// alerts.
	SuspiciousAlertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "phishsim_suspicious_alerts_total",
			Help: "Total number of suspicious-activity alerts triggered",
		},
	)
)

// Delivery metrics
var (
	// DeliveriesTotal counts lure deliveries by channel and status.
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phishsim_deliveries_total",
			Help: "Total number of lure deliveries by channel and status",
		},
		[]string{"channel", "status"},
	)
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts requests by method, path and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phishsim_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "phishsim_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)
