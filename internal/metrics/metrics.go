package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Payment webhook metrics

	WebhookEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premium",
		Name:      "webhook_events_total",
		Help:      "Stripe webhook events received, by type and outcome.",
	}, []string{"type", "outcome"})

	WebhookSignatureFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "premium",
		Name:      "webhook_signature_failures_total",
		Help:      "Webhook requests rejected for a bad signature.",
	})

	// Auth / checkout metrics

	EmailsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premium",
		Name:      "emails_sent_total",
		Help:      "Magic-link emails attempted, by outcome.",
	}, []string{"outcome"})

	CheckoutSessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premium",
		Name:      "checkout_sessions_total",
		Help:      "Stripe checkout sessions created, by outcome.",
	}, []string{"outcome"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "premium",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premium",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		WebhookEventsTotal,
		WebhookSignatureFailuresTotal,
		EmailsSentTotal,
		CheckoutSessionsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// readinessChecker is satisfied by *health.Checker.
type readinessChecker interface {
	LivenessHandler(w http.ResponseWriter, r *http.Request)
	ReadinessHandler(w http.ResponseWriter, r *http.Request)
}

// NewServer serves /metrics plus liveness/readiness probes on a separate
// port, away from the public API.
func NewServer(addr string, checker readinessChecker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", checker.LivenessHandler)
	mux.HandleFunc("/readyz", checker.ReadinessHandler)
	return &http.Server{Addr: addr, Handler: mux}
}
