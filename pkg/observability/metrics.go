package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the chat service, registered on the
// default registry and exposed via /metrics.
var (
	// ChatRequests counts chat calls by outcome ("ok", "input_error",
	// "provider_error").
	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatbot_chat_requests_total",
		Help: "Total chat requests by outcome",
	}, []string{"outcome"})

	// ChatDuration tracks end-to-end chat request latency.
	ChatDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatbot_chat_duration_seconds",
		Help:    "Chat request processing time in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// ProviderErrors counts model provider failures by kind.
	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatbot_provider_errors_total",
		Help: "Total model provider failures by kind",
	}, []string{"kind"})
)

// RegisterActiveSessions exposes the session table size as a gauge.
// Re-registration (a rebuilt container in tests) is a no-op.
func RegisterActiveSessions(count func() int) {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "chatbot_active_sessions",
		Help: "Number of sessions in the session table",
	}, func() float64 {
		return float64(count())
	})
	_ = prometheus.DefaultRegisterer.Register(gauge)
}
