package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_messages_processed_total",
			Help: "Total number of messages processed by the forwarding pipeline (count)",
		},
		[]string{"status"},
	)

	DeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_delivery_duration_ms",
			Help:    "Duration of delivery sink calls in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"status"},
	)

	CheckIterationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_check_iterations_total",
			Help: "Total number of monitoring loop iterations (count)",
		},
		[]string{"status"},
	)

	SourceRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_source_records_total",
			Help: "Total number of records drawn from the message source (count)",
		},
		[]string{"status"},
	)

	LedgerSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_ledger_size",
			Help: "Approximate number of identifiers held by the dedup ledger (count)",
		},
	)

	LedgerFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_ledger_fallback_total",
			Help: "Total number of ledger errors resolved by the configured fallback (count)",
		},
		[]string{"decision"},
	)

	SendRateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_send_rate_limited_total",
			Help: "Total number of sends delayed by the outbound rate limiter (count)",
		},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)
)

func RegisterBridgeMetrics() {
	prometheus.MustRegister(
		MessagesProcessedTotal,
		DeliveryDuration,
		CheckIterationsTotal,
		SourceRecordsTotal,
		LedgerSize,
		LedgerFallbackTotal,
		SendRateLimitedTotal,
	)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(
		CircuitBreakerState,
		CircuitBreakerRequests,
		CircuitBreakerFailures,
	)
}

func ObserveDeliveryDuration(d time.Duration, status string) {
	DeliveryDuration.WithLabelValues(status).Observe(float64(d.Milliseconds()))
}

func SetLedgerSize(size int) {
	LedgerSize.Set(float64(size))
}
