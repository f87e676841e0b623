package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the QR login flow.
type Metrics struct {
	AttemptsStarted prometheus.Counter
	LoginsSucceeded prometheus.Counter
	LoginsFailed    *prometheus.CounterVec
	Migrations      prometheus.Counter

	exchangeDuration prometheus.Histogram
}

// New creates and registers all login metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		AttemptsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qr_gateway_login_attempts_total",
			Help: "Total number of QR login attempts started",
		}),
		LoginsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qr_gateway_logins_succeeded_total",
			Help: "Total number of QR login attempts that reached success",
		}),
		LoginsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "qr_gateway_logins_failed_total",
			Help: "Total number of QR login attempts that failed, by reason",
		}, []string{"reason"}),
		Migrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qr_gateway_login_migrations_total",
			Help: "Total number of token exchanges redirected to another data center",
		}),
		exchangeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "qr_gateway_token_exchange_duration_seconds",
			Help:    "Latency of the renewed-token exchange, scan to terminal state",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveExchange records one renewed-token exchange duration.
func (m *Metrics) ObserveExchange(d time.Duration) {
	m.exchangeDuration.Observe(d.Seconds())
}
