package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters. A nil *Metrics is valid and records
// nothing, so services don't need to care whether metrics are wired.
type Metrics struct {
	transfersTotal   *prometheus.CounterVec
	transferDuration prometheus.Histogram
	withdrawalsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		transfersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_transfers_total",
				Help: "Total number of transfer attempts by outcome.",
			},
			[]string{"outcome"},
		),
		transferDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wallet_transfer_duration_seconds",
				Help:    "Duration of transfer operations in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
		withdrawalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_withdrawal_reviews_total",
				Help: "Total number of withdrawal request reviews by decision.",
			},
			[]string{"decision"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.transfersTotal,
		m.transferDuration,
		m.withdrawalsTotal,
		collectors.NewGoCollector(),
	)

	return m
}

func (m *Metrics) ObserveTransfer(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.transfersTotal.WithLabelValues(outcome).Inc()
	m.transferDuration.Observe(seconds)
}

func (m *Metrics) ObserveWithdrawalReview(decision string) {
	if m == nil {
		return
	}
	m.withdrawalsTotal.WithLabelValues(decision).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
