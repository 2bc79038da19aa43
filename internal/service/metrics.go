package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the business counters of the ledger services. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	LedgerMutations  *prometheus.CounterVec
	LedgerLatency    *prometheus.HistogramVec
	LockTimeouts     prometheus.Counter
	SettlementEvents *prometheus.CounterVec
	ExchangeSagas    *prometheus.CounterVec
	PointsCredits    *prometheus.CounterVec
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		LedgerMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_mutations_total",
				Help: "Total wallet mutations by operation and status.",
			},
			[]string{"op", "status"},
		),
		LedgerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_mutation_duration_seconds",
				Help:    "Wallet mutation duration in seconds, lock wait included.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		LockTimeouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_lock_timeouts_total",
				Help: "Wallet lock acquisitions that exhausted their retries.",
			},
		),
		SettlementEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_events_total",
				Help: "Custody events handled by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		ExchangeSagas: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_saga_total",
				Help: "Exchange saga attempts by outcome.",
			},
			[]string{"outcome"},
		),
		PointsCredits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "points_credits_total",
				Help: "Points credit requests by outcome.",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(m.LedgerMutations, m.LedgerLatency, m.LockTimeouts,
		m.SettlementEvents, m.ExchangeSagas, m.PointsCredits)
	return m
}

func (m *Metrics) ObserveMutation(op, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LedgerMutations.WithLabelValues(op, status).Inc()
	m.LedgerLatency.WithLabelValues(op).Observe(duration.Seconds())
}

func (m *Metrics) IncLockTimeout() {
	if m == nil {
		return
	}
	m.LockTimeouts.Inc()
}

func (m *Metrics) IncSettlementEvent(kind, outcome string) {
	if m == nil {
		return
	}
	m.SettlementEvents.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) IncExchangeSaga(outcome string) {
	if m == nil {
		return
	}
	m.ExchangeSagas.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncPointsCredit(outcome string) {
	if m == nil {
		return
	}
	m.PointsCredits.WithLabelValues(outcome).Inc()
}
