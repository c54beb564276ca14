package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal     *prometheus.CounterVec
	decisionsTotal *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
	stake          *prometheus.GaugeVec
	balance        *prometheus.GaugeVec
	recoveryStep   *prometheus.GaugeVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digitpulse_ticks_total",
				Help: "Total number of ticks ingested",
			},
			[]string{"symbol"},
		),
		decisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digitpulse_decisions_total",
				Help: "Total number of settled decisions",
			},
			[]string{"symbol", "family", "outcome"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "digitpulse_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		stake: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "digitpulse_current_stake",
				Help: "Stake of the most recent decision per bot",
			},
			[]string{"bot_id"},
		),
		balance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "digitpulse_balance",
				Help: "Current simulated or live balance per bot",
			},
			[]string{"bot_id"},
		),
		recoveryStep: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "digitpulse_recovery_step",
				Help: "Current martingale recovery step per bot",
			},
			[]string{"bot_id"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digitpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "digitpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTick records one ingested tick and its price.
func (r *Recorder) RecordTick(symbol string, price float64) {
	r.ticksTotal.WithLabelValues(symbol).Inc()
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordDecision records a settled decision by family and outcome.
func (r *Recorder) RecordDecision(symbol, family, outcome string) {
	r.decisionsTotal.WithLabelValues(symbol, family, outcome).Inc()
}

// RecordStake records the stake of the latest decision.
func (r *Recorder) RecordStake(botID string, stake float64) {
	r.stake.WithLabelValues(botID).Set(stake)
}

// RecordBalance records the bot balance after settlement.
func (r *Recorder) RecordBalance(botID string, balance float64) {
	r.balance.WithLabelValues(botID).Set(balance)
}

// RecordRecoveryStep records the current recovery depth.
func (r *Recorder) RecordRecoveryStep(botID string, step int) {
	r.recoveryStep.WithLabelValues(botID).Set(float64(step))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
