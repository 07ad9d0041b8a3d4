package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	messagesSent  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	featuresTotal *prometheus.CounterVec
	solvesTotal   *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slipscope_messages_sent_total",
				Help: "Total number of observations sent to backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slipscope_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "slipscope_last_price",
				Help: "Last recorded trade price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slipscope_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		featuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slipscope_features_computed_total",
				Help: "Feature computations by name and outcome",
			},
			[]string{"feature", "outcome"},
		),
		solvesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slipscope_rebalance_solves_total",
				Help: "Rebalance solves by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordMessageSent records an observation sent to a backend.
func (r *Recorder) RecordMessageSent(backend, symbol string) {
	r.messagesSent.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last trade price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordFeature records one feature computation and whether it was defined.
func (r *Recorder) RecordFeature(name string, defined bool) {
	outcome := "defined"
	if !defined {
		outcome = "undefined"
	}
	r.featuresTotal.WithLabelValues(name, outcome).Inc()
}

// RecordSolve records one rebalance solve outcome.
func (r *Recorder) RecordSolve(outcome string) {
	r.solvesTotal.WithLabelValues(outcome).Inc()
}
