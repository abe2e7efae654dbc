package manager

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nibzard/taxocard/internal/validator"
)

// Outcome labels of taxocard_validations_total.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics counts gate decisions.
type Metrics struct {
	Validations        *prometheus.CounterVec
	Violations         *prometheus.CounterVec
	ValidationDuration prometheus.Histogram
}

// NewMetrics registers the gate metrics on reg. A nil reg creates metrics
// that are not registered anywhere.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taxocard_validations_total",
			Help: "Cards validated by the gate, by outcome",
		}, []string{"outcome"}),
		Violations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taxocard_violations_total",
			Help: "Violations found in rejected cards, by kind",
		}, []string{"kind"}),
		ValidationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxocard_validation_duration_seconds",
			Help:    "Duration of card validation",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}),
	}
	for _, outcome := range []string{OutcomeAccepted, OutcomeRejected, OutcomeError} {
		m.Validations.WithLabelValues(outcome)
	}
	for _, kind := range validator.Kinds {
		m.Violations.WithLabelValues(string(kind))
	}
	return m
}

// ObserveResult records one validation. Call with time.Now() taken before
// validating.
func (m *Metrics) ObserveResult(start time.Time, result validator.Result) {
	m.ValidationDuration.Observe(time.Since(start).Seconds())
	if result.Accepted {
		m.Validations.WithLabelValues(OutcomeAccepted).Inc()
		return
	}
	m.Validations.WithLabelValues(OutcomeRejected).Inc()
	for _, v := range result.Violations {
		m.Violations.WithLabelValues(string(v.Kind)).Inc()
	}
}

// ObserveError records a submission that failed before a verdict.
func (m *Metrics) ObserveError() {
	m.Validations.WithLabelValues(OutcomeError).Inc()
}
