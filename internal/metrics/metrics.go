// Package metrics exposes Prometheus collectors for the personal details flows.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	ValidationFailures *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	UpdateDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "privatedetails_validation_failures_total",
			Help: "Field validation failures, by form, field and message key",
		}, []string{"form", "field", "key"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "privatedetails_submissions_total",
			Help: "Form submissions by form and outcome (invalid, failed, ok)",
		}, []string{"form", "outcome"}),
		UpdateDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "privatedetails_update_duration_seconds",
			Help:    "Duration of persistence updates, by operation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// ValidationFailed records one failure per field in errs.
func (m *Metrics) ValidationFailed(form string, errs map[string]string) {
	for field, key := range errs {
		m.ValidationFailures.WithLabelValues(form, field, key).Inc()
	}
	m.Submissions.WithLabelValues(form, "invalid").Inc()
}

// Submitted records the outcome of a submission that passed validation.
func (m *Metrics) Submitted(form string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.Submissions.WithLabelValues(form, outcome).Inc()
}

// ObserveUpdate records the duration of an update operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveUpdate(operation string, start time.Time) {
	m.UpdateDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
