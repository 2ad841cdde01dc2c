// File: internal/runner/metrics.go
package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts job and login outcomes. A nil *Metrics records nothing.
type Metrics struct {
	jobs   *prometheus.CounterVec
	logins *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg. A nil reg
// keeps them unregistered, which is what tests and embedders without a
// metrics endpoint want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tubepilot",
			Name:      "jobs_total",
			Help:      "Jobs processed, by job kind and outcome.",
		}, []string{"kind", "outcome"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tubepilot",
			Name:      "logins_total",
			Help:      "Session establishments, by outcome (restored, success, failure).",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) recordJob(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.jobs.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) recordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}
