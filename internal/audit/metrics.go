package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fyrsmithlabs/parity/internal/gate"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for gate evaluations.
type Metrics struct {
	DecisionsTotal     *prometheus.CounterVec
	ViolationsTotal    *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
}

// NewMetrics creates and registers the gate metrics.
//
// This function uses sync.Once so the collectors are registered with the
// default registry exactly once per process.
//
// Metrics:
//   - parity_gate_decisions_total{outcome} - Count of decisions by outcome
//   - parity_gate_violations_total{gate,severity} - Count of violations
//   - parity_gate_evaluation_duration_seconds - Histogram of evaluation time
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			DecisionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "parity_gate_decisions_total",
					Help: "Total number of gate decisions",
				},
				[]string{"outcome"}, // "allow", "warn" or "block"
			),

			ViolationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "parity_gate_violations_total",
					Help: "Total number of gate violations",
				},
				[]string{"gate", "severity"},
			),

			EvaluationDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "parity_gate_evaluation_duration_seconds",
					Help:    "Duration of gate evaluations in seconds",
					Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
				},
			),
		}
	})
	return globalMetrics
}

// Observe records one decision.
func (m *Metrics) Observe(d gate.Decision, elapsed time.Duration) {
	m.DecisionsTotal.WithLabelValues(string(d.Outcome)).Inc()
	for _, v := range d.Violations {
		m.ViolationsTotal.WithLabelValues(v.Gate, string(v.Severity)).Inc()
	}
	m.EvaluationDuration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the default registry in textfile-collector format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
