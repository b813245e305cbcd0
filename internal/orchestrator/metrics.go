package orchestrator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cryptofunk/engine/internal/state"
)

// Metrics exposes Prometheus counters/gauges for graph execution,
// registered exactly once via sync.Once, matching the singleton pattern
// in ajitpratap0-cryptofunk/internal/risk/circuit_breaker.go.
type Metrics struct {
	nodeExecutions *prometheus.CounterVec
	nodeErrors     *prometheus.CounterVec
	decisions      *prometheus.CounterVec
	confidence     prometheus.Histogram
}

var (
	globalOrchestratorMetrics *Metrics
	orchestratorMetricsOnce   sync.Once
)

func newMetrics() *Metrics {
	orchestratorMetricsOnce.Do(func() {
		globalOrchestratorMetrics = &Metrics{
			nodeExecutions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "orchestrator_node_executions_total",
					Help: "Total executions per decision graph node",
				},
				[]string{"node"},
			),
			nodeErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "orchestrator_node_errors_total",
					Help: "Total errors per decision graph node",
				},
				[]string{"node"},
			),
			decisions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "orchestrator_decisions_total",
					Help: "Total final decisions by action",
				},
				[]string{"action"},
			),
			confidence: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "orchestrator_decision_confidence",
					Help:    "Confidence of final decisions",
					Buckets: prometheus.LinearBuckets(0, 0.1, 11),
				},
			),
		}
	})
	return globalOrchestratorMetrics
}

func (m *Metrics) recordNode(name string, ok bool) {
	if m == nil {
		return
	}
	m.nodeExecutions.WithLabelValues(name).Inc()
	if !ok {
		m.nodeErrors.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) recordDecision(s *state.DecisionState) {
	if m == nil || s.FinalDecision == nil {
		return
	}
	m.decisions.WithLabelValues(s.FinalDecision.Action).Inc()
	m.confidence.Observe(s.FinalDecision.Confidence)
}
