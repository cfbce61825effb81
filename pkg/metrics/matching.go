package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MatchingMetrics counts the state transitions applied by the matching engine.
type MatchingMetrics struct {
	transitions *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
}

// NewMatchingMetrics registers the matching counters on the provided registerer.
func NewMatchingMetrics(reg prometheus.Registerer) *MatchingMetrics {
	if reg == nil {
		return &MatchingMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matching_transitions_total",
		Help: "Successful matching state transitions.",
	}, []string{"role", "from", "to"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matching_conflicts_total",
		Help: "Matching operations that lost an optimistic concurrency race.",
	}, []string{"role", "operation"})
	reg.MustRegister(transitions, conflicts)
	return &MatchingMetrics{
		transitions: transitions,
		conflicts:   conflicts,
	}
}

// IncTransition records one applied transition edge.
func (m *MatchingMetrics) IncTransition(role, from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(role), normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncConflict records one version-conflict outcome for the named operation.
func (m *MatchingMetrics) IncConflict(role, operation string) {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.WithLabelValues(normalizeLabel(role), normalizeLabel(operation)).Inc()
}
