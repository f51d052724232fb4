package ai

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts provider attempts by capability, provider and outcome.
type Metrics struct {
	calls *prometheus.CounterVec
}

// NewMetrics creates the provider collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cryptotherapist",
			Name:      "provider_calls_total",
			Help:      "Generation provider attempts by outcome",
		}, []string{"kind", "provider", "outcome"}),
	}
	reg.MustRegister(m.calls)
	return m
}

func (m *Metrics) observe(kind, provider, outcome string) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(kind, provider, outcome).Inc()
}
