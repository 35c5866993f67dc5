package prefs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Read sources reported by Metrics.
const (
	sourceEngine     = "engine"
	sourceRegistered = "registered"
	sourceRule       = "rule"
	sourceMissing    = "missing"
)

// Metrics counts preference reads and writes. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	reads  *prometheus.CounterVec
	writes *prometheus.CounterVec
}

// NewMetrics registers the preference collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		reads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foundation_preference_reads_total",
			Help: "Preference lookups by suite and the layer that answered them.",
		}, []string{"suite", "source"}),
		writes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foundation_preference_writes_total",
			Help: "Preference commits by suite, stored kind and outcome.",
		}, []string{"suite", "kind", "result"}),
	}
}

func (m *Metrics) observeRead(suite, source string) {
	if m == nil {
		return
	}
	m.reads.WithLabelValues(suite, source).Inc()
}

func (m *Metrics) observeWrite(suite, kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.writes.WithLabelValues(suite, kind, result).Inc()
}
