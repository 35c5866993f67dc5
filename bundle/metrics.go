package bundle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultHit       = "hit"
	resultMiss      = "miss"
	resultDirectory = "directory"
)

// Metrics counts resource lookups and table loads. A nil *Metrics records
// nothing.
type Metrics struct {
	lookups *prometheus.CounterVec
	tables  *prometheus.CounterVec
}

// NewMetrics registers the bundle collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foundation_bundle_lookups_total",
			Help: "Resource lookups by bundle location kind and result.",
		}, []string{"location", "result"}),
		tables: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foundation_bundle_table_loads_total",
			Help: "Localized string table loads by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) observeLookup(location, result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(location, result).Inc()
}

func (m *Metrics) observeTable(result string) {
	if m == nil {
		return
	}
	m.tables.WithLabelValues(result).Inc()
}
