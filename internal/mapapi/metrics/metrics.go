package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for map queries.
type Metrics struct {
	ViewportQueries prometheus.Counter
	SitesServed     *prometheus.CounterVec
	OffsetFailures  prometheus.Counter
}

// New creates and registers all map query metrics.
func New() *Metrics {
	return &Metrics{
		ViewportQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "patrimonio_map_viewport_queries_total",
			Help: "Total number of map viewport queries served",
		}),
		SitesServed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "patrimonio_map_sites_served_total",
			Help: "Sites included in map responses, by representation",
		}, []string{"representation"}),
		OffsetFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "patrimonio_map_offset_failures_total",
			Help: "Sites dropped because their fuzzy offset could not be resolved",
		}),
	}
}

// ObserveSite increments the served counter for a representation.
func (m *Metrics) ObserveSite(representation string) {
	m.SitesServed.WithLabelValues(representation).Inc()
}
