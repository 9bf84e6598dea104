package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the report lifecycle.
type Metrics struct {
	ReportsSubmitted  prometheus.Counter
	ReportsPublished  *prometheus.CounterVec
	PublishRejections *prometheus.CounterVec
}

// New creates and registers all report lifecycle metrics.
func New() *Metrics {
	return &Metrics{
		ReportsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "patrimonio_reports_submitted_total",
			Help: "Total number of site reports submitted",
		}),
		ReportsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "patrimonio_reports_published_total",
			Help: "Total number of reports published, by sensitivity code",
		}, []string{"sensitivity_code"}),
		PublishRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "patrimonio_publish_rejections_total",
			Help: "Publish attempts rejected, by reason",
		}, []string{"reason"}),
	}
}

// ObservePublished increments the published counter for a sensitivity code.
func (m *Metrics) ObservePublished(code string) {
	m.ReportsPublished.WithLabelValues(code).Inc()
}

// ObservePublishRejected increments the rejection counter for a reason.
func (m *Metrics) ObservePublishRejected(reason string) {
	m.PublishRejections.WithLabelValues(reason).Inc()
}
