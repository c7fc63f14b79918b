package metrics

import "github.com/prometheus/client_golang/prometheus"

// MailMetrics counts verification mail outcomes on the producer and consumer sides.
type MailMetrics struct {
	enqueued  *prometheus.CounterVec
	delivered *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

func NewMailMetrics(reg prometheus.Registerer) *MailMetrics {
	if reg == nil {
		return &MailMetrics{}
	}
	enqueued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_enqueued_total",
		Help:      "Mail messages pushed onto the stream.",
	}, []string{"kind"})
	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_delivered_total",
		Help:      "Mail messages handed to the provider.",
	}, []string{"provider"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_failed_total",
		Help:      "Mail messages the provider rejected.",
	}, []string{"provider"})
	reg.MustRegister(enqueued, delivered, failed)
	return &MailMetrics{enqueued: enqueued, delivered: delivered, failed: failed}
}

func (m *MailMetrics) IncEnqueued(kind string) {
	if m == nil || m.enqueued == nil {
		return
	}
	m.enqueued.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *MailMetrics) IncDelivered(provider string) {
	if m == nil || m.delivered == nil {
		return
	}
	m.delivered.WithLabelValues(normalizeLabel(provider)).Inc()
}

func (m *MailMetrics) IncFailed(provider string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(provider)).Inc()
}
