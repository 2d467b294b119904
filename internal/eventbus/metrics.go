package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector отдаёт счётчики шины Prometheus в момент сбора.
// Значения берутся из Metrics() напрямую, фоновой горутины нет.
type MetricsCollector struct {
	bus  EventBus
	kind string

	published *prometheus.Desc
	consumed  *prometheus.Desc
	dropped   *prometheus.Desc
	inflight  *prometheus.Desc
}

// NewMetricsCollector создаёт коллектор; kind попадает в метку bus (memory, jetstream)
func NewMetricsCollector(bus EventBus, kind string) *MetricsCollector {
	labels := []string{"bus"}
	return &MetricsCollector{
		bus:       bus,
		kind:      kind,
		published: prometheus.NewDesc("eventbus_messages_published_total", "Опубликовано сообщений.", labels, nil),
		consumed:  prometheus.NewDesc("eventbus_messages_consumed_total", "Доставлено сообщений подписчикам.", labels, nil),
		dropped:   prometheus.NewDesc("eventbus_messages_dropped_total", "Сообщений, отброшенных из-за ошибок или переполнения.", labels, nil),
		inflight:  prometheus.NewDesc("eventbus_messages_inflight", "Сообщений в буфере шины.", labels, nil),
	}
}

// RegisterMetrics регистрирует коллектор шины в reg
func RegisterMetrics(bus EventBus, kind string, reg prometheus.Registerer) error {
	return reg.Register(NewMetricsCollector(bus, kind))
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.published
	ch <- c.consumed
	ch <- c.dropped
	ch <- c.inflight
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.bus.Metrics()
	ch <- prometheus.MustNewConstMetric(c.published, prometheus.CounterValue, float64(s.Published), c.kind)
	ch <- prometheus.MustNewConstMetric(c.consumed, prometheus.CounterValue, float64(s.Consumed), c.kind)
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped), c.kind)
	ch <- prometheus.MustNewConstMetric(c.inflight, prometheus.GaugeValue, float64(s.InFlight), c.kind)
}
