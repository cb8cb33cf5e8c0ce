package monitoring

import (
	"courtstream/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements ports.MetricsCollector.
type PrometheusCollector struct {
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	roomViewers       *prometheus.GaugeVec
	relayMessages     *prometheus.CounterVec
	uploadBytes       prometheus.Counter
	uploadsTotal      prometheus.Counter
	rendersTotal      *prometheus.CounterVec
	renderDuration    prometheus.Histogram
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		connectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "courtstream_connections_active",
			Help: "Number of live websocket connections",
		}),

		connectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "courtstream_connections_total",
			Help: "Total number of websocket connections accepted",
		}),

		roomViewers: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "courtstream_room_viewers",
			Help: "Current viewer count per room",
		}, []string{"room"}),

		relayMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "courtstream_relay_messages_total",
			Help: "Point-to-point messages relayed, by event",
		}, []string{"event"}),

		uploadBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "courtstream_iso_upload_bytes_total",
			Help: "Total bytes of ISO captures uploaded",
		}),

		uploadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "courtstream_iso_uploads_total",
			Help: "Total ISO capture uploads accepted",
		}),

		rendersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "courtstream_renders_total",
			Help: "Render jobs by terminal status",
		}, []string{"status"}),

		renderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "courtstream_render_duration_seconds",
			Help:    "Wall time of render jobs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

func (p *PrometheusCollector) RecordConnection() {
	p.connectionsActive.Inc()
	p.connectionsTotal.Inc()
}

func (p *PrometheusCollector) RecordDisconnect() {
	p.connectionsActive.Dec()
}

func (p *PrometheusCollector) SetViewerCount(room domain.RoomID, n int) {
	p.roomViewers.WithLabelValues(string(room)).Set(float64(n))
}

func (p *PrometheusCollector) RecordRelayMessage(event string) {
	p.relayMessages.WithLabelValues(event).Inc()
}

func (p *PrometheusCollector) RecordUpload(bytes int64) {
	p.uploadsTotal.Inc()
	p.uploadBytes.Add(float64(bytes))
}

func (p *PrometheusCollector) RecordRender(status string, seconds float64) {
	p.rendersTotal.WithLabelValues(status).Inc()
	p.renderDuration.Observe(seconds)
}
