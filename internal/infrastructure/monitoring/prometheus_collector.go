package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	sessionsActive prometheus.Gauge
	roomsActive    prometheus.Gauge
	analysisActive prometheus.Gauge

	signalMessagesTotal *prometheus.CounterVec
	relayDeliveries     prometheus.Counter
	relayDrops          prometheus.Counter

	framesAnalyzedTotal prometheus.Counter
	verdictsTotal       *prometheus.CounterVec
	smoothingDuration   prometheus.Histogram
}

// NewPrometheusCollector registers all gateway metrics on the given
// registerer. Passing prometheus.NewRegistry() keeps tests independent.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "veristream_signal_sessions_active",
			Help: "Number of live signaling connections",
		}),

		roomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "veristream_rooms_active",
			Help: "Number of meeting rooms with at least one participant",
		}),

		analysisActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "veristream_analysis_connections_active",
			Help: "Number of live frame-analysis connections",
		}),

		signalMessagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veristream_signal_messages_total",
			Help: "Inbound signaling messages by type",
		}, []string{"type"}),

		relayDeliveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "veristream_relay_deliveries_total",
			Help: "Signaling messages enqueued to recipients",
		}),

		relayDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "veristream_relay_drops_total",
			Help: "Signaling messages dropped because the room was gone or queues were full",
		}),

		framesAnalyzedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "veristream_frames_analyzed_total",
			Help: "Frames scored on the analysis endpoint",
		}),

		verdictsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veristream_verdicts_total",
			Help: "Per-frame verdicts by result",
		}, []string{"result"}),

		smoothingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "veristream_frame_analysis_duration_seconds",
			Help:    "Time spent scoring and smoothing one frame",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
	}
}

func (p *PrometheusCollector) RecordSessionOpened()  { p.sessionsActive.Inc() }
func (p *PrometheusCollector) RecordSessionClosed()  { p.sessionsActive.Dec() }
func (p *PrometheusCollector) RecordAnalysisOpened() { p.analysisActive.Inc() }
func (p *PrometheusCollector) RecordAnalysisClosed() { p.analysisActive.Dec() }

func (p *PrometheusCollector) RecordRoomCreated() { p.roomsActive.Inc() }
func (p *PrometheusCollector) RecordRoomDeleted() { p.roomsActive.Dec() }

func (p *PrometheusCollector) RecordSignalMessage(messageType string) {
	p.signalMessagesTotal.WithLabelValues(messageType).Inc()
}

func (p *PrometheusCollector) RecordRelay(delivered int) {
	if delivered > 0 {
		p.relayDeliveries.Add(float64(delivered))
	} else {
		p.relayDrops.Inc()
	}
}

func (p *PrometheusCollector) RecordFrameAnalyzed(isFake bool, duration time.Duration) {
	p.framesAnalyzedTotal.Inc()
	result := "authentic"
	if isFake {
		result = "fake"
	}
	p.verdictsTotal.WithLabelValues(result).Inc()
	p.smoothingDuration.Observe(duration.Seconds())
}
