// Package metrics exposes Prometheus instrumentation for the sender and
// receiver sides of a stream. All helper methods are nil-safe so callers can
// run without metrics (library embedding, tests) by passing a nil collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "framecast"

// Sender holds the metrics of the encoding/transmitting side.
type Sender struct {
	FramesTotal     *prometheus.CounterVec
	BytesTotal      prometheus.Counter
	DroppedTotal    prometheus.Counter
	ConnectAttempts prometheus.Counter
	ConnectFailures prometheus.Counter
	AcksTotal       prometheus.Counter
}

// NewSender registers and returns the sender metrics. A nil registerer uses
// the default registry.
func NewSender(reg prometheus.Registerer) *Sender {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Sender{
		FramesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sender",
			Name:      "frames_total",
			Help:      "Stream frames sent, by encoding mode.",
		}, []string{"mode"}),
		BytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sender",
			Name:      "bytes_total",
			Help:      "Wire bytes handed to the transport.",
		}),
		DroppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sender",
			Name:      "dropped_frames_total",
			Help:      "Frames dropped due to codec failures.",
		}),
		ConnectAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sender",
			Name:      "connect_attempts_total",
			Help:      "Outbound connect attempts.",
		}),
		ConnectFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sender",
			Name:      "connect_failures_total",
			Help:      "Outbound connect attempts that failed.",
		}),
		AcksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sender",
			Name:      "acks_total",
			Help:      "Acknowledgment bytes read from the receiver.",
		}),
	}
}

// FrameSent records one sent frame of the given mode and its wire size.
func (s *Sender) FrameSent(mode string, wireBytes int) {
	if s == nil {
		return
	}
	s.FramesTotal.WithLabelValues(mode).Inc()
	s.BytesTotal.Add(float64(wireBytes))
}

// FrameDropped records a frame lost to a codec failure.
func (s *Sender) FrameDropped() {
	if s == nil {
		return
	}
	s.DroppedTotal.Inc()
}

// ConnectAttempt records a dial attempt and its outcome.
func (s *Sender) ConnectAttempt(ok bool) {
	if s == nil {
		return
	}
	s.ConnectAttempts.Inc()
	if !ok {
		s.ConnectFailures.Inc()
	}
}

// AckReceived records a non-zero acknowledgment byte.
func (s *Sender) AckReceived() {
	if s == nil {
		return
	}
	s.AcksTotal.Inc()
}

// Receiver holds the metrics of the decoding/viewing side.
type Receiver struct {
	FramesTotal   *prometheus.CounterVec
	BytesTotal    prometheus.Counter
	ApplyErrors   prometheus.Counter
	ViewerClients prometheus.Gauge
}

// NewReceiver registers and returns the receiver metrics. A nil registerer
// uses the default registry.
func NewReceiver(reg prometheus.Registerer) *Receiver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Receiver{
		FramesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "receiver",
			Name:      "frames_total",
			Help:      "Stream frames received, by encoding mode.",
		}, []string{"mode"}),
		BytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "receiver",
			Name:      "bytes_total",
			Help:      "Payload bytes received.",
		}),
		ApplyErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "receiver",
			Name:      "apply_errors_total",
			Help:      "Frames that failed to decode or apply to the canvas.",
		}),
		ViewerClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "receiver",
			Name:      "viewer_clients",
			Help:      "Connected websocket viewer clients.",
		}),
	}
}

// FrameReceived records one received frame of the given mode and payload size.
func (r *Receiver) FrameReceived(mode string, payloadBytes int) {
	if r == nil {
		return
	}
	r.FramesTotal.WithLabelValues(mode).Inc()
	r.BytesTotal.Add(float64(payloadBytes))
}

// ApplyError records a frame that could not be applied.
func (r *Receiver) ApplyError() {
	if r == nil {
		return
	}
	r.ApplyErrors.Inc()
}

// ViewerConnected adjusts the viewer client gauge.
func (r *Receiver) ViewerConnected(delta int) {
	if r == nil {
		return
	}
	r.ViewerClients.Add(float64(delta))
}
