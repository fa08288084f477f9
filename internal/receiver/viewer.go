package receiver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/framecast-dev/framecast/internal/codec"
	"github.com/framecast-dev/framecast/internal/logging"
	"github.com/framecast-dev/framecast/internal/metrics"
)

const (
	// viewerPushInterval is how often a viewer connection checks the canvas
	// for a new frame to push.
	viewerPushInterval = 50 * time.Millisecond

	// viewerWriteTimeout bounds one snapshot write to a viewer.
	viewerWriteTimeout = 5 * time.Second
)

// Viewer serves the reconstructed canvas over HTTP: JPEG snapshots pushed to
// websocket clients on /ws, Prometheus metrics on /metrics, and a liveness
// probe on /healthz.
type Viewer struct {
	canvas   *Canvas
	m        *metrics.Receiver
	cdc      codec.Codec
	upgrader websocket.Upgrader
}

// NewViewer creates a viewer over the given canvas. Snapshots are always
// JPEG-encoded for the browser regardless of the stream codec.
func NewViewer(canvas *Canvas, m *metrics.Receiver) *Viewer {
	return &Viewer{
		canvas: canvas,
		m:      m,
		cdc:    codec.NewJPEG(0),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			// Viewers are LAN tools; no origin policy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the viewer's HTTP routes.
func (v *Viewer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", v.handleWebSocket)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// handleWebSocket upgrades the connection and pushes a JPEG snapshot every
// time the canvas version advances.
func (v *Viewer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := v.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Viewer upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	remoteAddr := conn.RemoteAddr().String()
	logging.LogConnection(remoteAddr, "viewer_connected")
	v.m.ViewerConnected(1)

	defer func() {
		_ = conn.Close()
		v.m.ViewerConnected(-1)
		logging.LogConnection(remoteAddr, "viewer_disconnected")
	}()

	// Drain client frames so close handshakes and pings are processed; any
	// read error ends the push loop via closed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(viewerPushInterval)
	defer ticker.Stop()

	var lastPushed uint64
	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
		}

		version := v.canvas.Version()
		if version == lastPushed {
			continue
		}

		geo := v.canvas.Geometry()
		data, err := v.cdc.Compress(v.canvas.Snapshot(), geo.Width, geo.Height)
		if err != nil {
			logging.Error("Failed to encode viewer snapshot", zap.Error(err))
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(viewerWriteTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			logging.Debug("Viewer write failed",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			return
		}
		lastPushed = version
	}
}
