package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/framecast-dev/framecast/internal/codec"
	"github.com/framecast-dev/framecast/internal/encoder"
	"github.com/framecast-dev/framecast/internal/logging"
	"github.com/framecast-dev/framecast/internal/metrics"
	"github.com/framecast-dev/framecast/internal/protocol"
)

const (
	// AckByte is written back after every successfully handled frame.
	AckByte = 0x01

	// readIdleTimeout drops a sender that goes silent. Generously longer
	// than the sender's 300-tick reconnect cooldown at typical frame rates.
	readIdleTimeout = 60 * time.Second

	// ackWriteTimeout bounds the 1-byte acknowledgment write.
	ackWriteTimeout = 3 * time.Second
)

// Config holds the receiver configuration.
type Config struct {
	// Host and Port form the TCP listen address.
	Host string
	Port int
	// Width and Height are the expected frame geometry, multiples of 8.
	Width  int
	Height int
	// Codec decodes frame payloads. Nil means the default JPEG codec.
	Codec codec.Codec
	// Metrics records receiver instrumentation. Optional.
	Metrics *metrics.Receiver
}

// Receiver accepts one sender at a time and reassembles its frames onto a
// Canvas.
type Receiver struct {
	config   *Config
	canvas   *Canvas
	m        *metrics.Receiver
	listener net.Listener
	wg       sync.WaitGroup

	mu     sync.Mutex
	active net.Conn
}

// New creates a receiver. The canvas is shared with any viewer attached to
// it via Canvas().
func New(config *Config) (*Receiver, error) {
	canvas, err := NewCanvas(encoder.Geometry{Width: config.Width, Height: config.Height}, config.Codec)
	if err != nil {
		return nil, err
	}
	return &Receiver{
		config: config,
		canvas: canvas,
		m:      config.Metrics,
	}, nil
}

// Canvas returns the shared reconstruction canvas.
func (r *Receiver) Canvas() *Canvas {
	return r.canvas
}

// Start listens and blocks until a shutdown signal arrives or the listener
// fails.
func (r *Receiver) Start() error {
	addr := fmt.Sprintf("%s:%d", r.config.Host, r.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	r.listener = listener

	logging.Info("Receiver listening for sender",
		zap.String("addr", addr),
		zap.String("geometry", r.canvas.Geometry().String()),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- r.acceptConnections()
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping receiver...")
		return r.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// acceptConnections serves senders one at a time: a new sender preempts the
// previous one, since a reconnecting sender is the same display resuming.
func (r *Receiver) acceptConnections() error {
	for {
		conn, err := r.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logging.Error("Failed to accept connection", zap.Error(err))
			continue
		}

		r.mu.Lock()
		if r.active != nil {
			logging.Info("New sender preempts active one",
				zap.String("remote_addr", conn.RemoteAddr().String()),
			)
			_ = r.active.Close()
		}
		r.active = conn
		r.mu.Unlock()

		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.handleConn(conn)
		}()
	}
}

// handleConn runs the frame loop for one sender connection.
func (r *Receiver) handleConn(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()
	logging.LogConnection(remoteAddr, "sender_connected")

	defer func() {
		_ = conn.Close()
		r.mu.Lock()
		if r.active == conn {
			r.active = nil
		}
		r.mu.Unlock()
		logging.LogConnection(remoteAddr, "sender_disconnected")
	}()

	bitmapSize := r.canvas.Geometry().BitmapBytes()
	for {
		if err := conn.SetReadDeadline(time.Now().Add(readIdleTimeout)); err != nil {
			return
		}

		frame, err := protocol.ReadFrame(conn, bitmapSize)
		if err != nil {
			if err == io.EOF {
				logging.Info("Sender closed the stream",
					zap.String("remote_addr", remoteAddr),
				)
			} else {
				logging.Warn("Dropping sender after bad frame",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
			}
			return
		}

		logging.LogFrameReceived(remoteAddr, frame.Mode.String(), len(frame.Payload))
		r.m.FrameReceived(frame.Mode.String(), len(frame.Payload))

		if err := r.canvas.Apply(frame); err != nil {
			// The canvas is unchanged; the stream itself is still in
			// sync, so keep the connection and ack the frame.
			r.m.ApplyError()
			logging.Warn("Failed to apply frame",
				zap.String("remote_addr", remoteAddr),
				zap.String("mode", frame.Mode.String()),
				zap.Error(err),
			)
		}

		if err := r.writeAck(conn); err != nil {
			logging.Warn("Failed to write acknowledgment",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			return
		}
	}
}

func (r *Receiver) writeAck(conn net.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(ackWriteTimeout)); err != nil {
		return err
	}
	_, err := conn.Write([]byte{AckByte})
	return err
}

// Shutdown closes the listener and the active sender connection, then waits
// for the frame loop to drain.
func (r *Receiver) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down receiver...")

	if r.listener != nil {
		if err := r.listener.Close(); err != nil {
			logging.Error("Error closing listener", zap.Error(err))
		}
	}

	r.mu.Lock()
	if r.active != nil {
		_ = r.active.Close()
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("Receiver stopped")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
	}

	logging.Sync()
	return nil
}
