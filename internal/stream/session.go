package stream

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/framecast-dev/framecast/internal/codec"
	"github.com/framecast-dev/framecast/internal/encoder"
	"github.com/framecast-dev/framecast/internal/logging"
	"github.com/framecast-dev/framecast/internal/metrics"
	"github.com/framecast-dev/framecast/internal/protocol"
	"github.com/framecast-dev/framecast/internal/transport"
)

// DefaultPort is the TCP port receivers listen on.
const DefaultPort = 6543

// ErrGeometryMismatch indicates a frame whose size disagrees with the
// session's fixed geometry. The frame is rejected before any state mutation
// so the reference image can never be partially corrupted.
var ErrGeometryMismatch = errors.New("frame geometry does not match session")

// Config describes one streaming session.
type Config struct {
	// Target is the receiver "host:port".
	Target string
	// Width and Height are the fixed frame geometry, multiples of 8.
	Width  int
	Height int
	// Quality is the JPEG quality; zero means codec.DefaultQuality.
	// Ignored when Codec is set.
	Quality int
	// Codec overrides the default JPEG codec. Optional.
	Codec codec.Codec
	// Dialer overrides the TCP dialer. Optional, for tests.
	Dialer transport.DialFunc
	// Metrics records sender instrumentation. Optional.
	Metrics *metrics.Sender
}

// Session is the single-owner state of one outbound stream.
type Session struct {
	geo  encoder.Geometry
	cdc  codec.Codec
	conn *transport.Conn
	sel  *encoder.Selector
	ref  *encoder.Reference
	m    *metrics.Sender
}

// NewSession validates the configuration and registers the session state.
// No connection is made until the first frame tick (lazy connect).
func NewSession(cfg Config) (*Session, error) {
	geo := encoder.Geometry{Width: cfg.Width, Height: cfg.Height}
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	if cfg.Target == "" {
		return nil, errors.New("stream: target address required")
	}

	cdc := cfg.Codec
	if cdc == nil {
		cdc = codec.NewJPEG(cfg.Quality)
	}

	s := &Session{
		geo:  geo,
		cdc:  cdc,
		conn: transport.New(cfg.Target, transport.Options{Dialer: cfg.Dialer, Metrics: cfg.Metrics}),
		sel:  encoder.NewSelector(),
		m:    cfg.Metrics,
	}

	logging.Info("Session started",
		zap.String("target", cfg.Target),
		zap.String("geometry", geo.String()),
	)
	return s, nil
}

// EncodeFrame encodes and sends one produced frame, returning the latest
// acknowledgment byte from the receiver (0 when none is available).
//
// A nil pixel buffer only drains an acknowledgment, equivalent to Poll. The
// buffer is borrowed for the duration of the call and never retained.
func (s *Session) EncodeFrame(pixels []byte) (byte, error) {
	s.conn.EnsureConnected()

	if pixels == nil {
		return s.conn.PollAck(), nil
	}
	if len(pixels) != s.geo.FrameBytes() {
		return 0, fmt.Errorf("%w: got %d bytes, want %d (%s)",
			ErrGeometryMismatch, len(pixels), s.geo.FrameBytes(), s.geo)
	}

	var diff encoder.DiffResult
	var mode protocol.Mode
	if s.ref == nil {
		// First frame of the session: no baseline exists yet.
		s.ref = encoder.NewReference(s.geo, pixels)
		mode = protocol.ModeFull
	} else {
		mode = s.sel.Pick(s.geo.Blocks(), func() int {
			diff = encoder.Diff(pixels, s.ref)
			return diff.Changed
		})
	}

	frame, err := s.buildFrame(mode, pixels, &diff)
	if err != nil {
		// Fatal to this frame only. The reference may already contain
		// blocks the receiver never saw, so resync on the next frame.
		s.sel.ForceRefresh()
		s.m.FrameDropped()
		logging.Warn("Frame dropped",
			zap.String("mode", mode.String()),
			zap.Error(err),
		)
		return s.conn.PollAck(), nil
	}

	wire, err := frame.Encode()
	if err != nil {
		s.sel.ForceRefresh()
		s.m.FrameDropped()
		logging.Warn("Frame dropped",
			zap.String("mode", mode.String()),
			zap.Error(err),
		)
		return s.conn.PollAck(), nil
	}

	s.conn.Send(wire)
	s.sel.Commit(mode)
	s.m.FrameSent(mode.String(), len(wire))
	logging.LogFrameSent(mode.String(), len(frame.Payload), diff.Changed)

	return s.conn.PollAck(), nil
}

// buildFrame assembles the mode-specific wire frame, compressing any payload
// through the codec.
func (s *Session) buildFrame(mode protocol.Mode, pixels []byte, diff *encoder.DiffResult) (*protocol.Frame, error) {
	switch mode {
	case protocol.ModeNone:
		return &protocol.Frame{Mode: protocol.ModeNone}, nil

	case protocol.ModeFull:
		s.ref.SetAll(pixels)
		data, err := s.cdc.Compress(pixels, s.geo.Width, s.geo.Height)
		if err != nil {
			return nil, fmt.Errorf("compress full frame: %w", err)
		}
		return &protocol.Frame{Mode: protocol.ModeFull, Payload: data}, nil

	case protocol.ModeDiff:
		// Changed blocks are packed as a tall 8-pixel-wide strip.
		data, err := s.cdc.Compress(diff.Payload, encoder.BlockSize, encoder.BlockSize*diff.Changed)
		if err != nil {
			return nil, fmt.Errorf("compress diff payload: %w", err)
		}
		return &protocol.Frame{Mode: protocol.ModeDiff, Bitmap: diff.Bitmap, Payload: data}, nil

	case protocol.ModeChecker, protocol.ModeCheckerCompl:
		half := encoder.Sample(pixels, s.geo, mode.CheckerPhase())
		data, err := s.cdc.Compress(half, s.geo.Width/2, s.geo.Height)
		if err != nil {
			return nil, fmt.Errorf("compress checker sample: %w", err)
		}
		return &protocol.Frame{Mode: mode, Payload: data}, nil

	default:
		return nil, fmt.Errorf("%w: %d", protocol.ErrUnknownMode, uint16(mode))
	}
}

// Poll drains one acknowledgment byte without producing a frame.
func (s *Session) Poll() byte {
	s.conn.EnsureConnected()
	return s.conn.PollAck()
}

// Geometry returns the session's fixed frame geometry.
func (s *Session) Geometry() encoder.Geometry {
	return s.geo
}

// ConnectionState exposes the transport phase for status display.
func (s *Session) ConnectionState() transport.State {
	return s.conn.State()
}

// Close releases the session's connection. The reference image is dropped
// with the session; a send in flight is simply abandoned.
func (s *Session) Close() error {
	logging.Info("Session closed", zap.String("geometry", s.geo.String()))
	return s.conn.Close()
}
