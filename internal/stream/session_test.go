package stream

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/framecast-dev/framecast/internal/codec"
	"github.com/framecast-dev/framecast/internal/encoder"
	"github.com/framecast-dev/framecast/internal/protocol"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// wireConn captures everything the session sends and serves queued acks.
type wireConn struct {
	written bytes.Buffer
	acks    []byte
}

func (w *wireConn) Read(b []byte) (int, error) {
	if len(w.acks) > 0 {
		b[0] = w.acks[0]
		w.acks = w.acks[1:]
		return 1, nil
	}
	return 0, timeoutError{}
}

func (w *wireConn) Write(b []byte) (int, error)        { return w.written.Write(b) }
func (w *wireConn) Close() error                       { return nil }
func (w *wireConn) LocalAddr() net.Addr                { return &net.TCPAddr{} }
func (w *wireConn) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (w *wireConn) SetDeadline(t time.Time) error      { return nil }
func (w *wireConn) SetReadDeadline(t time.Time) error  { return nil }
func (w *wireConn) SetWriteDeadline(t time.Time) error { return nil }

// readFrames parses every frame captured on the wire.
func readFrames(t *testing.T, w *wireConn, geo encoder.Geometry) []*protocol.Frame {
	t.Helper()
	r := bytes.NewReader(w.written.Bytes())
	var frames []*protocol.Frame
	for r.Len() > 0 {
		f, err := protocol.ReadFrame(r, geo.BitmapBytes())
		if err != nil {
			t.Fatalf("parsing captured wire data: %v", err)
		}
		frames = append(frames, f)
	}
	return frames
}

// newTestSession wires a session to an in-memory connection with the raw
// codec so payloads round-trip exactly.
func newTestSession(t *testing.T, width, height int) (*Session, *wireConn) {
	t.Helper()
	w := &wireConn{}
	s, err := NewSession(Config{
		Target: "203.0.113.1:6543",
		Width:  width,
		Height: height,
		Codec:  codec.Raw{},
		Dialer: func(addr string, timeout time.Duration) (net.Conn, error) {
			return w, nil
		},
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s, w
}

func flatFrame(geo encoder.Geometry, value byte) []byte {
	frame := make([]byte, geo.FrameBytes())
	for i := range frame {
		frame[i] = value
	}
	return frame
}

// bumpBlocks saturates the first n blocks (row-major) of the frame.
func bumpBlocks(frame []byte, geo encoder.Geometry, n int) {
	stride := geo.Stride()
	cols := geo.BlockCols()
	for idx := 0; idx < n; idx++ {
		bx, by := idx%cols, idx/cols
		off := by*encoder.BlockSize*stride + bx*encoder.BlockSize*encoder.BytesPerPixel
		for row := 0; row < encoder.BlockSize; row++ {
			p := off + row*stride
			for i := 0; i < encoder.BlockSize*encoder.BytesPerPixel; i++ {
				frame[p+i] = 0xFF
			}
		}
	}
}

func TestFirstFrameIsFull(t *testing.T) {
	geo := encoder.Geometry{Width: 80, Height: 120}
	s, w := newTestSession(t, geo.Width, geo.Height)

	frame := flatFrame(geo, 0x30)
	if _, err := s.EncodeFrame(frame); err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}

	frames := readFrames(t, w, geo)
	if len(frames) != 1 {
		t.Fatalf("frames sent = %d, want 1", len(frames))
	}
	if frames[0].Mode != protocol.ModeFull {
		t.Fatalf("mode = %v, want full", frames[0].Mode)
	}

	pix, width, height, err := codec.Raw{}.Decompress(frames[0].Payload)
	if err != nil {
		t.Fatalf("payload decompress: %v", err)
	}
	if width != geo.Width || height != geo.Height {
		t.Errorf("payload dimensions = %dx%d, want %s", width, height, geo)
	}
	if !bytes.Equal(pix, frame) {
		t.Error("full-frame payload should match the produced frame")
	}
}

func TestIdenticalFrameSendsBareNoneTag(t *testing.T) {
	geo := encoder.Geometry{Width: 80, Height: 120}
	s, w := newTestSession(t, geo.Width, geo.Height)

	frame := flatFrame(geo, 0x30)
	if _, err := s.EncodeFrame(frame); err != nil {
		t.Fatalf("first EncodeFrame() error = %v", err)
	}
	sentAfterFull := w.written.Len()

	if _, err := s.EncodeFrame(frame); err != nil {
		t.Fatalf("second EncodeFrame() error = %v", err)
	}

	// A NONE frame is exactly the 2-byte tag, nothing else.
	if got := w.written.Len() - sentAfterFull; got != protocol.TagSize {
		t.Errorf("second frame wire size = %d, want %d", got, protocol.TagSize)
	}
	frames := readFrames(t, w, geo)
	if frames[1].Mode != protocol.ModeNone {
		t.Errorf("second mode = %v, want none", frames[1].Mode)
	}
}

func TestSmallChangeSendsDiff(t *testing.T) {
	geo := encoder.Geometry{Width: 80, Height: 120}
	s, w := newTestSession(t, geo.Width, geo.Height)

	base := flatFrame(geo, 0x00)
	if _, err := s.EncodeFrame(base); err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}

	next := flatFrame(geo, 0x00)
	bumpBlocks(next, geo, 3)
	if _, err := s.EncodeFrame(next); err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}

	frames := readFrames(t, w, geo)
	f := frames[1]
	if f.Mode != protocol.ModeDiff {
		t.Fatalf("mode = %v, want diff", f.Mode)
	}
	if f.Bitmap[0] != 0x07 {
		t.Errorf("bitmap[0] = 0x%02x, want 0x07 (first three blocks)", f.Bitmap[0])
	}

	pix, width, height, err := codec.Raw{}.Decompress(f.Payload)
	if err != nil {
		t.Fatalf("payload decompress: %v", err)
	}
	if width != encoder.BlockSize || height != 3*encoder.BlockSize {
		t.Errorf("diff strip = %dx%d, want %dx%d", width, height, encoder.BlockSize, 3*encoder.BlockSize)
	}
	for i, b := range pix {
		if b != 0xFF {
			t.Fatalf("diff payload byte %d = 0x%02x, want 0xFF", i, b)
		}
	}
}

func TestLargeChangeSendsCheckerPair(t *testing.T) {
	// 80x120 has 150 blocks; 76 changed exceeds the 50-block third.
	geo := encoder.Geometry{Width: 80, Height: 120}
	s, w := newTestSession(t, geo.Width, geo.Height)

	base := flatFrame(geo, 0x00)
	if _, err := s.EncodeFrame(base); err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}

	busy := flatFrame(geo, 0x00)
	bumpBlocks(busy, geo, 76)
	if _, err := s.EncodeFrame(busy); err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	// The complement must follow unconditionally, even for an identical frame.
	if _, err := s.EncodeFrame(busy); err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}

	frames := readFrames(t, w, geo)
	if len(frames) != 3 {
		t.Fatalf("frames sent = %d, want 3", len(frames))
	}
	if frames[1].Mode != protocol.ModeChecker {
		t.Errorf("second mode = %v, want checker", frames[1].Mode)
	}
	if frames[2].Mode != protocol.ModeCheckerCompl {
		t.Errorf("third mode = %v, want checker_compl", frames[2].Mode)
	}

	// Both halves are half-width images of complementary phases.
	for _, f := range frames[1:] {
		pix, width, height, err := codec.Raw{}.Decompress(f.Payload)
		if err != nil {
			t.Fatalf("payload decompress: %v", err)
		}
		if width != geo.Width/2 || height != geo.Height {
			t.Errorf("checker sample = %dx%d, want %dx%d", width, height, geo.Width/2, geo.Height)
		}
		want := encoder.Sample(busy, geo, f.Mode.CheckerPhase())
		if !bytes.Equal(pix, want) {
			t.Errorf("%v payload does not match phase-%d sample", f.Mode, f.Mode.CheckerPhase())
		}
	}
}

func TestGeometryMismatchRejectedBeforeAnyStateChange(t *testing.T) {
	geo := encoder.Geometry{Width: 80, Height: 120}
	s, w := newTestSession(t, geo.Width, geo.Height)

	if _, err := s.EncodeFrame(make([]byte, 100)); !errors.Is(err, ErrGeometryMismatch) {
		t.Fatalf("EncodeFrame() error = %v, want ErrGeometryMismatch", err)
	}
	if w.written.Len() != 0 {
		t.Error("rejected frame must not reach the wire")
	}

	// The session still treats the next valid frame as its first.
	frame := flatFrame(geo, 0x11)
	if _, err := s.EncodeFrame(frame); err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	frames := readFrames(t, w, geo)
	if frames[0].Mode != protocol.ModeFull {
		t.Errorf("mode = %v, want full", frames[0].Mode)
	}
}

func TestNilFrameOnlyPollsAck(t *testing.T) {
	geo := encoder.Geometry{Width: 16, Height: 16}
	s, w := newTestSession(t, geo.Width, geo.Height)
	w.acks = []byte{0x01}

	ack, err := s.EncodeFrame(nil)
	if err != nil {
		t.Fatalf("EncodeFrame(nil) error = %v", err)
	}
	if ack != 0x01 {
		t.Errorf("ack = 0x%02x, want 0x01", ack)
	}
	if w.written.Len() != 0 {
		t.Error("a poll-only call must not send anything")
	}
}

func TestAckByteIsReturnedAfterSend(t *testing.T) {
	geo := encoder.Geometry{Width: 16, Height: 16}
	s, w := newTestSession(t, geo.Width, geo.Height)
	w.acks = []byte{0x01}

	ack, err := s.EncodeFrame(flatFrame(geo, 0x42))
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	if ack != 0x01 {
		t.Errorf("ack = 0x%02x, want 0x01", ack)
	}
}

// flakyCodec fails a fixed number of compressions, then behaves like Raw.
type flakyCodec struct {
	failures int
}

func (f *flakyCodec) Compress(pix []byte, width, height int) ([]byte, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("codec rejected payload")
	}
	return codec.Raw{}.Compress(pix, width, height)
}

func (f *flakyCodec) Decompress(data []byte) ([]byte, int, int, error) {
	return codec.Raw{}.Decompress(data)
}

func TestCodecFailureDropsFrameAndForcesResync(t *testing.T) {
	geo := encoder.Geometry{Width: 80, Height: 120}
	w := &wireConn{}
	s, err := NewSession(Config{
		Target: "203.0.113.1:6543",
		Width:  geo.Width,
		Height: geo.Height,
		Codec:  &flakyCodec{failures: 1},
		Dialer: func(addr string, timeout time.Duration) (net.Conn, error) {
			return w, nil
		},
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	// First frame's FULL compression fails: nothing must reach the wire.
	frame := flatFrame(geo, 0x20)
	if _, err := s.EncodeFrame(frame); err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	if w.written.Len() != 0 {
		t.Fatal("dropped frame must not reach the wire")
	}

	// The reference now holds pixels the receiver never saw, so the next
	// frame resyncs with FULL even though nothing changed.
	if _, err := s.EncodeFrame(frame); err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	frames := readFrames(t, w, geo)
	if len(frames) != 1 || frames[0].Mode != protocol.ModeFull {
		t.Fatalf("resync frame = %+v, want one full frame", frames)
	}
}

func TestForcedRefreshAfterManyNoneFrames(t *testing.T) {
	geo := encoder.Geometry{Width: 16, Height: 16}
	s, w := newTestSession(t, geo.Width, geo.Height)

	frame := flatFrame(geo, 0x55)
	// Frame 1 is FULL; 101 identical NONE frames push the counter past the
	// refresh limit; the tick after that resyncs.
	for i := 0; i < 103; i++ {
		if _, err := s.EncodeFrame(frame); err != nil {
			t.Fatalf("EncodeFrame() #%d error = %v", i, err)
		}
	}

	frames := readFrames(t, w, geo)
	if len(frames) != 103 {
		t.Fatalf("frames sent = %d, want 103", len(frames))
	}
	if frames[0].Mode != protocol.ModeFull {
		t.Fatalf("first mode = %v, want full", frames[0].Mode)
	}
	for i := 1; i <= 101; i++ {
		if frames[i].Mode != protocol.ModeNone {
			t.Fatalf("frame %d mode = %v, want none", i, frames[i].Mode)
		}
	}
	if frames[102].Mode != protocol.ModeFull {
		t.Errorf("frame 102 mode = %v, want full (forced refresh)", frames[102].Mode)
	}
}

func TestNewSessionValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing target", Config{Width: 240, Height: 320}},
		{"bad geometry", Config{Target: "a:1", Width: 241, Height: 320}},
		{"zero geometry", Config{Target: "a:1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSession(tt.cfg); err == nil {
				t.Error("NewSession() expected error")
			}
		})
	}
}
