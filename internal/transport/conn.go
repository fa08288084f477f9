// Package transport owns the outbound stream connection.
//
// The connection is deliberately best-effort: connects are lazy and bounded,
// failed attempts engage a tick-based cooldown instead of surfacing errors,
// sends while disconnected silently drop the frame, and the acknowledgment
// poll never blocks. Connection loss is detected lazily by the next write or
// poll; the caller just keeps ticking.
package transport

import (
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/framecast-dev/framecast/internal/logging"
	"github.com/framecast-dev/framecast/internal/metrics"
)

// State is the connection phase of the transport.
type State int

const (
	// StateDisconnected means no usable connection exists.
	StateDisconnected State = iota
	// StateConnecting means a bounded dial is in progress.
	StateConnecting
	// StateConnected means frames will actually reach the wire.
	StateConnected
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "invalid"
	}
}

const (
	// ReconnectCooldown is the number of ticks (frame intervals) that must
	// pass after a connect attempt before the next one.
	ReconnectCooldown = 300

	// DialTimeout bounds a single connect attempt.
	DialTimeout = 1 * time.Second

	// WriteTimeout bounds the flush of one frame.
	WriteTimeout = 3 * time.Second
)

// DialFunc opens the underlying transport connection. Swappable in tests.
type DialFunc func(addr string, timeout time.Duration) (net.Conn, error)

func defaultDial(addr string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", addr, timeout)
}

// Options configures optional collaborators of a Conn.
type Options struct {
	// Dialer replaces the TCP dialer; nil uses net.DialTimeout.
	Dialer DialFunc
	// Metrics records connect attempts and outcomes; nil disables.
	Metrics *metrics.Sender
}

// Conn manages the single outbound connection of a streaming session.
// Single-owner state: all methods must be called from the session's
// serialized encode path.
type Conn struct {
	addr     string
	dial     DialFunc
	m        *metrics.Sender
	state    State
	cooldown int
	nc       net.Conn
	lastAck  byte
}

// New creates a transport for the given "host:port" target. No connection is
// made until EnsureConnected.
func New(addr string, opts Options) *Conn {
	dial := opts.Dialer
	if dial == nil {
		dial = defaultDial
	}
	return &Conn{addr: addr, dial: dial, m: opts.Metrics}
}

// State returns the current connection phase.
func (c *Conn) State() State {
	return c.state
}

// EnsureConnected is called once per tick at the top of each frame. If
// disconnected and the cooldown has elapsed it makes one bounded connect
// attempt and re-engages the cooldown; otherwise it just counts the cooldown
// down. Failures are not reported: the state simply stays disconnected.
func (c *Conn) EnsureConnected() {
	if c.state == StateConnected {
		return
	}
	if c.cooldown > 0 {
		c.cooldown--
		return
	}
	c.cooldown = ReconnectCooldown

	c.state = StateConnecting
	nc, err := c.dial(c.addr, DialTimeout)
	if err != nil {
		c.state = StateDisconnected
		c.m.ConnectAttempt(false)
		logging.Debug("Connect attempt failed",
			zap.String("target", c.addr),
			zap.Int("cooldown_ticks", c.cooldown),
			zap.Error(err),
		)
		return
	}

	c.nc = nc
	c.state = StateConnected
	c.m.ConnectAttempt(true)
	logging.LogConnection(c.addr, "connected")
}

// Send writes the frame if and only if currently connected; while
// disconnected the frame is silently dropped, not queued. A write failure
// tears the connection down for lazy reconnection on a later tick.
func (c *Conn) Send(p []byte) {
	if c.state != StateConnected {
		return
	}
	_ = c.nc.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if _, err := c.nc.Write(p); err != nil {
		c.teardown("write failed", err)
	}
}

// PollAck makes a non-blocking check for one acknowledgment byte. Returns the
// byte if available, else 0. A hard read error (peer gone) tears the
// connection down; a mere lack of data does not.
func (c *Conn) PollAck() byte {
	if c.state != StateConnected {
		return 0
	}

	_ = c.nc.SetReadDeadline(time.Now())
	var b [1]byte
	n, err := c.nc.Read(b[:])
	if n == 1 {
		c.lastAck = b[0]
		if b[0] != 0 {
			c.m.AckReceived()
		}
		return b[0]
	}
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0
		}
		c.teardown("ack poll failed", err)
	}
	return 0
}

// LastAck returns the most recently read acknowledgment byte.
func (c *Conn) LastAck() byte {
	return c.lastAck
}

// Close releases the connection, if any. Safe to call in any state.
func (c *Conn) Close() error {
	if c.nc == nil {
		return nil
	}
	err := c.nc.Close()
	c.nc = nil
	c.state = StateDisconnected
	return err
}

// teardown drops a dead connection. The cooldown engaged by the last connect
// attempt keeps running, so reconnection happens on its schedule.
func (c *Conn) teardown(reason string, err error) {
	logging.Warn("Connection lost",
		zap.String("target", c.addr),
		zap.String("reason", reason),
		zap.Error(err),
	)
	_ = c.nc.Close()
	c.nc = nil
	c.state = StateDisconnected
}
