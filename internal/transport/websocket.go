package transport

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	ncerr "gochat/internal/errors"
	"gochat/internal/metrics"
	"gochat/internal/protocol"
	"gochat/util"
)

// closeGrace bounds the close frame written by Socket.Close.
const closeGrace = time.Second

// WebSocket implements [Transport] over gorilla/websocket.
type WebSocket struct {
	// Dialer opens the underlying connection.  nil dials plain TCP.
	Dialer Dialer

	// HandshakeTimeout bounds the TCP dial plus the upgrade.  Zero
	// means no timeout.
	HandshakeTimeout time.Duration

	Logger  *util.Logger
	Metrics *metrics.Collector
}

// NewWebSocket returns a transport that dials through d.
func NewWebSocket(d Dialer, timeout time.Duration, logger *util.Logger, m *metrics.Collector) *WebSocket {
	return &WebSocket{Dialer: d, HandshakeTimeout: timeout, Logger: logger, Metrics: m}
}

// Open validates address and starts the dial on a new goroutine.
func (w *WebSocket) Open(address string, cb Callbacks) (Socket, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", address, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("open %q: unsupported scheme %q", address, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("open %q: missing host", address)
	}

	d := w.Dialer
	if d == nil {
		d = &TCPDialer{Timeout: w.HandshakeTimeout}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &wsSocket{
		id:      uuid.NewString(),
		url:     u,
		target:  util.DialTarget(u),
		cb:      cb,
		logger:  w.logger(),
		metrics: w.Metrics,
		ctx:     ctx,
		cancel:  cancel,
		dialer: &websocket.Dialer{
			NetDialContext:   d.Dial,
			HandshakeTimeout: w.HandshakeTimeout,
		},
		timeout: w.HandshakeTimeout,
	}

	s.logger.Debug("socket %s: opening %s", s.id, u.Redacted())
	go s.run()
	return s, nil
}

func (w *WebSocket) logger() *util.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return util.NewLogger(0)
}

// wsSocket is one connection attempt and, if it succeeds, the
// connection itself.
type wsSocket struct {
	id      string
	url     *url.URL
	target  string
	cb      Callbacks
	logger  *util.Logger
	metrics *metrics.Collector
	dialer  *websocket.Dialer
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	closed   atomic.Bool
	terminal sync.Once

	// mu guards conn and serializes writes.  conn is nil before the
	// socket opens and after the read loop ends.
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSocket) ID() string { return s.id }

// run dials, then reads until the connection ends.
func (s *wsSocket) run() {
	defer s.cancel()

	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	conn, resp, err := s.dialer.DialContext(ctx, s.url.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		s.metrics.RecordError(err.Error())
		s.finish(StatusErrored, ncerr.Wrap("dial", s.target, err))
		return
	}

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	s.metrics.ConnectionOpened()
	defer s.metrics.ConnectionClosed()

	s.logger.Debug("socket %s: open", s.id)
	s.status(StatusOpened, nil)
	s.readLoop(conn)
}

func (s *wsSocket) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.mu.Lock()
			s.conn = nil
			s.mu.Unlock()
			conn.Close()

			var ce *websocket.CloseError
			if ncerr.As(err, &ce) {
				s.logger.Debug("socket %s: closed by peer (%d)", s.id, ce.Code)
				s.finish(StatusClosed, nil)
			} else {
				s.metrics.RecordError(err.Error())
				s.finish(StatusErrored, ncerr.Wrap("read", s.target, err))
			}
			return
		}
		s.metrics.BytesReceived(int64(len(data)))

		msg, err := protocol.Decode(data)
		if s.closed.Load() {
			return
		}
		if s.cb.OnMessage != nil {
			s.cb.OnMessage(msg, err)
		}
	}
}

// status delivers a non-terminal notification unless the socket has
// been closed locally.
func (s *wsSocket) status(st Status, err error) {
	if s.closed.Load() || s.cb.OnStatus == nil {
		return
	}
	s.cb.OnStatus(st, err)
}

// finish delivers the single terminal notification.
func (s *wsSocket) finish(st Status, err error) {
	s.terminal.Do(func() {
		if err != nil {
			s.logger.Debug("socket %s: %s: %v", s.id, st, err)
		}
		s.status(st, err)
	})
}

func (s *wsSocket) Send(m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ncerr.ErrSocketClosed
	}
	if s.conn == nil {
		return ncerr.ErrNotConnected
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.metrics.RecordError(err.Error())
		return ncerr.Wrap("write", s.target, err)
	}
	s.metrics.BytesSent(int64(len(data)))
	return nil
}

// Close aborts a pending dial or sends a normal close frame and drops
// the connection.  It is idempotent.
func (s *wsSocket) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.terminal.Do(func() {})
	s.cancel()

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return nil
	}

	s.logger.Debug("socket %s: closing", s.id)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
	return conn.Close()
}
