// Package session holds the state of one chat session and the reducer
// that advances it.
//
// A [Controller] is driven from a single dispatch loop: renderers feed
// it keystroke events, transport callbacks feed it network events (by
// enqueueing them on the same loop), and after every event it reports
// whether the view needs redrawing.  Nothing in this package blocks or
// spawns goroutines, and the Controller itself is not safe for
// concurrent use.
package session

import (
	"fmt"

	ncerr "gochat/internal/errors"
	"gochat/internal/metrics"
	"gochat/internal/protocol"
	"gochat/internal/transport"
	"gochat/util"
)

// Lines appended to the log on connection changes.
const (
	LineConnected    = "Connected"
	LineDisconnected = "Disconnected"
)

// Connection is the state of the link to the relay.
type Connection int

const (
	Disconnected Connection = iota
	Connecting
	Connected
)

func (c Connection) String() string {
	switch c {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("Connection(%d)", int(c))
	}
}

// Snapshot is a read-only copy of the session for renderers.
type Snapshot struct {
	Connection Connection
	Log        []string
	Draft      string
	Address    string
}

// Options configure a Controller.
type Options struct {
	Transport transport.Transport
	Address   string

	// Dispatch enqueues an event on the loop that calls Handle.  It is
	// called from transport goroutines and must not call Handle itself.
	Dispatch func(Event)

	Logger  *util.Logger
	Metrics *metrics.Collector
}

// Controller owns the session state.
type Controller struct {
	transport transport.Transport
	address   string
	dispatch  func(Event)
	logger    *util.Logger
	metrics   *metrics.Collector

	conn   Connection
	log    []string
	draft  string
	socket transport.Socket
}

// New returns a disconnected Controller with an empty log.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = util.NewLogger(0)
	}
	dispatch := opts.Dispatch
	if dispatch == nil {
		dispatch = func(Event) {}
	}
	return &Controller{
		transport: opts.Transport,
		address:   opts.Address,
		dispatch:  dispatch,
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

// Handle applies ev and reports whether the session changed.
func (c *Controller) Handle(ev Event) (render bool) {
	switch ev := ev.(type) {
	case Connect:
		return c.connect()

	case DraftChanged:
		c.draft = ev.Text
		return true

	case SendRequested:
		c.send()
		return true

	case TransportOpened:
		if !c.current(ev.Socket) || c.conn != Connecting {
			return false
		}
		c.conn = Connected
		c.log = append(c.log, LineConnected)
		c.logger.Info("connected to %s", c.address)
		return true

	case TransportClosed:
		if !c.current(ev.Socket) {
			return false
		}
		c.logger.Info("connection to %s closed", c.address)
		c.drop()
		return true

	case TransportErrored:
		if !c.current(ev.Socket) {
			return false
		}
		c.logger.Warn("connection to %s failed: %v", c.address, ev.Err)
		c.drop()
		return true

	case InboundReceived:
		if !c.current(ev.Socket) {
			return false
		}
		return c.receive(ev.Msg, ev.Err)

	default:
		c.logger.Debug("session: ignoring %T", ev)
		return false
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	log := make([]string, len(c.log))
	copy(log, c.log)
	return Snapshot{
		Connection: c.conn,
		Log:        log,
		Draft:      c.draft,
		Address:    c.address,
	}
}

// Close releases the socket, if any.  The socket delivers no further
// events and the log is left as is.
func (c *Controller) Close() error {
	if c.socket == nil {
		return nil
	}
	s := c.socket
	c.socket = nil
	c.conn = Disconnected
	return s.Close()
}

func (c *Controller) connect() bool {
	if c.socket != nil {
		c.logger.Debug("session: connect ignored, socket %s held", c.socket.ID())
		return false
	}

	// The socket id is only known once Open returns, but the socket
	// may call back before that; callbacks wait on ready.
	var id string
	ready := make(chan struct{})
	cb := transport.Callbacks{
		OnStatus: func(s transport.Status, err error) {
			<-ready
			switch {
			case !s.Terminal():
				c.dispatch(TransportOpened{Socket: id})
			case s == transport.StatusErrored:
				c.dispatch(TransportErrored{Socket: id, Err: err})
			default:
				c.dispatch(TransportClosed{Socket: id})
			}
		},
		OnMessage: func(m protocol.Message, err error) {
			<-ready
			c.dispatch(InboundReceived{Socket: id, Msg: m, Err: err})
		},
	}

	c.logger.Info("connecting to %s", c.address)
	s, err := c.transport.Open(c.address, cb)
	if err != nil {
		close(ready)
		c.metrics.RecordError(err.Error())
		c.logger.Warn("cannot connect: %v", err)
		return false
	}
	id = s.ID()
	close(ready)

	c.socket = s
	c.conn = Connecting
	return true
}

func (c *Controller) send() {
	text := c.draft
	c.draft = ""

	if c.socket == nil {
		c.metrics.SendFailed()
		c.logger.Debug("session: dropped %q, not connected", text)
		return
	}
	if err := c.socket.Send(protocol.Text{Body: text}); err != nil {
		c.metrics.SendFailed()
		c.logger.Debug("session: send failed: %v", err)
		return
	}
	c.metrics.MessageSent()
}

func (c *Controller) receive(m protocol.Message, err error) bool {
	switch {
	case ncerr.IsDecode(err):
		c.metrics.DecodeFailed()
		c.logger.Debug("session: discarding inbound frame: %v", err)
		return false
	case err != nil:
		c.metrics.RecordError(err.Error())
		c.logger.Warn("session: inbound error: %v", err)
		return false
	}
	switch m := m.(type) {
	case protocol.Text:
		c.metrics.MessageReceived()
		c.log = append(c.log, m.Body)
		return true
	default:
		c.logger.Debug("session: no display for %T", m)
		return false
	}
}

// current reports whether id names the held socket.
func (c *Controller) current(id string) bool {
	return c.socket != nil && c.socket.ID() == id
}

// drop releases the held socket after a terminal notification.
func (c *Controller) drop() {
	s := c.socket
	c.socket = nil
	c.conn = Disconnected
	c.log = append(c.log, LineDisconnected)
	if err := s.Close(); err != nil {
		c.logger.Debug("session: closing socket: %v", err)
	}
}
