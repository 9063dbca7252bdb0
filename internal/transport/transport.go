// Package transport opens sockets to the relay.  A transport handles
// the "how" of moving envelopes (WebSocket framing, the TCP dial,
// optional SSH tunnelling) independent of what the session does with
// them.
//
// Notifications flow back through [Callbacks].  Callbacks run on the
// socket's own goroutine, so implementations of them must only hand the
// notification off (typically by enqueueing an event) and return.
package transport

import (
	"context"
	"net"

	"gochat/internal/protocol"
)

// Status is a lifecycle notification for a socket.
type Status int

const (
	// StatusOpened is delivered once the handshake completes.
	StatusOpened Status = iota
	// StatusClosed is delivered when the peer closes the socket.
	StatusClosed
	// StatusErrored is delivered when the dial, handshake or a read
	// fails.
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusOpened:
		return "opened"
	case StatusClosed:
		return "closed"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends the socket's life.
func (s Status) Terminal() bool { return s == StatusClosed || s == StatusErrored }

// Callbacks receive notifications for one socket.  Every socket
// delivers at most one StatusOpened followed by exactly one terminal
// status, unless it is closed locally first, after which nothing more
// is delivered.
type Callbacks struct {
	// OnStatus receives lifecycle changes.  err is non-nil only for
	// StatusErrored.
	OnStatus func(s Status, err error)

	// OnMessage receives every inbound frame, decoded.  A frame that
	// fails to decode arrives with a nil Message and a non-nil error.
	OnMessage func(m protocol.Message, err error)
}

// Socket is a handle on one connection attempt.
type Socket interface {
	// ID uniquely identifies this socket among all sockets opened by
	// the process.
	ID() string

	// Send encodes m and writes it.  It returns errors.ErrNotConnected
	// while no connection is up and errors.ErrSocketClosed once Close
	// has been called.
	Send(m protocol.Message) error

	// Close releases the socket.  No notifications follow it.
	Close() error
}

// Transport opens sockets.
type Transport interface {
	// Open starts connecting to address and returns immediately.  It
	// fails synchronously only when address cannot be used at all;
	// network failures arrive later as StatusErrored.
	Open(address string, cb Callbacks) (Socket, error)
}

// Dialer opens the raw network connection a socket runs over.
// Implementations include a plain TCP dialer and an SSH-tunnelled
// dialer that routes traffic through an encrypted gateway.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}
