// Package metrics provides lightweight, lock-free counters for tracking
// runtime statistics of a gochat session.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a gochat session.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	connectionsActive atomic.Int64
	connectionsTotal  atomic.Int64
	messagesSent      atomic.Int64
	messagesReceived  atomic.Int64
	sendFailures      atomic.Int64
	decodeErrors      atomic.Int64
	bytesIn           atomic.Int64
	bytesOut          atomic.Int64
	errorsTotal       atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectionOpened increments both the active and total counters.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ActiveConnections returns the current number of open sockets.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections returns the lifetime connection count.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsTotal.Load()
}

// ── Message metrics ──────────────────────────────────────────────────

// MessageSent records a message handed to the socket.
func (c *Collector) MessageSent() {
	if c == nil {
		return
	}
	c.messagesSent.Add(1)
}

// MessageReceived records a successfully decoded inbound message.
func (c *Collector) MessageReceived() {
	if c == nil {
		return
	}
	c.messagesReceived.Add(1)
}

// SendFailed records a send that the socket rejected or that had no
// socket to go to.
func (c *Collector) SendFailed() {
	if c == nil {
		return
	}
	c.sendFailures.Add(1)
}

// DecodeFailed records an inbound frame that could not be decoded.
func (c *Collector) DecodeFailed() {
	if c == nil {
		return
	}
	c.decodeErrors.Add(1)
}

// MessagesSent returns the number of messages handed to a socket.
func (c *Collector) MessagesSent() int64 {
	if c == nil {
		return 0
	}
	return c.messagesSent.Load()
}

// MessagesReceived returns the number of decoded inbound messages.
func (c *Collector) MessagesReceived() int64 {
	if c == nil {
		return 0
	}
	return c.messagesReceived.Load()
}

// SendFailures returns the number of swallowed send failures.
func (c *Collector) SendFailures() int64 {
	if c == nil {
		return 0
	}
	return c.sendFailures.Load()
}

// DecodeErrors returns the number of discarded inbound frames.
func (c *Collector) DecodeErrors() int64 {
	if c == nil {
		return 0
	}
	return c.decodeErrors.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the network.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the network.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime            string `json:"uptime"`
	ConnectionsActive int64  `json:"connections_active"`
	ConnectionsTotal  int64  `json:"connections_total"`
	MessagesSent      int64  `json:"messages_sent"`
	MessagesReceived  int64  `json:"messages_received"`
	SendFailures      int64  `json:"send_failures"`
	DecodeErrors      int64  `json:"decode_errors"`
	BytesIn           int64  `json:"bytes_in"`
	BytesOut          int64  `json:"bytes_out"`
	ErrorsTotal       int64  `json:"errors_total"`
	LastError         string `json:"last_error,omitempty"`
	LastErrorMessage  string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:            time.Since(c.startTime).Truncate(time.Second).String(),
		ConnectionsActive: c.connectionsActive.Load(),
		ConnectionsTotal:  c.connectionsTotal.Load(),
		MessagesSent:      c.messagesSent.Load(),
		MessagesReceived:  c.messagesReceived.Load(),
		SendFailures:      c.sendFailures.Load(),
		DecodeErrors:      c.decodeErrors.Load(),
		BytesIn:           c.bytesIn.Load(),
		BytesOut:          c.bytesOut.Load(),
		ErrorsTotal:       c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
