// Package core is the orchestration layer.  It composes the transport,
// the session controller and a renderer into complete operational
// modes, and provides a builder that selects the right mode from a
// Config.
//
// Architecture layers (bottom → top):
//
//	protocol  →  transport  →  session  →  ui  →  core  →  cmd (CLI)
//
// Every mode runs a single dispatch loop that owns the session
// controller.  Transport callbacks only enqueue events onto that loop.
package core

import "context"

// Mode represents a complete operational mode of gochat (full-screen
// chat or plain line mode).  Each mode owns its full lifecycle from
// connection establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}

// connector is implemented by dialers that hold a long-lived upstream
// connection (the SSH tunnel) which should be brought up before the
// renderer starts.
type connector interface {
	Connect(ctx context.Context) error
}

func connectDialer(ctx context.Context, d interface{}) error {
	if c, ok := d.(connector); ok {
		return c.Connect(ctx)
	}
	return nil
}
