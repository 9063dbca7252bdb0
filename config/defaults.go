package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultURL is the relay the client connects to when no address
	// is given.
	DefaultURL = "ws://127.0.0.1:8081"

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultHandshakeTimeout bounds the TCP dial plus WebSocket
	// upgrade of a single connect attempt.
	DefaultHandshakeTimeout = 30 * time.Second

	// DefaultConnTimeout is the SSH gateway connection timeout.
	DefaultConnTimeout = 30 * time.Second

	// DefaultDebugLogPath receives log output while the terminal UI
	// owns the screen and -v was given without --log-file.
	DefaultDebugLogPath = "/tmp/gochat-debug.log"

	// DefaultDrainTimeout is how long line mode waits for the socket to
	// open before giving up on sending piped input at EOF.
	DefaultDrainTimeout = 5 * time.Second
)
