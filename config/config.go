// Package config defines the runtime configuration for gochat and
// provides helpers for parsing relay addresses and tunnel specs.
package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	ncerr "gochat/internal/errors"
)

// Config holds every tuneable for a single gochat run.
type Config struct {
	// ── Relay ────────────────────────────────────────────────────────
	URL     string        // relay WebSocket address
	Timeout time.Duration // handshake timeout (0 = DefaultHandshakeTimeout)

	// ── Rendering ────────────────────────────────────────────────────
	Plain bool // force the line renderer even on a terminal

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	LogFile string
	Stats   bool // print the metrics snapshot on exit
	DryRun  bool
}

// ── Relay address ────────────────────────────────────────────────────

// ParseRelayURL validates a relay address and returns it in canonical
// form.  A bare "host:port" is accepted as shorthand for ws://host:port.
func ParseRelayURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("relay address is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid relay address %q: %w", raw, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("relay address %q has no host", raw)
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return "", fmt.Errorf("invalid relay port %q", p)
		}
	}
	return u.String(), nil
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("tunnel host is required")
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent and
// canonicalises URL in place.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return &ncerr.ConfigError{
			Field:   "url",
			Message: "relay address is required",
			Hint:    "pass ws://host:port as an argument or set GOCHAT_URL",
		}
	}
	canonical, err := ParseRelayURL(c.URL)
	if err != nil {
		return &ncerr.ConfigError{
			Field:   "url",
			Value:   c.URL,
			Message: err.Error(),
			Hint:    "relay addresses look like ws://127.0.0.1:8081 or wss://chat.example.com/ws",
		}
	}
	c.URL = canonical

	if c.Timeout < 0 {
		return &ncerr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}

	if c.TunnelEnabled && c.TunnelHost == "" {
		return &ncerr.ConfigError{
			Field:   "tunnel",
			Message: "tunnel host is required",
			Hint:    "use -T [user@]host[:port]",
		}
	}
	if !c.TunnelEnabled && (c.SSHKeyPath != "" || c.SSHPassword || c.UseSSHAgent) {
		return &ncerr.ConfigError{
			Field:   "ssh-key",
			Message: "SSH options require a tunnel",
			Hint:    "add -T [user@]host[:port] or drop the --ssh-* flags",
		}
	}
	if c.Verbose < 0 {
		c.Verbose = 0
	}
	return nil
}

// HandshakeTimeout returns the effective handshake timeout.
func (c *Config) HandshakeTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultHandshakeTimeout
}
