package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"gochat/tunnel"
	"gochat/util"
)

// SSHDialer routes connections through an SSH tunnel.  The tunnel is
// connected by [SSHDialer.Connect], or lazily on the first Dial, and
// torn down on Close.
type SSHDialer struct {
	tunnel    tunnel.Tunnel
	config    *tunnel.SSHConfig
	logger    *util.Logger
	mu        sync.Mutex
	connected bool
}

// NewSSHDialer creates a dialer that forwards connections through an
// SSH tunnel.  The tunnel is not connected until Connect or the first
// Dial.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	return newSSHDialer(tunnel.NewSSHTunnel(cfg, logger), cfg, logger)
}

func newSSHDialer(t tunnel.Tunnel, cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	return &SSHDialer{tunnel: t, config: cfg, logger: logger}
}

// Connect establishes the SSH tunnel if not already connected.  Call it
// before a full-screen renderer takes the terminal so that passphrase
// and password prompts stay usable.
func (d *SSHDialer) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected && d.tunnel.IsAlive() {
		return nil
	}

	d.logger.Verbose("establishing SSH tunnel to %s@%s",
		d.config.User, util.FormatAddr(d.config.Host, d.config.Port))

	if err := d.tunnel.Connect(ctx); err != nil {
		return fmt.Errorf("tunnel: %w", err)
	}

	d.connected = true
	d.logger.Verbose("SSH tunnel established")
	return nil
}

// Dial connects to address through the SSH tunnel, establishing the
// tunnel first if needed.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.Connect(ctx); err != nil {
		return nil, err
	}
	return d.tunnel.Dial(ctx, network, address)
}

// Close tears down the underlying SSH tunnel.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		d.connected = false
		return d.tunnel.Close()
	}
	return nil
}
