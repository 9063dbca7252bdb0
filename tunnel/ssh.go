package tunnel

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	ncerr "gochat/internal/errors"
	"gochat/util"
)

// SSHConfig holds everything needed to dial an SSH gateway.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
}

// Addr returns the gateway's host:port.
func (c *SSHConfig) Addr() string { return util.FormatAddr(c.Host, c.Port) }

// SSHTunnel implements [Tunnel] by opening an SSH connection and
// forwarding traffic with ssh.Client.Dial.  A nil client means the
// tunnel is down.
type SSHTunnel struct {
	config *SSHConfig
	logger *util.Logger

	mu     sync.RWMutex
	client *ssh.Client
}

// NewSSHTunnel creates a tunnel that is ready to [Connect].
func NewSSHTunnel(cfg *SSHConfig, logger *util.Logger) *SSHTunnel {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &SSHTunnel{config: cfg, logger: logger}
}

// Connect dials the SSH gateway and completes the handshake.  Any
// passphrase or password prompt happens here, on the controlling
// terminal, before the dial timeout starts.
func (t *SSHTunnel) Connect(ctx context.Context) error {
	host, port := t.config.Host, t.config.Port

	auth, err := BuildAuthMethods(t.config)
	if err != nil {
		return ncerr.WrapSSH("auth", host, port, err)
	}
	hostKeys, err := hostKeyCallback(t.config)
	if err != nil {
		return ncerr.WrapSSH("hostkey", host, port, err)
	}

	addr := t.config.Addr()
	t.logger.Debug("SSH: dialing %s as %s", addr, t.config.User)

	dialCtx, cancel := context.WithTimeout(ctx, t.config.ConnTimeout)
	defer cancel()

	var d net.Dialer
	raw, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return ncerr.Wrap("dial", addr, err)
	}

	// The handshake shares the dial deadline.
	if deadline, ok := dialCtx.Deadline(); ok {
		_ = raw.SetDeadline(deadline)
	}
	conn, chans, reqs, err := ssh.NewClientConn(raw, addr, &ssh.ClientConfig{
		User:            t.config.User,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         t.config.ConnTimeout,
	})
	if err != nil {
		raw.Close()
		if strings.Contains(err.Error(), "unable to authenticate") {
			err = fmt.Errorf("%w: %v", ncerr.ErrAuthFailed, err)
		}
		return ncerr.WrapSSH("handshake", host, port, err)
	}
	_ = raw.SetDeadline(time.Time{})

	client := ssh.NewClient(conn, chans, reqs)

	t.mu.Lock()
	prev := t.client
	t.client = client
	t.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	go t.monitor(client)
	return nil
}

// Dial opens a connection to address from the gateway's side.
func (t *SSHTunnel) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	t.mu.RLock()
	client := t.client
	t.mu.RUnlock()
	if client == nil {
		return nil, ncerr.ErrTunnelClosed
	}

	t.logger.Debug("tunnel: dialing %s %s", network, address)
	conn, err := client.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("tunnel dial %s: %w", address, err)
	}
	return conn, nil
}

// Close shuts down the SSH connection.
func (t *SSHTunnel) Close() error {
	t.mu.Lock()
	client := t.client
	t.client = nil
	t.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}

// IsAlive reports whether the tunnel is still connected.
func (t *SSHTunnel) IsAlive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.client != nil
}

// monitor blocks until the SSH connection closes and marks the tunnel
// down.  A dropped gateway surfaces to the session as a read error on
// the forwarded socket.
func (t *SSHTunnel) monitor(client *ssh.Client) {
	err := client.Wait()

	t.mu.Lock()
	if t.client == client {
		t.client = nil
	}
	t.mu.Unlock()

	if err != nil {
		t.logger.Debug("SSH tunnel closed: %v", err)
	} else {
		t.logger.Debug("SSH tunnel closed")
	}
}
