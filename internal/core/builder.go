package core

import (
	"os"

	"golang.org/x/term"

	"gochat/config"
	"gochat/internal/metrics"
	"gochat/internal/transport"
	"gochat/tunnel"
	"gochat/util"
)

// isTerminal reports whether fd is a terminal.  Tests replace it.
var isTerminal = func(fd int) bool { return term.IsTerminal(fd) }

// Build constructs the appropriate Mode from the given configuration:
// the full-screen chat when both stdin and stdout are terminals and
// --plain is not set, line mode otherwise.
func Build(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	if !cfg.Plain && isTerminal(int(os.Stdin.Fd())) && isTerminal(int(os.Stdout.Fd())) {
		return buildChat(cfg, logger, m), nil
	}
	return buildLine(cfg, logger, m), nil
}

// ── mode builders ────────────────────────────────────────────────────

func buildChat(cfg *config.Config, logger *util.Logger, m *metrics.Collector) Mode {
	return &ChatMode{
		Dialer:  buildDialer(cfg, logger),
		Address: cfg.URL,
		Timeout: cfg.HandshakeTimeout(),
		Logger:  logger,
		Metrics: m,
	}
}

func buildLine(cfg *config.Config, logger *util.Logger, m *metrics.Collector) Mode {
	return &LineMode{
		Dialer:       buildDialer(cfg, logger),
		Address:      cfg.URL,
		Timeout:      cfg.HandshakeTimeout(),
		DrainTimeout: config.DefaultDrainTimeout,
		Logger:       logger,
		Metrics:      m,
	}
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	if cfg.TunnelEnabled {
		return transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   config.DefaultConnTimeout,
		}, logger)
	}

	return &transport.TCPDialer{Timeout: cfg.HandshakeTimeout()}
}
