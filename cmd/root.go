// Package cmd wires up the CLI flags and dispatches to the chat core.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"gochat/config"
	"gochat/internal/core"
	ncerr "gochat/internal/errors"
	"gochat/internal/metrics"
	"gochat/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X gochat/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// request is the outcome of argument parsing.
type request struct {
	cfg         *config.Config
	showHelp    bool
	showVersion bool
	fs          *flag.FlagSet
}

// Execute parses args and runs the chat client.
func Execute(ctx context.Context, args []string) error {
	req, err := parseArgs(args)
	if err != nil {
		return err
	}
	if req.showHelp {
		printUsage(req.fs)
		return nil
	}
	if req.showVersion {
		fmt.Printf("gochat %s\n", version)
		return nil
	}

	cfg := req.cfg
	if cfg.DryRun {
		printConfig(os.Stdout, cfg)
		return nil
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	stats := metrics.New()

	mode, err := core.Build(cfg, logger, stats)
	if err != nil {
		return err
	}

	_, interactive := mode.(*core.ChatMode)
	out, closeLog, err := openLog(cfg, interactive)
	if err != nil {
		return err
	}
	if out != nil {
		logger.SetOutput(out)
	}
	if cfg.LogFile != "" || (interactive && cfg.Verbose > 0) {
		logger.SetTimestamps(true)
	}

	logger.Verbose("gochat %s → %s", version, cfg.URL)
	runErr := mode.Run(ctx)

	if cfg.Stats {
		fmt.Fprintln(os.Stderr, stats.JSON())
	}
	return ncerr.Join(runErr, closeLog())
}

// parseArgs applies defaults, then GOCHAT_* environment variables,
// then flags and the positional address, and validates the result.
func parseArgs(args []string) (*request, error) {
	cfg := &config.Config{URL: config.DefaultURL}
	config.LoadFromEnv(cfg)
	envVerbose := cfg.Verbose // CountVarP resets its target

	req := &request{cfg: cfg}
	fs := flag.NewFlagSet("gochat", flag.ContinueOnError)
	req.fs = fs

	// ── relay ────────────────────────────────────────────────────
	fs.StringVar(&cfg.URL, "url", cfg.URL, "Relay WebSocket address")

	timeoutSec := int(cfg.Timeout / time.Second)
	fs.IntVarP(&timeoutSec, "timeout", "w", timeoutSec, "Handshake timeout in seconds (0 = 30)")

	// ── rendering ────────────────────────────────────────────────
	fs.BoolVar(&cfg.Plain, "plain", cfg.Plain, "Line mode even on a terminal")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "SSH tunnel via [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Write logs to this file")
	fs.BoolVar(&cfg.Stats, "stats", cfg.Stats, "Print session statistics on exit")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate and print the configuration, then exit")

	fs.BoolVar(&req.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&req.showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if !fs.Changed("verbose") {
		cfg.Verbose = envVerbose
	}
	if req.showHelp || req.showVersion {
		return req, nil
	}

	cfg.Timeout = time.Duration(timeoutSec) * time.Second

	// ── positional address ───────────────────────────────────────
	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		if fs.Changed("url") {
			return nil, fmt.Errorf("relay address given twice (--url and %q)", rest[0])
		}
		cfg.URL = rest[0]
	default:
		return nil, fmt.Errorf("too many arguments: %q (expected at most one relay address)", rest)
	}

	// ── tunnel spec ──────────────────────────────────────────────
	if cfg.TunnelSpec != "" {
		user, host, port, err := config.ParseTunnelSpec(cfg.TunnelSpec)
		if err != nil {
			return nil, fmt.Errorf("tunnel: %w", err)
		}
		cfg.TunnelEnabled = true
		cfg.TunnelUser = user
		cfg.TunnelHost = host
		cfg.TunnelPort = port
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// ── helpers ──────────────────────────────────────────────────────────

// openLog picks where log lines go.  The full-screen UI owns the
// terminal, so there logs go to --log-file, to the default debug log
// when -v was given, or nowhere.  A nil writer keeps stderr.
func openLog(cfg *config.Config, interactive bool) (io.Writer, func() error, error) {
	path := cfg.LogFile
	if path == "" && interactive && cfg.Verbose > 0 {
		path = config.DefaultDebugLogPath
	}
	if path == "" {
		if interactive {
			return io.Discard, func() error { return nil }, nil
		}
		return nil, func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("log file: %w", err)
	}
	return f, f.Close, nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "relay:     %s\n", cfg.URL)
	fmt.Fprintf(w, "timeout:   %s\n", cfg.HandshakeTimeout())
	mode := "auto"
	if cfg.Plain {
		mode = "plain"
	}
	fmt.Fprintf(w, "renderer:  %s\n", mode)
	if cfg.TunnelEnabled {
		fmt.Fprintf(w, "tunnel:    %s@%s\n", cfg.TunnelUser, util.FormatAddr(cfg.TunnelHost, cfg.TunnelPort))
	}
	if cfg.LogFile != "" {
		fmt.Fprintf(w, "log file:  %s\n", cfg.LogFile)
	}
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `gochat – WebSocket chat client v%s

Connects to a chat relay and exchanges text messages.  On a terminal
it runs full-screen; with pipes or --plain it reads lines from stdin
and prints the conversation to stdout.

Usage:
  gochat [options] [ws://host:port/path]

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  gochat                                      Connect to %s
  gochat wss://chat.example.com/ws            Connect over TLS
  gochat -T admin@bastion ws://chat-internal:8081
                                              Reach the relay via SSH
  echo "hello" | gochat relay.local:8081      Send one message and exit
`, config.DefaultURL)
}
