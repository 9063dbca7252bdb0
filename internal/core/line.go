package core

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	ncerr "gochat/internal/errors"
	"gochat/internal/metrics"
	"gochat/internal/session"
	"gochat/internal/transport"
	"gochat/internal/ui"
	"gochat/util"
)

// LineMode runs the client without a full-screen UI: every stdin line
// is sent as a message and every log entry is printed to stdout.
//
// Lines read while the socket is still connecting are held back and
// sent once it opens.  Run returns when the connection ends, when ctx
// is cancelled, or when stdin reaches EOF and every held line has been
// handed to the socket.
type LineMode struct {
	Dialer  transport.Dialer
	Address string
	Timeout time.Duration
	Logger  *util.Logger
	Metrics *metrics.Collector

	// DrainTimeout bounds how long Run waits at stdin EOF for the
	// socket to open so held lines can be sent.
	DrainTimeout time.Duration

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *LineMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *LineMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run is the dispatch loop for line mode.
func (m *LineMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	if err := connectDialer(ctx, m.Dialer); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)

	events := make(chan session.Event, 64)
	ctrl := session.New(session.Options{
		Transport: transport.NewWebSocket(m.Dialer, m.Timeout, m.Logger, m.Metrics),
		Address:   m.Address,
		Dispatch: func(ev session.Event) {
			select {
			case events <- ev:
			case <-done:
			}
		},
		Logger:  m.Logger,
		Metrics: m.Metrics,
	})
	defer ctrl.Close()

	out := ui.NewLines(m.stdout())
	lines := readLines(m.stdin(), done)

	var (
		held    []string
		eof     bool
		drain   <-chan time.Time
		lastErr error
	)

	handle := func(ev session.Event) error {
		if ctrl.Handle(ev) {
			return out.Render(ctrl.Snapshot())
		}
		return nil
	}
	submit := func(line string) error {
		for _, ev := range out.Submit(line) {
			if err := handle(ev); err != nil {
				return err
			}
		}
		return nil
	}

	if err := handle(session.Connect{}); err != nil {
		return err
	}
	if ctrl.Snapshot().Connection == session.Disconnected {
		return fmt.Errorf("connect to %s: %w", m.Address, ncerr.ErrNotConnected)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-drain:
			return fmt.Errorf("gave up on %d unsent line(s): %s did not open within %s",
				len(held), m.Address, m.DrainTimeout)

		case ev := <-events:
			before := ctrl.Snapshot().Connection
			if e, ok := ev.(session.TransportErrored); ok {
				lastErr = e.Err
			}
			if err := handle(ev); err != nil {
				return err
			}

			switch after := ctrl.Snapshot().Connection; {
			case before == session.Connecting && after == session.Connected:
				for _, line := range held {
					if err := submit(line); err != nil {
						return err
					}
				}
				held = nil
				if eof {
					return nil
				}
			case before != session.Disconnected && after == session.Disconnected:
				if before == session.Connecting && lastErr != nil {
					return fmt.Errorf("connect to %s: %w", m.Address, lastErr)
				}
				return nil
			}

		case line, ok := <-lines:
			if !ok {
				eof = true
				lines = nil
				if len(held) == 0 {
					return nil
				}
				m.Logger.Verbose("stdin closed, waiting for %s to open", m.Address)
				drain = time.After(m.DrainTimeout)
				continue
			}
			if ctrl.Snapshot().Connection != session.Connected {
				held = append(held, line)
				continue
			}
			if err := submit(line); err != nil {
				return err
			}
		}
	}
}

// readLines scans r on its own goroutine.  The returned channel is
// closed at EOF or on a read error.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 4096), 1<<20)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-done:
				return
			}
		}
	}()
	return ch
}
