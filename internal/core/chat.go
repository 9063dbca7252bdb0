package core

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"gochat/internal/metrics"
	"gochat/internal/session"
	"gochat/internal/transport"
	"gochat/internal/ui"
	"gochat/util"
)

// ChatMode runs the full-screen Bubble Tea client.
type ChatMode struct {
	Dialer  transport.Dialer
	Address string
	Timeout time.Duration
	Logger  *util.Logger
	Metrics *metrics.Collector

	// ProgramOptions are appended to the defaults.  Tests use them to
	// replace the terminal.
	ProgramOptions []tea.ProgramOption
}

// Run brings up the tunnel (if any), then hands the terminal to the
// chat UI until the user quits or ctx is cancelled.  The socket and the
// dialer are closed when Run returns.
func (m *ChatMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	if err := connectDialer(ctx, m.Dialer); err != nil {
		return err
	}

	// p is assigned before Run starts the loop, and the first socket
	// is only opened from inside the loop, so callbacks always see it.
	var p *tea.Program
	ctrl := session.New(session.Options{
		Transport: transport.NewWebSocket(m.Dialer, m.Timeout, m.Logger, m.Metrics),
		Address:   m.Address,
		Dispatch:  func(ev session.Event) { p.Send(ui.EventMsg{Event: ev}) },
		Logger:    m.Logger,
		Metrics:   m.Metrics,
	})
	defer ctrl.Close()

	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, m.ProgramOptions...)
	p = tea.NewProgram(ui.NewModel(ctrl), opts...)

	m.Logger.Verbose("starting chat UI for %s", m.Address)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat UI: %w", err)
	}
	return nil
}
