// Package ui renders a chat session.  [Model] is a full-screen Bubble
// Tea program; [Lines] is a plain line renderer for pipes and dumb
// terminals.  Both read session snapshots and turn input into session
// events; neither holds session state of its own.
package ui

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"gochat/internal/session"
)

// Title is shown in the header.
const Title = "Chat Client"

// Placeholder is shown in the empty input box.
const Placeholder = "Type your message"

// InputCharLimit caps a single draft.
const InputCharLimit = 4096

// chrome is the number of rows taken by everything but the log:
// header, status line, the bordered input (3) and the footer.
const chrome = 6

// EventMsg carries a session event into the Bubble Tea loop.  Transport
// callbacks deliver through Program.Send wrapped in an EventMsg.
type EventMsg struct {
	Event session.Event
}

// Model is the Bubble Tea model for an interactive session.
type Model struct {
	ctrl     *session.Controller
	input    textinput.Model
	viewport viewport.Model
	width    int
	height   int
}

// NewModel returns a model bound to ctrl.  The controller receives a
// Connect event as soon as the program starts.
func NewModel(ctrl *session.Controller) *Model {
	input := textinput.New()
	input.Placeholder = Placeholder
	input.CharLimit = InputCharLimit
	input.Focus()

	m := &Model{
		ctrl:     ctrl,
		input:    input,
		viewport: viewport.New(),
	}
	m.sync()
	return m
}

// Init issues the initial Connect.
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg { return EventMsg{Event: session.Connect{}} }
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()
		m.sync()
		return m, nil

	case EventMsg:
		if m.ctrl.Handle(msg.Event) {
			m.sync()
		}
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			m.ctrl.Handle(session.SendRequested{})
			m.sync()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.ctrl.Handle(session.DraftChanged{Text: m.input.Value()}) {
			m.sync()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the session.
func (m *Model) View() tea.View {
	var v tea.View
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		v.SetContent("Loading...")
		return v
	}

	snap := m.ctrl.Snapshot()
	v.SetContent(lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		renderStatus(snap),
		m.viewport.View(),
		InputStyle.Width(m.width).Render(m.input.View()),
		m.renderFooter(),
	))
	return v
}

// sync copies the controller's state into the widgets.
func (m *Model) sync() {
	snap := m.ctrl.Snapshot()
	if m.input.Value() != snap.Draft {
		m.input.SetValue(snap.Draft)
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderLog(snap.Log))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) updateSizes() {
	h := m.height - chrome
	if h < 1 {
		h = 1
	}
	m.viewport.SetWidth(m.width)
	m.viewport.SetHeight(h)

	// Border and padding take four columns.
	w := m.width - 4
	if w < 1 {
		w = 1
	}
	m.input.SetWidth(w)
}

func (m *Model) renderHeader() string {
	return HeaderStyle.Width(m.width).Render(Title)
}

func (m *Model) renderLog(entries []string) string {
	style := LogStyle
	if m.width > 0 {
		style = style.Width(m.width)
	}
	rows := make([]string, len(entries))
	for i, e := range entries {
		rows[i] = style.Render(Sanitize(e))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderFooter() string {
	return FooterStyle.Render(
		FooterKeyStyle.Render("enter") + " send  " +
			FooterKeyStyle.Render("pgup/pgdn") + " scroll  " +
			FooterKeyStyle.Render("esc") + " quit")
}

func renderStatus(snap session.Snapshot) string {
	var style lipgloss.Style
	switch snap.Connection {
	case session.Connected:
		style = StatusConnectedStyle
	case session.Connecting:
		style = StatusConnectingStyle
	default:
		style = StatusDisconnectedStyle
	}
	return " " + style.Render("● "+snap.Connection.String()) + "  " +
		StatusAddressStyle.Render(snap.Address)
}
