package ui

import (
	"fmt"
	"io"

	"gochat/internal/session"
)

// Lines renders a session as plain text: every log entry is printed
// once, in order, on its own line.
type Lines struct {
	w       io.Writer
	printed int
}

// NewLines returns a line renderer writing to w.
func NewLines(w io.Writer) *Lines {
	return &Lines{w: w}
}

// Render prints the entries of snap that have not been printed yet,
// passed through [Sanitize].
func (l *Lines) Render(snap session.Snapshot) error {
	for ; l.printed < len(snap.Log); l.printed++ {
		if _, err := fmt.Fprintln(l.w, Sanitize(snap.Log[l.printed])); err != nil {
			return err
		}
	}
	return nil
}

// Submit returns the events an input line stands for: the line becomes
// the draft and is sent.
func (l *Lines) Submit(line string) []session.Event {
	return []session.Event{
		session.DraftChanged{Text: line},
		session.SendRequested{},
	}
}
