package session

import (
	"errors"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"gochat/internal/protocol"
	"gochat/internal/transport"
)

// apply plays one scripted step against h.  Network steps go through
// the most recent socket's callbacks, or the first socket's when stale
// is set, so released sockets get exercised too.
func apply(h *harness, op int, text string, stale bool) Event {
	cbs := h.ft.callbacks
	var cb transport.Callbacks
	if len(cbs) > 0 {
		cb = cbs[len(cbs)-1]
		if stale {
			cb = cbs[0]
		}
	}

	switch op {
	case 0:
		return Connect{}
	case 1:
		return DraftChanged{Text: text}
	case 2:
		return SendRequested{}
	}
	if cb.OnStatus == nil {
		return DraftChanged{Text: text}
	}
	switch op {
	case 3:
		h.ft.last().open = true
		cb.OnStatus(transport.StatusOpened, nil)
	case 4:
		cb.OnStatus(transport.StatusClosed, nil)
	case 5:
		cb.OnStatus(transport.StatusErrored, errors.New("reset"))
	case 6:
		cb.OnMessage(protocol.Text{Body: text}, nil)
	default:
		_, err := protocol.Decode([]byte(text))
		if err == nil {
			err = errors.New("bad frame")
		}
		cb.OnMessage(nil, err)
	}
	ev := h.queue[0]
	h.queue = h.queue[1:]
	return ev
}

func TestSessionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("draft equals the last DraftChanged text", prop.ForAll(
		func(texts []string) bool {
			h := newHarness(t)
			for _, s := range texts {
				h.c.Handle(DraftChanged{Text: s})
			}
			want := ""
			if len(texts) > 0 {
				want = texts[len(texts)-1]
			}
			return h.c.Snapshot().Draft == want
		},
		gen.SliceOf(gen.AnyString()),
	))

	properties.Property("SendRequested always clears the draft", prop.ForAll(
		func(ops []int, text string) bool {
			h := newHarness(t)
			for i, op := range ops {
				h.c.Handle(apply(h, op, text+strconv.Itoa(i), i%3 == 0))
			}
			h.c.Handle(DraftChanged{Text: text})
			h.c.Handle(SendRequested{})
			return h.c.Snapshot().Draft == ""
		},
		gen.SliceOf(gen.IntRange(0, 7)),
		gen.AnyString(),
	))

	properties.Property("log never shrinks", prop.ForAll(
		func(ops []int, text string) bool {
			h := newHarness(t)
			prev := h.c.Snapshot().Log
			for i, op := range ops {
				h.c.Handle(apply(h, op, text, i%4 == 0))
				cur := h.c.Snapshot().Log
				if len(cur) < len(prev) {
					return false
				}
				for j := range prev {
					if cur[j] != prev[j] {
						return false
					}
				}
				prev = cur
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 7)),
		gen.AlphaString(),
	))

	properties.Property("connection changes append exactly one line", prop.ForAll(
		func(ops []int) bool {
			h := newHarness(t)
			for _, op := range ops {
				before := h.c.Snapshot()
				h.c.Handle(apply(h, op, "m", false))
				after := h.c.Snapshot()

				added := after.Log[len(before.Log):]
				switch {
				case before.Connection == Connecting && after.Connection == Connected:
					if len(added) != 1 || added[0] != LineConnected {
						return false
					}
				case before.Connection != Disconnected && after.Connection == Disconnected:
					if len(added) != 1 || added[0] != LineDisconnected {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 7)),
	))

	properties.TestingRun(t)
}
