package session

import "gochat/internal/protocol"

// Event is one input to [Controller.Handle].  The set of events is
// closed; renderers and transport callbacks construct them directly.
type Event interface {
	event()
}

// Connect asks the controller to open the configured address.
type Connect struct{}

// DraftChanged reports the full current text of the input box.
type DraftChanged struct {
	Text string
}

// SendRequested commits the draft.
type SendRequested struct{}

// TransportOpened reports that the socket finished its handshake.
type TransportOpened struct {
	Socket string
}

// TransportClosed reports that the peer closed the socket.
type TransportClosed struct {
	Socket string
}

// TransportErrored reports a dial, handshake or read failure.
type TransportErrored struct {
	Socket string
	Err    error
}

// InboundReceived carries one inbound frame.  Exactly one of Msg and
// Err is set.
type InboundReceived struct {
	Socket string
	Msg    protocol.Message
	Err    error
}

func (Connect) event()          {}
func (DraftChanged) event()     {}
func (SendRequested) event()    {}
func (TransportOpened) event()  {}
func (TransportClosed) event()  {}
func (TransportErrored) event() {}
func (InboundReceived) event()  {}
