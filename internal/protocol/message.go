// Package protocol defines the chat envelope exchanged with the relay.
//
// An envelope is a JSON object with exactly one member: the message
// tag, whose value is the payload.
//
//	{"Text":"hello"}
//
// Decoding is forward-tolerant: a tag this client does not know is
// reported as an error wrapping [errors.ErrUnknownTag], never a panic,
// so newer peers can introduce variants without breaking older ones.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	ncerr "gochat/internal/errors"
)

// TagText is the tag of the plain text variant.
const TagText = "Text"

// Message is one variant of the envelope.
type Message interface {
	// Tag returns the envelope key for this variant.
	Tag() string
}

// Text carries a single line of chat text.
type Text struct {
	Body string
}

// Tag implements [Message].
func (Text) Tag() string { return TagText }

func (t Text) String() string { return t.Body }

// decoders maps a tag to the function that turns its payload into a
// Message.  Adding a variant means adding an entry here and a case in
// payloadOf.
var decoders = map[string]func(json.RawMessage) (Message, error){
	TagText: func(raw json.RawMessage) (Message, error) {
		if bytes.Equal(raw, []byte("null")) {
			return nil, fmt.Errorf("null payload")
		}
		var body string
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, err
		}
		return Text{Body: body}, nil
	},
}

// Encode serialises m as an envelope.
func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("encode: %w", ncerr.ErrMalformed)
	}
	payload, err := payloadOf(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{m.Tag(): payload})
}

func payloadOf(m Message) (any, error) {
	switch v := m.(type) {
	case Text:
		return v.Body, nil
	case *Text:
		return v.Body, nil
	default:
		return nil, fmt.Errorf("encode %q: %w", m.Tag(), ncerr.ErrUnknownTag)
	}
}

// Decode parses an envelope.  All failures are returned as
// *errors.DecodeError.
func Decode(data []byte) (Message, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, &ncerr.DecodeError{Err: ncerr.ErrMalformed}
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ncerr.DecodeError{Err: fmt.Errorf("%w: %v", ncerr.ErrMalformed, err)}
	}
	if len(env) != 1 {
		return nil, &ncerr.DecodeError{
			Err: fmt.Errorf("%w: envelope has %d members, want 1", ncerr.ErrMalformed, len(env)),
		}
	}

	for tag, raw := range env {
		decode, ok := decoders[tag]
		if !ok {
			return nil, &ncerr.DecodeError{Tag: tag, Err: ncerr.ErrUnknownTag}
		}
		m, err := decode(raw)
		if err != nil {
			return nil, &ncerr.DecodeError{Tag: tag, Err: fmt.Errorf("%w: %v", ncerr.ErrMalformed, err)}
		}
		return m, nil
	}
	return nil, &ncerr.DecodeError{Err: ncerr.ErrMalformed}
}
