package session

import (
	"errors"
	"fmt"

	"github.com/gamectl/gamectl/internal/protocol/variant"
)

// ErrProtocol marks a malformed inbound message. Protocol errors are fatal
// to the single offending message only; the reader loop logs and continues.
var ErrProtocol = errors.New("session: protocol violation")

// Message is one wire exchange unit. Correlation is the remote endpoint's
// identity tag, captured once per connection from the first inbound message
// and echoed on every subsequent send. It is not a per-request id.
type Message struct {
	Name        string
	Correlation int64
	Payload     []variant.Value
}

// EncodeMessage serializes a Message to the binary wire form:
// List[Text(name), Int(correlation), List(payload)].
func EncodeMessage(msg Message) []byte {
	return variant.Encode(variant.List(
		variant.Text(msg.Name),
		variant.Int(msg.Correlation),
		variant.List(msg.Payload...),
	))
}

// DecodeMessage parses the binary wire form. Any shape violation is a
// protocol error, never a panic; the bytes come from a separate process
// that may crash mid-write.
func DecodeMessage(raw []byte) (Message, error) {
	v, n, err := variant.Decode(raw)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if n != len(raw) {
		return Message{}, fmt.Errorf("%w: %d trailing bytes after message", ErrProtocol, len(raw)-n)
	}
	parts := v.List()
	if v.Kind() != variant.KindList || len(parts) != 3 {
		return Message{}, fmt.Errorf("%w: message envelope is %s, want 3-element list", ErrProtocol, v.Kind())
	}
	if parts[0].Kind() != variant.KindText {
		return Message{}, fmt.Errorf("%w: message name is %s, want text", ErrProtocol, parts[0].Kind())
	}
	if parts[1].Kind() != variant.KindInt {
		return Message{}, fmt.Errorf("%w: correlation is %s, want int", ErrProtocol, parts[1].Kind())
	}
	if parts[2].Kind() != variant.KindList {
		return Message{}, fmt.Errorf("%w: payload is %s, want list", ErrProtocol, parts[2].Kind())
	}
	return Message{
		Name:        parts[0].Text(),
		Correlation: parts[1].Int(),
		Payload:     parts[2].List(),
	}, nil
}
