package session

import (
	"errors"
	"io"
	"net"

	"github.com/gamectl/gamectl/internal/protocol/frame"
)

// Transport carries complete Messages over a duplex connection. Read blocks
// until a full message arrives or the stream closes. Implementations are not
// safe for concurrent writers; the Conn serializes writes.
//
// Read errors split into two classes: errors wrapping ErrProtocol are local
// to one message and the stream remains usable, anything else is fatal to
// the connection.
type Transport interface {
	ReadMessage() (Message, error)
	WriteMessage(Message) error
	Close() error
}

// tcpTransport speaks the binary protocol: length-prefixed frames holding
// variant-encoded message envelopes.
type tcpTransport struct {
	conn   io.ReadWriteCloser
	limits frame.Limits
}

// NewStreamTransport wraps a byte stream (normally a *net.TCPConn) in the
// framed binary protocol.
func NewStreamTransport(conn io.ReadWriteCloser, limits frame.Limits) Transport {
	return &tcpTransport{conn: conn, limits: limits}
}

func (t *tcpTransport) ReadMessage() (Message, error) {
	payload, err := frame.Read(t.conn, t.limits)
	if err != nil {
		// An oversized or empty frame leaves the stream in sync; surface it
		// as a protocol error so the reader loop keeps going.
		if errors.Is(err, frame.ErrPayloadTooLarge) || errors.Is(err, frame.ErrEmptyFrame) {
			return Message{}, errors.Join(ErrProtocol, err)
		}
		return Message{}, err
	}
	return DecodeMessage(payload)
}

func (t *tcpTransport) WriteMessage(msg Message) error {
	return frame.Write(t.conn, EncodeMessage(msg), t.limits)
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

// dialStream opens the TCP side of a session.
func dialStream(addr string, cfg Config) (Transport, error) {
	d := net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewStreamTransport(conn, cfg.Limits), nil
}
