package session

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/gamectl/gamectl/internal/protocol/frame"
	"github.com/gamectl/gamectl/internal/protocol/variant"
)

// wsTransport speaks the JSON protocol over a websocket connection, for
// games that embed the websocket automation addon instead of the native
// listener. Message boundaries come from the websocket layer, so no extra
// length prefix is needed.
type wsTransport struct {
	conn *websocket.Conn
}

type wsEnvelope struct {
	Name        string          `json:"name"`
	Correlation int64           `json:"correlation"`
	Payload     []variant.Value `json:"payload"`
}

// NewWebSocketTransport wraps an established websocket connection. The
// same payload ceiling applies as on the binary protocol; an oversized
// inbound message fails the read.
func NewWebSocketTransport(conn *websocket.Conn, limits frame.Limits) Transport {
	if limits.MaxPayloadBytes > 0 {
		conn.SetReadLimit(int64(limits.MaxPayloadBytes))
	}
	return &wsTransport{conn: conn}
}

// DialWebSocket connects to a ws:// or wss:// automation endpoint.
func DialWebSocket(ctx context.Context, url string, cfg Config) (Transport, error) {
	dialer := websocket.Dialer{HandshakeTimeout: cfg.ConnectTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}
	return NewWebSocketTransport(conn, cfg.Limits), nil
}

func (t *wsTransport) ReadMessage() (Message, error) {
	kind, raw, err := t.conn.ReadMessage()
	if err != nil {
		return Message{}, err
	}
	if kind != websocket.TextMessage {
		return Message{}, fmt.Errorf("%w: unexpected websocket message type %d", ErrProtocol, kind)
	}
	var env wsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if env.Name == "" {
		return Message{}, fmt.Errorf("%w: missing message name", ErrProtocol)
	}
	return Message{Name: env.Name, Correlation: env.Correlation, Payload: env.Payload}, nil
}

func (t *wsTransport) WriteMessage(msg Message) error {
	payload := msg.Payload
	if payload == nil {
		payload = []variant.Value{}
	}
	raw, err := json.Marshal(wsEnvelope{
		Name:        msg.Name,
		Correlation: msg.Correlation,
		Payload:     payload,
	})
	if err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, raw)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
