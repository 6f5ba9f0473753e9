// Package fakegame is a scripted in-memory stand-in for the remote executor
// inside a controlled game process. It speaks the real binary protocol over
// one end of a net.Pipe so session and facade tests exercise the full codec
// and framing path without a live game.
package fakegame

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/gamectl/gamectl/internal/protocol/frame"
	"github.com/gamectl/gamectl/internal/protocol/variant"
	"github.com/gamectl/gamectl/internal/session"
)

// Handler scripts the reply for one request name. Returning ok=false
// withholds the reply entirely (the request will dangle).
type Handler func(payload []variant.Value) (response []variant.Value, ok bool)

// Server is the scripted remote executor.
type Server struct {
	conn        io.ReadWriteCloser
	limits      frame.Limits
	correlation int64

	writeMu sync.Mutex

	mu        sync.Mutex
	handlers  map[string]Handler
	responses map[string]string // request name -> response name
	onMessage func(session.Message)

	done chan struct{}
}

// Pipe builds a connected client/server pair. The returned transport is the
// client side; the Server end is already running its read loop after Start.
func Pipe(correlation int64) (session.Transport, *Server) {
	clientEnd, serverEnd := net.Pipe()
	limits := frame.DefaultLimits()
	srv := &Server{
		conn:        serverEnd,
		limits:      limits,
		correlation: correlation,
		handlers:    make(map[string]Handler),
		responses:   make(map[string]string),
		done:        make(chan struct{}),
	}
	return session.NewStreamTransport(clientEnd, limits), srv
}

// Handle scripts a canned reply: requests named request get a response named
// response with the handler's payload.
func (s *Server) Handle(request, response string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[request] = h
	s.responses[request] = response
}

// OnMessage installs a raw tap invoked for every inbound message, before any
// scripted handler. Tests use it to assert request shapes or to drive
// replies manually via Send.
func (s *Server) OnMessage(fn func(session.Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMessage = fn
}

// Start sends the hello message carrying the correlation tag and begins
// serving scripted replies. net.Pipe writes rendezvous with the reader, so
// the hello goes out on the serve goroutine.
func (s *Server) Start() {
	go func() {
		_ = s.Send("session.hello")
		s.serve()
	}()
}

// Send writes one message to the client, tagged with the server's
// correlation. Safe for concurrent use.
func (s *Server) Send(name string, payload ...variant.Value) error {
	msg := session.Message{Name: name, Correlation: s.correlation, Payload: payload}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return frame.Write(s.conn, session.EncodeMessage(msg), s.limits)
}

// SendRaw writes an arbitrary frame payload, bypassing message encoding.
// Tests use it to feed the client malformed bytes.
func (s *Server) SendRaw(payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return frame.Write(s.conn, payload, s.limits)
}

// SendEvent emits an unsolicited event with the standard [source, args...]
// payload shape.
func (s *Server) SendEvent(event, source string, args ...variant.Value) error {
	payload := append([]variant.Value{variant.Text(source)}, args...)
	return s.Send("event."+event, payload...)
}

// Close tears down the server end of the pipe and waits for the read loop.
func (s *Server) Close() {
	s.conn.Close()
	<-s.done
}

func (s *Server) serve() {
	defer close(s.done)
	for {
		payload, err := frame.Read(s.conn, s.limits)
		if err != nil {
			if errors.Is(err, frame.ErrPayloadTooLarge) || errors.Is(err, frame.ErrEmptyFrame) {
				continue
			}
			return
		}
		msg, err := session.DecodeMessage(payload)
		if err != nil {
			continue
		}

		s.mu.Lock()
		tap := s.onMessage
		h := s.handlers[msg.Name]
		responseName := s.responses[msg.Name]
		s.mu.Unlock()

		if tap != nil {
			tap(msg)
		}
		if h == nil {
			continue
		}
		if reply, ok := h(msg.Payload); ok {
			_ = s.Send(responseName, reply...)
		}
	}
}
